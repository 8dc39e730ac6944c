// Package i18n renders user-facing messages in Spanish (default) or English.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supported = []language.Tag{language.Spanish, language.English}

var matcher = language.NewMatcher(supported)

// Default is used when Accept-Language matches nothing.
var Default = language.Spanish

func init() {
	for key, m := range messages {
		_ = message.SetString(language.Spanish, key, m.es)
		_ = message.SetString(language.English, key, m.en)
	}
}

// Match picks the supported language for an Accept-Language header value.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	return supported[idx]
}

// T renders key in tag; unknown keys come back verbatim.
func T(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(tag).Sprintf(key, args...)
}
