// Package config holds the storefront settings: defaults, an optional YAML or
// TOML file, then CLI flags and environment on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

const (
	ModeMock   = "mock"
	ModeRemote = "remote"
)

// Duration reads "15s" style values from YAML and TOML
type Duration time.Duration

func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

type Config struct {
	Mode     string         `yaml:"mode" toml:"mode" validate:"oneof=mock remote"`
	Env      string         `yaml:"env" toml:"env"`
	HTTP     HTTPConfig     `yaml:"http" toml:"http"`
	Log      LogConfig      `yaml:"log" toml:"log"`
	Backend  BackendConfig  `yaml:"backend" toml:"backend"`
	Auth     AuthConfig     `yaml:"auth" toml:"auth"`
	Storage  StorageConfig  `yaml:"storage" toml:"storage"`
	Kafka    KafkaConfig    `yaml:"kafka" toml:"kafka"`
	Session  SessionConfig  `yaml:"session" toml:"session"`
	Checkout CheckoutConfig `yaml:"checkout" toml:"checkout"`
	Catalog  CatalogConfig  `yaml:"catalog" toml:"catalog"`
}

type HTTPConfig struct {
	Addr            string   `yaml:"addr" toml:"addr" validate:"required"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `yaml:"level" toml:"level" validate:"omitempty,oneof=debug info warn error"`
	Pretty bool   `yaml:"pretty" toml:"pretty"`
}

type BackendConfig struct {
	BaseURL string   `yaml:"base_url" toml:"base_url" validate:"omitempty,url"`
	Timeout Duration `yaml:"timeout" toml:"timeout"`
}

type AuthConfig struct {
	JWTSecret     string   `yaml:"jwt_secret" toml:"jwt_secret" validate:"required,min=16"`
	TokenTTL      Duration `yaml:"token_ttl" toml:"token_ttl"`
	AdminEmail    string   `yaml:"admin_email" toml:"admin_email" validate:"omitempty,email"`
	AdminPassword string   `yaml:"admin_password" toml:"admin_password"`
}

type StorageConfig struct {
	Driver     string   `yaml:"driver" toml:"driver" validate:"oneof=memory sqlite redis"`
	SQLitePath string   `yaml:"sqlite_path" toml:"sqlite_path"`
	RedisAddr  string   `yaml:"redis_addr" toml:"redis_addr"`
	TTL        Duration `yaml:"ttl" toml:"ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers" toml:"brokers"`
	Topic   string   `yaml:"topic" toml:"topic"`
	Buffer  int      `yaml:"buffer" toml:"buffer" validate:"gte=0"`
}

type SessionConfig struct {
	IdleTimeout Duration `yaml:"idle_timeout" toml:"idle_timeout"`
}

type CheckoutConfig struct {
	PlaceOrderRPS   float64 `yaml:"place_order_rps" toml:"place_order_rps" validate:"gt=0"`
	PlaceOrderBurst int     `yaml:"place_order_burst" toml:"place_order_burst" validate:"gte=1"`
}

type CatalogConfig struct {
	SeedFile string `yaml:"seed_file" toml:"seed_file"`
}

func Default() Config {
	return Config{
		Mode:     ModeMock,
		Env:      "development",
		HTTP:     HTTPConfig{Addr: ":9091", ShutdownTimeout: Duration(5 * time.Second)},
		Log:      LogConfig{Level: "info"},
		Backend:  BackendConfig{BaseURL: "http://localhost:8080/api", Timeout: Duration(10 * time.Second)},
		Auth:     AuthConfig{TokenTTL: Duration(24 * time.Hour)},
		Storage:  StorageConfig{Driver: "memory", SQLitePath: "storefront.db"},
		Kafka:    KafkaConfig{Topic: "order-events", Buffer: 256},
		Session:  SessionConfig{IdleTimeout: Duration(30 * time.Minute)},
		Checkout: CheckoutConfig{PlaceOrderRPS: 0.5, PlaceOrderBurst: 2},
	}
}

// LoadFile overlays the file at path onto c. The format follows the extension.
func LoadFile(path string, c *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, c)
	case ".toml":
		err = toml.Unmarshal(raw, c)
	default:
		return fmt.Errorf("config %s: unsupported format", path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}
	if c.Mode == ModeRemote && c.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required in remote mode"))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if (c.Auth.AdminEmail == "") != (c.Auth.AdminPassword == "") {
		errs = append(errs, errors.New("auth.admin_email and auth.admin_password go together"))
	}
	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for sqlite"))
		}
	case "redis":
		if c.Storage.RedisAddr == "" {
			errs = append(errs, errors.New("storage.redis_addr is required for redis"))
		}
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}
	if c.Session.IdleTimeout < 0 {
		errs = append(errs, errors.New("session.idle_timeout must not be negative"))
	}
	return errors.Join(errs...)
}
