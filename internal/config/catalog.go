package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"allconnect/internal/domain"
)

// CatalogSeed is the mock-mode catalog file
type CatalogSeed struct {
	Categories []domain.Category `yaml:"categories"`
	Products   []domain.Product  `yaml:"products"`
}

// LoadCatalog reads and validates a YAML catalog seed.
func LoadCatalog(path string) (*CatalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var seed CatalogSeed
	// prices go through decimal's JSON decoding so 1299.99 stays exact
	if err := yaml.UnmarshalWithOptions(raw, &seed, yaml.UseJSONUnmarshaler()); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for i, p := range seed.Products {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("catalog product %d (%s): %w", i, p.SKU, err)
		}
	}
	return &seed, nil
}
