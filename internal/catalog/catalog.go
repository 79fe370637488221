// Package catalog loads the static service price list.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/invoice-studio/internal/domain/entity"
)

//go:embed data/catalog.yaml
var defaultCatalogYAML []byte

// ErrInvalidCatalog is returned when a catalog document fails validation
var ErrInvalidCatalog = errors.New("invalid service catalog")

// Default returns the built-in catalog
func Default() (*entity.Catalog, error) {
	return Parse(defaultCatalogYAML)
}

// Load reads a catalog from path, falling back to the built-in catalog when path is empty
func Load(path string) (*entity.Catalog, error) {
	if path == "" {
		return Default()
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return Parse(content)
}

// Parse decodes and validates a YAML catalog document
func Parse(content []byte) (*entity.Catalog, error) {
	var cat entity.Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if err := Validate(&cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks structural rules of a catalog: named categories, no duplicate
// category names, named packages with non-negative prices.
// Duplicate package names within a category are tolerated; lookups take the first.
func Validate(cat *entity.Catalog) error {
	if len(cat.Categories) == 0 {
		return fmt.Errorf("%w: no categories", ErrInvalidCatalog)
	}

	seen := make(map[string]bool, len(cat.Categories))
	for _, category := range cat.Categories {
		if category.Name == "" {
			return fmt.Errorf("%w: category with empty name", ErrInvalidCatalog)
		}
		if seen[category.Name] {
			return fmt.Errorf("%w: duplicate category %q", ErrInvalidCatalog, category.Name)
		}
		seen[category.Name] = true

		for _, pkg := range category.Packages {
			if pkg.Name == "" {
				return fmt.Errorf("%w: package with empty name in %q", ErrInvalidCatalog, category.Name)
			}
			if pkg.MonthlyPrice < 0 {
				return fmt.Errorf("%w: negative price for %q/%q", ErrInvalidCatalog, category.Name, pkg.Name)
			}
		}
	}
	return nil
}
