package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

// CatalogWriter is implemented by catalog stores that accept seed data.
type CatalogWriter interface {
	UpsertPackage(ctx context.Context, p catalog.Package) error
	UpsertDrink(ctx context.Context, d catalog.Drink) error
}

// CatalogSeed is the JSON layout of a catalog seed file.
type CatalogSeed struct {
	Packages []catalog.Package `json:"packages"`
	Drinks   []catalog.Drink   `json:"drinks"`
}

// LoadCatalogSeed reads and checks a seed file.
func LoadCatalogSeed(path string) (*CatalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed CatalogSeed
	if err := json.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate rejects entries without slugs, packages without sizes and
// package pools naming unknown drinks.
func (s *CatalogSeed) Validate() error {
	drinks := make(map[string]bool, len(s.Drinks))
	for i, d := range s.Drinks {
		if d.Slug == "" {
			return fmt.Errorf("seed: drink %d has no slug", i)
		}
		if d.SalePrice < 0 || d.RecyclingFee < 0 {
			return fmt.Errorf("seed: drink %s has a negative price", d.Slug)
		}
		drinks[d.Slug] = true
	}
	for i, p := range s.Packages {
		if p.Slug == "" {
			return fmt.Errorf("seed: package %d has no slug", i)
		}
		if len(p.Sizes) == 0 {
			return fmt.Errorf("seed: package %s has no sizes", p.Slug)
		}
		for _, slug := range p.Drinks {
			if !drinks[slug] {
				return fmt.Errorf("seed: package %s references unknown drink %s", p.Slug, slug)
			}
		}
	}
	return nil
}

// Apply writes every drink, then every package.
func (s *CatalogSeed) Apply(ctx context.Context, w CatalogWriter) error {
	for _, d := range s.Drinks {
		if err := w.UpsertDrink(ctx, d); err != nil {
			return err
		}
	}
	for _, p := range s.Packages {
		if err := w.UpsertPackage(ctx, p); err != nil {
			return err
		}
	}
	return nil
}
