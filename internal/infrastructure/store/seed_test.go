package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

type recordingWriter struct {
	packages []string
	drinks   []string
}

func (w *recordingWriter) UpsertPackage(_ context.Context, p catalog.Package) error {
	w.packages = append(w.packages, p.Slug)
	return nil
}

func (w *recordingWriter) UpsertDrink(_ context.Context, d catalog.Drink) error {
	w.drinks = append(w.drinks, d.Slug)
	return nil
}

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ============================================
// Seed Tests
// ============================================

func TestLoadCatalogSeed_AndApply(t *testing.T) {
	path := writeSeed(t, `{
		"drinks": [
			{"slug": "cola", "title": "Cola", "salePrice": 2000, "recyclingFee": 100, "size": "0.5 L"},
			{"slug": "cola-zero", "title": "Cola Zero", "salePrice": 2000, "sugarFree": true, "size": "0.5 L"}
		],
		"packages": [
			{"slug": "mix-8", "title": "Mix 8", "sizes": [{"size": 8, "discount": 0.9, "roundUpOrDown": 5}], "drinks": ["cola", "cola-zero"]}
		]
	}`)

	seed, err := LoadCatalogSeed(path)
	require.NoError(t, err)
	assert.Len(t, seed.Drinks, 2)
	assert.True(t, seed.Drinks[1].SugarFree)
	assert.Equal(t, 0.9, seed.Packages[0].Sizes[0].Discount)

	w := &recordingWriter{}
	require.NoError(t, seed.Apply(context.Background(), w))
	assert.Equal(t, []string{"cola", "cola-zero"}, w.drinks)
	assert.Equal(t, []string{"mix-8"}, w.packages)
}

func TestCatalogSeed_Validate(t *testing.T) {
	tests := []struct {
		name string
		seed CatalogSeed
	}{
		{"drink without slug", CatalogSeed{Drinks: []catalog.Drink{{Title: "x"}}}},
		{"negative price", CatalogSeed{Drinks: []catalog.Drink{{Slug: "x", SalePrice: -1}}}},
		{"package without sizes", CatalogSeed{Packages: []catalog.Package{{Slug: "p"}}}},
		{"unknown drink in pool", CatalogSeed{Packages: []catalog.Package{{Slug: "p", Sizes: []catalog.SizeOption{{Size: 8}}, Drinks: []string{"ghost"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.seed.Validate())
		})
	}
}

func TestLoadCatalogSeed_MissingFile(t *testing.T) {
	_, err := LoadCatalogSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
