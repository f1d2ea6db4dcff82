package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/infrastructure/store/mocks"
)

var _ catalog.Repository = (*CatalogCache)(nil)

// newUnreachableClient points at a closed port so every command fails fast.
func newUnreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func newTestCache() (*CatalogCache, *mocks.MockCatalog) {
	next := mocks.NewMockCatalog()
	next.AddPackage(catalog.Package{Slug: "mix-8", Sizes: []catalog.SizeOption{{Size: 8}}})
	next.AddDrink(catalog.Drink{Slug: "cola", SalePrice: 2000})
	next.AddDrink(catalog.Drink{Slug: "lemon", SalePrice: 1800})
	return NewCatalogCache(next, newUnreachableClient(), time.Minute, zap.NewNop()), next
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "package:mix-8", packageKey("mix-8"))
	assert.Equal(t, "drink:cola", drinkKey("cola"))
}

func TestCatalogCache_FallsThroughWhenRedisDown(t *testing.T) {
	c, next := newTestCache()
	ctx := context.Background()

	p, err := c.GetPackage(ctx, "mix-8")
	require.NoError(t, err)
	assert.Equal(t, "mix-8", p.Slug)
	assert.Equal(t, []string{"mix-8"}, next.GetPackageCalls)

	drinks, err := c.GetDrinks(ctx, []string{"cola", "lemon", "ghost"})
	require.NoError(t, err)
	assert.Len(t, drinks, 2)
	assert.Equal(t, 1800, drinks["lemon"].SalePrice)

	all, err := c.ListDrinks(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pkgs, err := c.ListPackages(ctx)
	require.NoError(t, err)
	assert.Len(t, pkgs, 1)
}

func TestCatalogCache_PropagatesNotFound(t *testing.T) {
	c, _ := newTestCache()

	_, err := c.GetPackage(context.Background(), "unknown")

	assert.ErrorIs(t, err, catalog.ErrPackageNotFound)
}

func TestCatalogCache_EmptySlugs(t *testing.T) {
	c, next := newTestCache()

	drinks, err := c.GetDrinks(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, drinks)
	assert.Empty(t, next.GetDrinksCalls)
}

func TestNewCatalogCache_DefaultTTL(t *testing.T) {
	c := NewCatalogCache(mocks.NewMockCatalog(), newUnreachableClient(), 0, zap.NewNop())
	assert.Equal(t, DefaultTTL, c.ttl)
}

// ============================================
// Redis-backed Tests
// ============================================

func newTestRedisCache(t *testing.T) (*CatalogCache, *mocks.MockCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })

	next := mocks.NewMockCatalog()
	next.AddPackage(catalog.Package{Slug: "mix-8", Sizes: []catalog.SizeOption{{Size: 8}}})
	next.AddDrink(catalog.Drink{Slug: "cola", SalePrice: 2000})
	next.AddDrink(catalog.Drink{Slug: "lemon", SalePrice: 1800})
	return NewCatalogCache(next, client, time.Minute, zap.NewNop()), next, mr
}

func TestCatalogCache_GetPackageHit(t *testing.T) {
	c, next, mr := newTestRedisCache(t)
	ctx := context.Background()

	first, err := c.GetPackage(ctx, "mix-8")
	require.NoError(t, err)
	second, err := c.GetPackage(ctx, "mix-8")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"mix-8"}, next.GetPackageCalls)
	assert.True(t, mr.Exists("package:mix-8"))
	assert.Equal(t, time.Minute, mr.TTL("package:mix-8"))
}

func TestCatalogCache_GetDrinksPartialHit(t *testing.T) {
	c, next, _ := newTestRedisCache(t)
	ctx := context.Background()

	_, err := c.GetDrinks(ctx, []string{"cola"})
	require.NoError(t, err)

	// cached entries win over later catalog changes
	next.AddDrink(catalog.Drink{Slug: "cola", SalePrice: 9999})

	drinks, err := c.GetDrinks(ctx, []string{"cola", "lemon", "ghost"})

	require.NoError(t, err)
	assert.Len(t, drinks, 2)
	assert.Equal(t, 2000, drinks["cola"].SalePrice)
	assert.Equal(t, 1800, drinks["lemon"].SalePrice)
	require.Len(t, next.GetDrinksCalls, 2)
	assert.Equal(t, []string{"lemon", "ghost"}, next.GetDrinksCalls[1])
}

func TestCatalogCache_CorruptEntryFallsThrough(t *testing.T) {
	c, next, mr := newTestRedisCache(t)
	require.NoError(t, mr.Set("package:mix-8", "{not json"))

	p, err := c.GetPackage(context.Background(), "mix-8")

	require.NoError(t, err)
	assert.Equal(t, "mix-8", p.Slug)
	assert.Len(t, next.GetPackageCalls, 1)
}

func TestCatalogCache_ListsAreCached(t *testing.T) {
	c, _, mr := newTestRedisCache(t)
	ctx := context.Background()

	_, err := c.ListPackages(ctx)
	require.NoError(t, err)
	_, err = c.ListDrinks(ctx)
	require.NoError(t, err)

	assert.True(t, mr.Exists(keyAllPackages))
	assert.True(t, mr.Exists(keyAllDrinks))
}

func TestCatalogCache_InvalidateDropsOnlyCatalogKeys(t *testing.T) {
	c, next, mr := newTestRedisCache(t)
	ctx := context.Background()

	slugs := make([]string, 0, 3*scanBatch)
	for i := range 3 * scanBatch {
		slug := fmt.Sprintf("drink-%03d", i)
		next.AddDrink(catalog.Drink{Slug: slug, SalePrice: 1000})
		slugs = append(slugs, slug)
	}
	_, err := c.GetDrinks(ctx, slugs)
	require.NoError(t, err)
	_, err = c.GetPackage(ctx, "mix-8")
	require.NoError(t, err)
	_, err = c.ListDrinks(ctx)
	require.NoError(t, err)
	require.NoError(t, mr.Set("session:abc", "keep"))

	require.NoError(t, c.Invalidate(ctx))

	assert.Equal(t, []string{"session:abc"}, mr.Keys())

	_, err = c.GetPackage(ctx, "mix-8")
	require.NoError(t, err)
	assert.Len(t, next.GetPackageCalls, 2)
}
