// Package cache provides a Redis read-through cache for the catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

const (
	DefaultTTL     = 24 * time.Hour
	keyAllPackages = "packages:all"
	keyAllDrinks   = "drinks:all"
)

func packageKey(slug string) string { return fmt.Sprintf("package:%s", slug) }
func drinkKey(slug string) string   { return fmt.Sprintf("drink:%s", slug) }

// NewClient builds a Redis client.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		Protocol: 2,
	})
}

// CatalogCache wraps a catalog.Repository. Redis failures are logged and the
// call falls through to the wrapped repository.
type CatalogCache struct {
	next   catalog.Repository
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewCatalogCache(next catalog.Repository, client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{next: next, client: client, ttl: ttl, logger: logger.With(zap.String("component", "cache"))}
}

func (c *CatalogCache) GetPackage(ctx context.Context, slug string) (*catalog.Package, error) {
	var p catalog.Package
	if c.load(ctx, packageKey(slug), &p) {
		return &p, nil
	}
	got, err := c.next.GetPackage(ctx, slug)
	if err != nil {
		return nil, err
	}
	c.store(ctx, map[string]any{packageKey(slug): got})
	return got, nil
}

func (c *CatalogCache) ListPackages(ctx context.Context) ([]catalog.Package, error) {
	var out []catalog.Package
	if c.load(ctx, keyAllPackages, &out) {
		return out, nil
	}
	out, err := c.next.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, map[string]any{keyAllPackages: out})
	return out, nil
}

func (c *CatalogCache) GetDrinks(ctx context.Context, slugs []string) (map[string]catalog.Drink, error) {
	out := make(map[string]catalog.Drink, len(slugs))
	if len(slugs) == 0 {
		return out, nil
	}

	keys := make([]string, len(slugs))
	for i, s := range slugs {
		keys[i] = drinkKey(s)
	}
	var misses []string
	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", "drinks"), zap.Error(err))
		misses = slugs
	} else {
		for i, v := range vals {
			raw, ok := v.(string)
			var d catalog.Drink
			if !ok || json.Unmarshal([]byte(raw), &d) != nil {
				misses = append(misses, slugs[i])
				continue
			}
			out[d.Slug] = d
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.next.GetDrinks(ctx, misses)
	if err != nil {
		return nil, err
	}
	entries := make(map[string]any, len(fetched))
	for slug, d := range fetched {
		out[slug] = d
		entries[drinkKey(slug)] = d
	}
	c.store(ctx, entries)
	return out, nil
}

func (c *CatalogCache) ListDrinks(ctx context.Context) ([]catalog.Drink, error) {
	var out []catalog.Drink
	if c.load(ctx, keyAllDrinks, &out) {
		return out, nil
	}
	out, err := c.next.ListDrinks(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, map[string]any{keyAllDrinks: out})
	return out, nil
}

// scanBatch is the COUNT hint for each SCAN page during invalidation.
const scanBatch = 100

// Invalidate drops every cached catalog entry. Keys are found with SCAN and
// deleted page by page.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	for _, pattern := range []string{"package:*", "drink:*"} {
		var cursor uint64
		for {
			keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return fmt.Errorf("invalidate catalog cache: %w", err)
			}
			if len(keys) > 0 {
				if err := c.client.Del(ctx, keys...).Err(); err != nil {
					return fmt.Errorf("invalidate catalog cache: %w", err)
				}
			}
			if next == 0 {
				break
			}
			cursor = next
		}
	}
	if err := c.client.Del(ctx, keyAllPackages, keyAllDrinks).Err(); err != nil {
		return fmt.Errorf("invalidate catalog cache: %w", err)
	}
	return nil
}

func (c *CatalogCache) load(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CatalogCache) store(ctx context.Context, entries map[string]any) {
	if len(entries) == 0 {
		return
	}
	pipe := c.client.TxPipeline()
	for key, v := range entries {
		raw, err := json.Marshal(v)
		if err != nil {
			c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
			return
		}
		pipe.Set(ctx, key, raw, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
}
