package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedLookup decorates a Lookup with Redis caching for conversion factors
// and presentation ratios. Catalog data changes rarely; a short TTL keeps
// the consolidation scan from re-reading the same factor rows per product.
// A nil client degrades to pass-through.
type CachedLookup struct {
	next   Lookup
	client *redis.Client
	ttl    time.Duration
}

// NewCachedLookup wraps next with caching.
func NewCachedLookup(next Lookup, client *redis.Client, ttl time.Duration) *CachedLookup {
	return &CachedLookup{next: next, client: client, ttl: ttl}
}

// IsProductActive is never cached: order validation must see deactivations
// immediately.
func (c *CachedLookup) IsProductActive(ctx context.Context, productID int64) (bool, error) {
	return c.next.IsProductActive(ctx, productID)
}

// IsPresentationValidForProduct is never cached for the same reason.
func (c *CachedLookup) IsPresentationValidForProduct(ctx context.Context, productID, presentationID int64) (bool, error) {
	return c.next.IsPresentationValidForProduct(ctx, productID, presentationID)
}

// UnitsPerPresentation caches the presentation ratio.
func (c *CachedLookup) UnitsPerPresentation(ctx context.Context, productID, presentationID int64) (float64, error) {
	key := fmt.Sprintf("catalog:upp:%d:%d", productID, presentationID)
	return c.fetchFloat(ctx, key, func(ctx context.Context) (float64, error) {
		return c.next.UnitsPerPresentation(ctx, productID, presentationID)
	})
}

// ConversionFactor caches the directed conversion edge.
func (c *CachedLookup) ConversionFactor(ctx context.Context, productID int64, fromUnit, toUnit string) (float64, error) {
	key := fmt.Sprintf("catalog:factor:%d:%s:%s", productID, fromUnit, toUnit)
	return c.fetchFloat(ctx, key, func(ctx context.Context) (float64, error) {
		return c.next.ConversionFactor(ctx, productID, fromUnit, toUnit)
	})
}

func (c *CachedLookup) fetchFloat(ctx context.Context, key string, loader func(context.Context) (float64, error)) (float64, error) {
	if c.client == nil {
		return loader(ctx)
	}
	val, err := c.client.Get(ctx, key).Float64()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Redis trouble must not break lookups.
		return loader(ctx)
	}
	val, err = loader(ctx)
	if err != nil {
		return 0, err
	}
	_ = c.client.Set(ctx, key, val, c.ttl).Err()
	return val, nil
}
