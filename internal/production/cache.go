package production

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds consolidated results per date in Redis. Entries expire on a
// short TTL so new orders and deliveries show up without explicit
// invalidation; planner adjustments invalidate their date immediately.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(date time.Time) string {
	return fmt.Sprintf("production:consolidated:%s", date.Format(time.DateOnly))
}

// Get returns the cached rows for the date, or ok=false on miss or any
// Redis failure. Cache trouble never fails a read.
func (c *Cache) Get(ctx context.Context, date time.Time) ([]ConsolidatedRow, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, cacheKey(date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("production cache read failed", "key", cacheKey(date), "error", err)
		}
		return nil, false
	}
	var rows []ConsolidatedRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		c.logger.Warn("production cache decode failed", "key", cacheKey(date), "error", err)
		return nil, false
	}
	return rows, true
}

// Set stores the rows for the date, best effort.
func (c *Cache) Set(ctx context.Context, date time.Time, rows []ConsolidatedRow) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(date), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("production cache write failed", "key", cacheKey(date), "error", err)
	}
}

// Invalidate drops the cached entry for the date.
func (c *Cache) Invalidate(ctx context.Context, date time.Time) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, cacheKey(date)).Err(); err != nil {
		c.logger.Warn("production cache invalidate failed", "key", cacheKey(date), "error", err)
	}
}
