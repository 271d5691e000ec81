package production

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/molinosur/fulfillment/internal/catalog"
	"github.com/molinosur/fulfillment/internal/shared"
)

// MountRoutes wires the production endpoints under /production.
func MountRoutes(r chi.Router, pool *pgxpool.Pool, lookup catalog.Lookup, redisClient *redis.Client, cacheTTL time.Duration, audit *shared.AuditLogger, logger *slog.Logger) {
	repo := NewRepository(pool)
	var cache *Cache
	if redisClient != nil {
		cache = NewCache(redisClient, cacheTTL, logger)
	}
	service := NewService(repo, lookup, cache, audit, logger)
	handler := NewHandler(service, logger)

	r.Route("/production", func(r chi.Router) {
		r.Get("/consolidated", handler.Consolidated)
		r.Put("/consolidated", handler.Adjust)
	})
}
