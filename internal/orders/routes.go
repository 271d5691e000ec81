// Package orders implements order creation, reads and the status state
// machine for wholesale orders.
package orders

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molinosur/fulfillment/internal/catalog"
	"github.com/molinosur/fulfillment/internal/shared"
)

// MountRoutes registers the order routes on r, which the caller mounts
// under /orders.
func MountRoutes(
	r chi.Router,
	pool *pgxpool.Pool,
	lookup catalog.Lookup,
	audit *shared.AuditLogger,
	logger *slog.Logger,
) {
	repo := NewRepository(pool)
	validator := NewLineValidator(lookup)
	svc := NewService(repo, validator, audit, logger)
	handler := NewHandler(logger, svc)
	handler.MountRoutes(r)
}
