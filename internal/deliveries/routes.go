// Package deliveries tracks progressive, partial fulfillment of order
// lines by delivery personnel.
package deliveries

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MountRoutes wires the delivery tracking routes.
func MountRoutes(r chi.Router, pool *pgxpool.Pool, logger *slog.Logger) {
	repo := NewRepository(pool)
	svc := NewService(repo)
	handler := NewHandler(logger, svc)
	handler.MountRoutes(r)
}
