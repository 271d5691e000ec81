package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/molinosur/fulfillment/internal/catalog"
	"github.com/molinosur/fulfillment/internal/deliveries"
	"github.com/molinosur/fulfillment/internal/orders"
	"github.com/molinosur/fulfillment/internal/production"
	"github.com/molinosur/fulfillment/internal/shared"
	"github.com/molinosur/fulfillment/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Pool       *pgxpool.Pool
	Redis      *redis.Client
	Catalog    catalog.Lookup
	Audit      *shared.AuditLogger
	JobHandler *jobs.Handler
}

// NewRouter constructs the chi.Router with service defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/orders", func(r chi.Router) {
		orders.MountRoutes(r, params.Pool, params.Catalog, params.Audit, params.Logger)
		deliveries.MountRoutes(r, params.Pool, params.Logger)
	})

	productionTTL := 60 * time.Second
	if params.Config != nil && params.Config.ProductionTTL > 0 {
		productionTTL = params.Config.ProductionTTL
	}
	production.MountRoutes(r, params.Pool, params.Catalog, params.Redis, productionTTL, params.Audit, params.Logger)

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			params.JobHandler.MountRoutes(r)
		})
	}

	return r
}
