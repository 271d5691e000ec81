package production

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/molinosur/fulfillment/internal/catalog"
	"github.com/molinosur/fulfillment/internal/shared"
)

// Store is the persistence surface Consolidate and AdjustQuantity need.
type Store interface {
	BaseTotals(ctx context.Context, date time.Time) ([]BaseTotal, error)
	AdjustmentsFor(ctx context.Context, date time.Time) (map[int64]float64, error)
	UpsertAdjustment(ctx context.Context, date time.Time, productID int64, quantity float64, adjustedBy int64) (*Adjustment, error)
}

// Service aggregates per-date demand and derives packaging quantities.
type Service struct {
	store   Store
	catalog catalog.Lookup
	cache   *Cache
	audit   *shared.AuditLogger
	logger  *slog.Logger
}

// NewService constructs a service. cache and audit may be nil.
func NewService(store Store, lookup catalog.Lookup, cache *Cache, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, catalog: lookup, cache: cache, audit: audit, logger: logger}
}

// Consolidate returns one row per product with outstanding demand on the
// date. Planner adjustments replace the computed total before derived
// quantities are calculated. A product without a registered conversion
// chain still appears in the result, with the derived columns left unset.
func (s *Service) Consolidate(ctx context.Context, date time.Time) ([]ConsolidatedRow, error) {
	if date.IsZero() {
		return nil, ErrInvalidDate
	}

	if s.cache != nil {
		if rows, ok := s.cache.Get(ctx, date); ok {
			return rows, nil
		}
	}

	totals, err := s.store.BaseTotals(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("consolidate %s: %w", date.Format(time.DateOnly), err)
	}
	adjustments, err := s.store.AdjustmentsFor(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("consolidate adjustments %s: %w", date.Format(time.DateOnly), err)
	}

	rows := make([]ConsolidatedRow, 0, len(totals))
	for _, t := range totals {
		row := ConsolidatedRow{
			ProductID:      t.ProductID,
			ProductName:    t.ProductName,
			BaseUnitName:   t.BaseUnitName,
			TotalBaseUnits: Round2(t.Total),
		}
		if override, ok := adjustments[t.ProductID]; ok {
			row.TotalBaseUnits = Round2(override)
			row.Adjusted = true
		}
		s.derive(ctx, &row)
		rows = append(rows, row)
	}

	if s.cache != nil {
		s.cache.Set(ctx, date, rows)
	}
	return rows, nil
}

// derive fills the packaging columns from the conversion chain
// base -> can -> sack, then pounds at a fixed ratio. Each hop is optional:
// a missing factor stops the chain and leaves the rest nil.
func (s *Service) derive(ctx context.Context, row *ConsolidatedRow) {
	canFactor, err := s.catalog.ConversionFactor(ctx, row.ProductID, row.BaseUnitName, UnitCan)
	if err != nil {
		if !errors.Is(err, catalog.ErrFactorNotFound) {
			s.logger.Warn("conversion lookup failed",
				"product_id", row.ProductID, "from", row.BaseUnitName, "to", UnitCan, "error", err)
		}
		return
	}
	if canFactor <= 0 {
		return
	}
	cans := Round2(row.TotalBaseUnits / canFactor)
	row.CansNeeded = &cans

	sackFactor, err := s.catalog.ConversionFactor(ctx, row.ProductID, UnitCan, UnitSack)
	if err != nil {
		if !errors.Is(err, catalog.ErrFactorNotFound) {
			s.logger.Warn("conversion lookup failed",
				"product_id", row.ProductID, "from", UnitCan, "to", UnitSack, "error", err)
		}
		return
	}
	if sackFactor <= 0 {
		return
	}
	// Pounds come from the raw quotient; rounding the sack count first
	// would scale its rounding error by the pounds ratio.
	sacksRaw := cans / sackFactor
	sacks := Round2(sacksRaw)
	row.SacksNeeded = &sacks

	pounds := Round2(sacksRaw * PoundsPerSack)
	row.PoundsNeeded = &pounds
}

// AdjustQuantity records a planner override for (date, product) and
// invalidates the cached consolidation for the date.
func (s *Service) AdjustQuantity(ctx context.Context, date time.Time, req AdjustRequest, actor shared.Actor) (*Adjustment, error) {
	if !actor.CanManageStatus() {
		return nil, ErrForbidden
	}
	if date.IsZero() {
		return nil, ErrInvalidDate
	}
	if req.NewTotal < 0 {
		return nil, ErrNegativeQuantity
	}

	adj, err := s.store.UpsertAdjustment(ctx, date, req.ProductID, req.NewTotal, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("adjust product %d on %s: %w", req.ProductID, date.Format(time.DateOnly), err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, date)
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "production.adjust",
		Entity:   "production_adjustment",
		EntityID: fmt.Sprintf("%s/%d", date.Format(time.DateOnly), req.ProductID),
		Meta:     map[string]any{"quantity": req.NewTotal},
	}); err != nil {
		s.logger.Warn("audit production adjustment",
			slog.Int64("product_id", req.ProductID), slog.Any("error", err))
	}
	return adj, nil
}
