package production

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads outstanding demand and stores planner adjustments. The
// consolidation scan is a plain snapshot read: no locks are held across it,
// and a mix of orders committed before the scan began is acceptable.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// BaseTotals sums the requested quantity of every line in every
// non-cancelled order for the date, converted to the product's base unit
// through the presentation ratio.
func (r *Repository) BaseTotals(ctx context.Context, date time.Time) ([]BaseTotal, error) {
	const query = `
		SELECT p.id, p.name, p.base_unit,
		       SUM(ol.quantity * pp.units_per_presentation) AS total_base_units
		FROM order_lines ol
		INNER JOIN orders o ON o.id = ol.order_id
		INNER JOIN products p ON p.id = ol.product_id
		INNER JOIN product_presentations pp
		        ON pp.product_id = ol.product_id AND pp.presentation_id = ol.presentation_id
		WHERE o.order_date = $1
		  AND o.status <> 'cancelled'
		GROUP BY p.id, p.name, p.base_unit
		ORDER BY p.name, p.id
	`
	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []BaseTotal
	for rows.Next() {
		var t BaseTotal
		if err := rows.Scan(&t.ProductID, &t.ProductName, &t.BaseUnitName, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// AdjustmentsFor returns planner overrides keyed by product for the date.
func (r *Repository) AdjustmentsFor(ctx context.Context, date time.Time) (map[int64]float64, error) {
	const query = `
		SELECT product_id, quantity FROM production_adjustments WHERE order_date = $1
	`
	rows, err := r.pool.Query(ctx, query, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	adjustments := make(map[int64]float64)
	for rows.Next() {
		var productID int64
		var quantity float64
		if err := rows.Scan(&productID, &quantity); err != nil {
			return nil, err
		}
		adjustments[productID] = quantity
	}
	return adjustments, rows.Err()
}

// UpsertAdjustment stores or replaces the override for (date, product).
func (r *Repository) UpsertAdjustment(ctx context.Context, date time.Time, productID int64, quantity float64, adjustedBy int64) (*Adjustment, error) {
	const query = `
		INSERT INTO production_adjustments (order_date, product_id, quantity, adjusted_by, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (order_date, product_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              adjusted_by = EXCLUDED.adjusted_by,
		              updated_at = NOW()
		RETURNING order_date, product_id, quantity, adjusted_by, updated_at
	`
	var a Adjustment
	err := r.pool.QueryRow(ctx, query, date, productID, quantity, adjustedBy).Scan(
		&a.OrderDate, &a.ProductID, &a.Quantity, &a.AdjustedBy, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
