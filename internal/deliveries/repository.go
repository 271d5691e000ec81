package deliveries

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for delivery records.
// The unique constraint on (order_id, product_id, presentation_id) plus
// ON CONFLICT makes the upsert race-safe: concurrent submissions for the
// same key serialize in the database, last writer wins.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Upsert inserts or updates the delivery record for the key and reports
// whether an existing record was updated. xmax is zero only for freshly
// inserted rows.
func (r *Repository) Upsert(ctx context.Context, d Delivery) (int64, bool, error) {
	const query = `
		INSERT INTO deliveries (order_id, product_id, presentation_id, quantity, comment, recorded_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (order_id, product_id, presentation_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              comment = EXCLUDED.comment,
		              recorded_by = EXCLUDED.recorded_by,
		              updated_at = NOW()
		RETURNING id, (xmax <> 0) AS was_update
	`
	var id int64
	var wasUpdate bool
	err := r.pool.QueryRow(ctx, query,
		d.OrderID, d.ProductID, d.PresentationID, d.Quantity, d.Comment, d.RecordedBy,
	).Scan(&id, &wasUpdate)
	return id, wasUpdate, err
}

// OrderExists reports whether the order exists.
func (r *Repository) OrderExists(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists)
	return exists, err
}

// LineExists reports whether the order carries a line for the exact
// (product, presentation) pair.
func (r *Repository) LineExists(ctx context.Context, orderID, productID, presentationID int64) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM order_lines
			WHERE order_id = $1 AND product_id = $2 AND presentation_id = $3
		)
	`
	var exists bool
	err := r.pool.QueryRow(ctx, query, orderID, productID, presentationID).Scan(&exists)
	return exists, err
}

// ListByOrder returns all delivery records of an order.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	const query = `
		SELECT id, order_id, product_id, presentation_id, quantity, comment, recorded_by, updated_at
		FROM deliveries
		WHERE order_id = $1
		ORDER BY product_id, presentation_id
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		err := rows.Scan(&d.ID, &d.OrderID, &d.ProductID, &d.PresentationID,
			&d.Quantity, &d.Comment, &d.RecordedBy, &d.UpdatedAt)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// LineFulfillments joins every order line with its delivery record, if any.
func (r *Repository) LineFulfillments(ctx context.Context, orderID int64) ([]LineFulfillment, error) {
	const query = `
		SELECT ol.product_id, ol.presentation_id, ol.quantity AS requested,
		       COALESCE(d.quantity, 0) AS delivered,
		       d.id IS NOT NULL AS has_record
		FROM order_lines ol
		LEFT JOIN deliveries d
		       ON d.order_id = ol.order_id
		      AND d.product_id = ol.product_id
		      AND d.presentation_id = ol.presentation_id
		WHERE ol.order_id = $1
		ORDER BY ol.id
	`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []LineFulfillment
	for rows.Next() {
		var lf LineFulfillment
		if err := rows.Scan(&lf.ProductID, &lf.PresentationID, &lf.Requested, &lf.Delivered, &lf.HasRecord); err != nil {
			return nil, err
		}
		lf.State = Classify(lf.Requested, lf.Delivered, lf.HasRecord)
		lines = append(lines, lf)
	}
	return lines, rows.Err()
}

// AllLinesHaveDeliveryRecords reports whether every line of the order has a
// delivery record, partial or zero included. An order without lines is
// never considered recorded.
func (r *Repository) AllLinesHaveDeliveryRecords(ctx context.Context, orderID int64) (bool, error) {
	const query = `
		SELECT EXISTS(SELECT 1 FROM order_lines WHERE order_id = $1)
		   AND NOT EXISTS(
			SELECT 1 FROM order_lines ol
			LEFT JOIN deliveries d
			       ON d.order_id = ol.order_id
			      AND d.product_id = ol.product_id
			      AND d.presentation_id = ol.presentation_id
			WHERE ol.order_id = $1 AND d.id IS NULL
		)
	`
	var all bool
	err := r.pool.QueryRow(ctx, query, orderID).Scan(&all)
	return all, err
}
