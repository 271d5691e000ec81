package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molinosur/fulfillment/internal/platform/db"
	"github.com/molinosur/fulfillment/internal/shared"
)

// Repository provides persistence for orders. WithTx yields a Repository
// bound to a transaction so header and lines commit or roll back together.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Create(ctx context.Context, order Order) (int64, error)
	InsertLine(ctx context.Context, line OrderLine) (int64, error)
	// ReserveIdempotencyKey claims the key inside the current transaction,
	// so the reservation commits or rolls back with the order. A duplicate
	// returns shared.ErrIdempotencyConflict.
	ReserveIdempotencyKey(ctx context.Context, key string) error
	Get(ctx context.Context, id int64) (*Order, error)
	GetDetail(ctx context.Context, id int64) (*OrderDetail, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	GetStatus(ctx context.Context, id int64) (OrderStatus, error)
	// UpdateStatus writes to only when the stored status still equals from,
	// making concurrent transition requests race-safe. Returns ErrNotFound
	// when the order does not exist and ErrTransitionNotAllowed when the
	// stored status moved underneath the caller.
	UpdateStatus(ctx context.Context, id int64, from, to OrderStatus) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

func (r *repository) ReserveIdempotencyKey(ctx context.Context, key string) error {
	return shared.ReserveIdempotencyKey(ctx, r.db, key, "orders")
}

func (r *repository) Create(ctx context.Context, o Order) (int64, error) {
	const query = `
		INSERT INTO orders (public_id, client_id, branch_id, created_by, order_date, observations, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		o.PublicID, o.ClientID, o.BranchID, o.CreatedBy, o.OrderDate, o.Observations, o.Status,
	).Scan(&id)
	return id, err
}

func (r *repository) InsertLine(ctx context.Context, line OrderLine) (int64, error) {
	const query = `
		INSERT INTO order_lines (order_id, product_id, presentation_id, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		line.OrderID, line.ProductID, line.PresentationID, line.Quantity,
	).Scan(&id)
	return id, err
}

func (r *repository) Get(ctx context.Context, id int64) (*Order, error) {
	const query = `
		SELECT id, public_id, client_id, branch_id, created_by, order_date, observations, status, created_at
		FROM orders
		WHERE id = $1
	`
	var o Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID, &o.PublicID, &o.ClientID, &o.BranchID, &o.CreatedBy,
		&o.OrderDate, &o.Observations, &o.Status, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.getLines(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *repository) getLines(ctx context.Context, orderID int64) ([]OrderLine, error) {
	const query = `
		SELECT id, order_id, product_id, presentation_id, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []OrderLine
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.ProductID, &line.PresentationID, &line.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) GetDetail(ctx context.Context, id int64) (*OrderDetail, error) {
	order, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT ol.id, ol.order_id, ol.product_id, ol.presentation_id, ol.quantity,
		       p.code AS product_code,
		       p.name AS product_name,
		       pr.name AS presentation_name,
		       ol.quantity * pp.units_per_presentation AS base_units,
		       pp.unit_price
		FROM order_lines ol
		INNER JOIN products p ON p.id = ol.product_id
		INNER JOIN presentations pr ON pr.id = ol.presentation_id
		INNER JOIN product_presentations pp
		        ON pp.product_id = ol.product_id AND pp.presentation_id = ol.presentation_id
		WHERE ol.order_id = $1
		ORDER BY ol.id
	`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	detail := OrderDetail{Order: *order}
	for rows.Next() {
		var d OrderLineDetail
		err := rows.Scan(
			&d.ID, &d.OrderID, &d.ProductID, &d.PresentationID, &d.Quantity,
			&d.ProductCode, &d.ProductName, &d.PresentationName, &d.BaseUnits, &d.UnitPrice,
		)
		if err != nil {
			return nil, err
		}
		detail.LineDetails = append(detail.LineDetails, d)
	}
	return &detail, rows.Err()
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	var conditions []string
	var args []any
	argPos := 1

	if !filter.AdminOverride && filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.created_by = $%d", argPos))
		args = append(args, *filter.UserID)
		argPos++
	}
	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("o.client_id = $%d", argPos))
		args = append(args, *filter.ClientID)
		argPos++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("o.order_date >= $%d", argPos))
		args = append(args, *filter.DateFrom)
		argPos++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("o.order_date <= $%d", argPos))
		args = append(args, *filter.DateTo)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + conditions[0]
		for i := 1; i < len(conditions); i++ {
			whereClause += " AND " + conditions[i]
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT o.id, o.public_id, o.client_id, o.branch_id, o.created_by,
		       o.order_date, o.observations, o.status, o.created_at
		FROM orders o
		%s
		ORDER BY o.order_date DESC, o.id DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		err := rows.Scan(
			&o.ID, &o.PublicID, &o.ClientID, &o.BranchID, &o.CreatedBy,
			&o.OrderDate, &o.Observations, &o.Status, &o.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) GetStatus(ctx context.Context, id int64) (OrderStatus, error) {
	var status OrderStatus
	err := r.db.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return status, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to OrderStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the order is gone or the status moved concurrently.
		if _, err := r.GetStatus(ctx, id); err != nil {
			return err
		}
		return ErrTransitionNotAllowed
	}
	return nil
}
