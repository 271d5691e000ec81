package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements Lookup against the catalog tables.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// IsProductActive reports whether the product exists and is active.
func (r *Repository) IsProductActive(ctx context.Context, productID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1 AND active)`
	var active bool
	err := r.pool.QueryRow(ctx, query, productID).Scan(&active)
	return active, err
}

// IsPresentationValidForProduct reports whether an active association links
// the presentation to the product.
func (r *Repository) IsPresentationValidForProduct(ctx context.Context, productID, presentationID int64) (bool, error) {
	const query = `
		SELECT EXISTS(
			SELECT 1 FROM product_presentations
			WHERE product_id = $1 AND presentation_id = $2 AND active
		)
	`
	var valid bool
	err := r.pool.QueryRow(ctx, query, productID, presentationID).Scan(&valid)
	return valid, err
}

// UnitsPerPresentation returns the base units one presentation holds.
func (r *Repository) UnitsPerPresentation(ctx context.Context, productID, presentationID int64) (float64, error) {
	const query = `
		SELECT units_per_presentation FROM product_presentations
		WHERE product_id = $1 AND presentation_id = $2 AND active
	`
	var units float64
	err := r.pool.QueryRow(ctx, query, productID, presentationID).Scan(&units)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAssociationNotFound
		}
		return 0, err
	}
	return units, nil
}

// ConversionFactor resolves a single directed conversion edge.
func (r *Repository) ConversionFactor(ctx context.Context, productID int64, fromUnit, toUnit string) (float64, error) {
	const query = `
		SELECT factor FROM conversion_factors
		WHERE product_id = $1 AND from_unit = $2 AND to_unit = $3
	`
	var factor float64
	err := r.pool.QueryRow(ctx, query, productID, fromUnit, toUnit).Scan(&factor)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrFactorNotFound
		}
		return 0, err
	}
	return factor, nil
}
