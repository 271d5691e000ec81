// Package catalog exposes the read-only lookups the order and production
// subsystems consume. Product and presentation maintenance lives elsewhere;
// this package never writes.
package catalog

import (
	"context"
	"errors"
)

var (
	// ErrFactorNotFound indicates no conversion edge exists between the two
	// named units for the product.
	ErrFactorNotFound = errors.New("conversion factor not found")
	// ErrAssociationNotFound indicates the product/presentation pair is not
	// associated or the association is inactive.
	ErrAssociationNotFound = errors.New("product presentation association not found")
)

// Lookup is the catalog surface consumed by orders and production.
type Lookup interface {
	// IsProductActive reports whether the product exists and is active.
	IsProductActive(ctx context.Context, productID int64) (bool, error)
	// IsPresentationValidForProduct reports whether the presentation is
	// associated with the product and the association is active.
	IsPresentationValidForProduct(ctx context.Context, productID, presentationID int64) (bool, error)
	// UnitsPerPresentation returns how many base units one presentation of
	// the product holds.
	UnitsPerPresentation(ctx context.Context, productID, presentationID int64) (float64, error)
	// ConversionFactor returns the stored multiplicative factor between two
	// named units for a product, or ErrFactorNotFound. Factors form a flat
	// table of directed edges; chains are not resolved here.
	ConversionFactor(ctx context.Context, productID int64, fromUnit, toUnit string) (float64, error)
}
