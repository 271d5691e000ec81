package orders

import (
	"context"
	"fmt"

	"github.com/molinosur/fulfillment/internal/catalog"
)

// LineValidator checks requested lines against the catalog. It fails fast on
// the first violation in input order, so the reported error is deterministic
// for a given request.
type LineValidator struct {
	catalog catalog.Lookup
}

// NewLineValidator constructs a validator.
func NewLineValidator(lookup catalog.Lookup) *LineValidator {
	return &LineValidator{catalog: lookup}
}

// ValidateLines confirms each line references an active product, an active
// product-presentation association, and a strictly positive quantity, and
// that no two lines repeat a (product, presentation) pair. The unique
// constraint on order_lines backstops the duplicate check under races.
// Invalid lines are never dropped silently.
func (v *LineValidator) ValidateLines(ctx context.Context, lines []CreateLineRequest) error {
	seen := make(map[[2]int64]bool, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("line %d (product %d): %w", i+1, line.ProductID, ErrInvalidQuantity)
		}

		pair := [2]int64{line.ProductID, line.PresentationID}
		if seen[pair] {
			return fmt.Errorf("line %d (product %d, presentation %d): %w", i+1, line.ProductID, line.PresentationID, ErrDuplicateLine)
		}
		seen[pair] = true

		active, err := v.catalog.IsProductActive(ctx, line.ProductID)
		if err != nil {
			return fmt.Errorf("check product %d: %w", line.ProductID, err)
		}
		if !active {
			return fmt.Errorf("line %d (product %d): %w", i+1, line.ProductID, ErrProductInactive)
		}

		valid, err := v.catalog.IsPresentationValidForProduct(ctx, line.ProductID, line.PresentationID)
		if err != nil {
			return fmt.Errorf("check presentation %d for product %d: %w", line.PresentationID, line.ProductID, err)
		}
		if !valid {
			return fmt.Errorf("line %d (product %d, presentation %d): %w", i+1, line.ProductID, line.PresentationID, ErrBadPresentation)
		}
	}
	return nil
}
