package production

import "errors"

// Domain errors for production planning.
var (
	// ErrForbidden indicates the actor may not adjust production quantities.
	ErrForbidden = errors.New("actor role may not adjust production quantities")
	// ErrNegativeQuantity rejects negative override totals.
	ErrNegativeQuantity = errors.New("adjusted quantity must not be negative")
	// ErrInvalidDate indicates an unparsable consolidation date.
	ErrInvalidDate = errors.New("invalid consolidation date")
)
