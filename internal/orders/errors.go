package orders

import "errors"

// Domain errors for orders.
var (
	// ErrNotFound indicates the requested order was not found.
	ErrNotFound = errors.New("order not found")

	// Validation errors.
	ErrEmptyLines       = errors.New("at least one line is required")
	ErrInvalidQuantity  = errors.New("quantity must be greater than zero")
	ErrInvalidStatus    = errors.New("unknown order status")
	ErrProductInactive  = errors.New("product does not exist or is inactive")
	ErrBadPresentation  = errors.New("presentation is not associated with product")
	ErrDuplicateLine    = errors.New("duplicate product and presentation pair")
	ErrInvalidOrderDate = errors.New("order date is required")

	// State machine errors.
	ErrTransitionNotAllowed = errors.New("status transition not allowed")

	// Authorization errors.
	ErrForbidden = errors.New("actor role may not perform this transition")
)
