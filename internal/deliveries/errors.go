package deliveries

import "errors"

// Domain errors for delivery tracking.
var (
	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrLineNotFound indicates the (order, product, presentation) key does
	// not correspond to an order line. No foreign key enforces this, so it
	// is checked at write time.
	ErrLineNotFound = errors.New("order has no line for product and presentation")
	// ErrNegativeQuantity rejects quantities below zero; zero itself is valid.
	ErrNegativeQuantity = errors.New("delivered quantity must not be negative")
	// ErrForbidden indicates the actor may not record deliveries.
	ErrForbidden = errors.New("actor role may not record deliveries")
)
