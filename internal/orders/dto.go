package orders

import "time"

// CreateLineRequest is one requested (product, presentation, quantity) triple.
type CreateLineRequest struct {
	ProductID      int64   `json:"product_id" validate:"required,gt=0"`
	PresentationID int64   `json:"presentation_id" validate:"required,gt=0"`
	Quantity       float64 `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderRequest carries a new order. BranchID and Observations are
// optional; the actor id comes from context, never from the body.
type CreateOrderRequest struct {
	ClientID     int64               `json:"client_id" validate:"required,gt=0"`
	BranchID     *int64              `json:"branch_id,omitempty" validate:"omitempty,gt=0"`
	OrderDate    time.Time           `json:"order_date" validate:"required"`
	Observations *string             `json:"observations,omitempty"`
	Lines        []CreateLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// UpdateStatusRequest asks for a single status transition.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrderResponse returns the new identifiers.
type CreateOrderResponse struct {
	OrderID  int64  `json:"order_id"`
	PublicID string `json:"public_id"`
}
