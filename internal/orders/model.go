package orders

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the canonical order state. Legacy vocabulary variants are
// rejected at the boundary; only these values ever reach storage.
type OrderStatus string

const (
	StatusRequested     OrderStatus = "requested"
	StatusInProcess     OrderStatus = "in_process"
	StatusCompleted     OrderStatus = "completed"
	StatusCancelled     OrderStatus = "cancelled"
	StatusReadyForRoute OrderStatus = "ready_for_route"
	StatusInRoute       OrderStatus = "in_route"
	StatusDelivered     OrderStatus = "delivered"
)

// Valid reports whether s is part of the canonical vocabulary.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusRequested, StatusInProcess, StatusCompleted, StatusCancelled,
		StatusReadyForRoute, StatusInRoute, StatusDelivered:
		return true
	}
	return false
}

// allowedTransitions is the forward-only state machine. Backward writes are
// rejected rather than replayed.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	StatusRequested:     {StatusInProcess, StatusCancelled, StatusReadyForRoute},
	StatusInProcess:     {StatusCompleted, StatusCancelled},
	StatusReadyForRoute: {StatusInRoute},
	StatusInRoute:       {StatusDelivered},
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RouteStatus reports whether s belongs to the delivery-route branch.
func (s OrderStatus) RouteStatus() bool {
	return s == StatusReadyForRoute || s == StatusInRoute || s == StatusDelivered
}

// Order is an order header. Status is the only field mutated after
// creation; orders are never physically deleted.
type Order struct {
	ID           int64       `json:"id"`
	PublicID     uuid.UUID   `json:"public_id"`
	ClientID     int64       `json:"client_id"`
	BranchID     *int64      `json:"branch_id,omitempty"`
	CreatedBy    int64       `json:"created_by"`
	OrderDate    time.Time   `json:"order_date"`
	Observations *string     `json:"observations,omitempty"`
	Status       OrderStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	Lines        []OrderLine `json:"lines,omitempty"`
}

// OrderLine is immutable after creation; there is no line editing path.
type OrderLine struct {
	ID             int64   `json:"id"`
	OrderID        int64   `json:"order_id"`
	ProductID      int64   `json:"product_id"`
	PresentationID int64   `json:"presentation_id"`
	Quantity       float64 `json:"quantity"`
}

// OrderLineDetail joins catalog names and the conversion-adjusted quantity
// onto a line for read paths.
type OrderLineDetail struct {
	OrderLine
	ProductCode      string  `json:"product_code"`
	ProductName      string  `json:"product_name"`
	PresentationName string  `json:"presentation_name"`
	BaseUnits        float64 `json:"base_units"`
	UnitPrice        float64 `json:"unit_price"`
}

// OrderDetail is the full read model for a single order.
type OrderDetail struct {
	Order
	LineDetails []OrderLineDetail `json:"line_details"`
}

// ListFilter narrows ListOrders. AdminOverride lifts the ownership filter;
// enforcing who may set it is the access-control layer's concern.
type ListFilter struct {
	UserID        *int64
	ClientID      *int64
	DateFrom      *time.Time
	DateTo        *time.Time
	AdminOverride bool
	Limit         int
	Offset        int
}
