package deliveries

import "time"

// Delivery is the latest known delivered quantity for one order line. One
// record per (order, product, presentation) key; submissions for the same
// key update in place, they never append.
type Delivery struct {
	ID             int64     `json:"id"`
	OrderID        int64     `json:"order_id"`
	ProductID      int64     `json:"product_id"`
	PresentationID int64     `json:"presentation_id"`
	Quantity       float64   `json:"quantity"`
	Comment        *string   `json:"comment,omitempty"`
	RecordedBy     int64     `json:"recorded_by"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Fulfillment classifies one line against its requested quantity.
type Fulfillment string

const (
	// FulfillmentComplete: delivered >= requested.
	FulfillmentComplete Fulfillment = "complete"
	// FulfillmentPartial: 0 < delivered < requested.
	FulfillmentPartial Fulfillment = "partial"
	// FulfillmentPending: no record, or a recorded quantity of zero.
	FulfillmentPending Fulfillment = "pending"
)

// Classify derives the fulfillment state. hasRecord distinguishes "recorded
// as zero" from "never recorded"; both classify as pending but only the
// former counts toward the ready_for_route gate.
func Classify(requested, delivered float64, hasRecord bool) Fulfillment {
	switch {
	case hasRecord && delivered >= requested:
		return FulfillmentComplete
	case hasRecord && delivered > 0:
		return FulfillmentPartial
	default:
		return FulfillmentPending
	}
}

// LineFulfillment is the per-line summary row.
type LineFulfillment struct {
	ProductID      int64       `json:"product_id"`
	PresentationID int64       `json:"presentation_id"`
	Requested      float64     `json:"requested"`
	Delivered      float64     `json:"delivered"`
	HasRecord      bool        `json:"has_record"`
	State          Fulfillment `json:"state"`
}

// OrderFulfillment summarises an order. AllLinesRecorded is the
// ready_for_route gate: every line has at least one delivery record, even a
// partial or zero one.
type OrderFulfillment struct {
	OrderID          int64             `json:"order_id"`
	Lines            []LineFulfillment `json:"lines"`
	AllLinesRecorded bool              `json:"all_lines_recorded"`
}

// RecordRequest carries one delivery submission. Zero quantity is valid and
// means "not yet delivered", distinct from no record existing.
type RecordRequest struct {
	ProductID      int64   `json:"product_id" validate:"required,gt=0"`
	PresentationID int64   `json:"presentation_id" validate:"required,gt=0"`
	Quantity       float64 `json:"quantity" validate:"gte=0"`
	Comment        *string `json:"comment,omitempty"`
}

// RecordResponse reports the upsert outcome so callers can choose a created
// versus updated response code.
type RecordResponse struct {
	DeliveryID int64 `json:"delivery_id"`
	WasUpdate  bool  `json:"was_update"`
}
