package deliveries

import (
	"context"
	"fmt"

	"github.com/molinosur/fulfillment/internal/shared"
)

// Store is the persistence surface the service needs. *Repository
// implements it.
type Store interface {
	Upsert(ctx context.Context, d Delivery) (int64, bool, error)
	OrderExists(ctx context.Context, orderID int64) (bool, error)
	LineExists(ctx context.Context, orderID, productID, presentationID int64) (bool, error)
	ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error)
	LineFulfillments(ctx context.Context, orderID int64) ([]LineFulfillment, error)
	AllLinesHaveDeliveryRecords(ctx context.Context, orderID int64) (bool, error)
}

// Service records deliveries and summarises per-line fulfillment.
type Service struct {
	store Store
}

// NewService constructs a delivery service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record upserts the delivered quantity for one order line. Each line is
// independent: recording product A never requires product B first. The
// (order, product, presentation) key must match an actual order line.
func (s *Service) Record(ctx context.Context, orderID int64, req RecordRequest, actor shared.Actor) (*RecordResponse, error) {
	if !actor.CanDeliver() {
		return nil, fmt.Errorf("role %q: %w", actor.Role, ErrForbidden)
	}
	if req.Quantity < 0 {
		return nil, ErrNegativeQuantity
	}

	exists, err := s.store.OrderExists(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("check order %d: %w", orderID, err)
	}
	if !exists {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}

	lineExists, err := s.store.LineExists(ctx, orderID, req.ProductID, req.PresentationID)
	if err != nil {
		return nil, fmt.Errorf("check line: %w", err)
	}
	if !lineExists {
		return nil, fmt.Errorf("order %d, product %d, presentation %d: %w",
			orderID, req.ProductID, req.PresentationID, ErrLineNotFound)
	}

	id, wasUpdate, err := s.store.Upsert(ctx, Delivery{
		OrderID:        orderID,
		ProductID:      req.ProductID,
		PresentationID: req.PresentationID,
		Quantity:       req.Quantity,
		Comment:        req.Comment,
		RecordedBy:     actor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("upsert delivery: %w", err)
	}

	return &RecordResponse{DeliveryID: id, WasUpdate: wasUpdate}, nil
}

// ListByOrder returns the delivery records of an order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]Delivery, error) {
	exists, err := s.store.OrderExists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}
	return s.store.ListByOrder(ctx, orderID)
}

// Fulfillment summarises every line of the order. Callers gate the
// ready_for_route transition on AllLinesRecorded; the write path itself
// stays unconditional.
func (s *Service) Fulfillment(ctx context.Context, orderID int64) (*OrderFulfillment, error) {
	exists, err := s.store.OrderExists(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrOrderNotFound)
	}

	lines, err := s.store.LineFulfillments(ctx, orderID)
	if err != nil {
		return nil, err
	}

	all, err := s.store.AllLinesHaveDeliveryRecords(ctx, orderID)
	if err != nil {
		return nil, err
	}

	return &OrderFulfillment{OrderID: orderID, Lines: lines, AllLinesRecorded: all}, nil
}
