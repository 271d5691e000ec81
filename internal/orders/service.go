package orders

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/molinosur/fulfillment/internal/shared"
)

// Service implements order creation, reads and the status state machine.
type Service struct {
	repo      Repository
	validator *LineValidator
	audit     *shared.AuditLogger
	logger    *slog.Logger
}

// NewService constructs an order service. audit may be nil.
func NewService(repo Repository, validator *LineValidator, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		validator: validator,
		audit:     audit,
		logger:    logger,
	}
}

// Create validates the requested lines and persists the order header plus
// all lines in one transaction. A non-empty idempotencyKey is reserved
// inside that same transaction, so the key and the order commit or roll
// back together. A duplicate surfaces shared.ErrIdempotencyConflict; a
// failed attempt releases the key with its rollback, and a commit whose
// acknowledgement is lost keeps the key, so a blind retry can never insert
// a second order.
func (s *Service) Create(ctx context.Context, req CreateOrderRequest, actor shared.Actor, idempotencyKey string) (*CreateOrderResponse, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	if req.OrderDate.IsZero() {
		return nil, ErrInvalidOrderDate
	}

	if err := s.validator.ValidateLines(ctx, req.Lines); err != nil {
		return nil, err
	}

	order := Order{
		PublicID:     uuid.New(),
		ClientID:     req.ClientID,
		BranchID:     req.BranchID,
		CreatedBy:    actor.ID,
		OrderDate:    req.OrderDate,
		Observations: req.Observations,
		Status:       StatusRequested,
	}

	var orderID int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if idempotencyKey != "" {
			if err := repo.ReserveIdempotencyKey(ctx, idempotencyKey); err != nil {
				return err
			}
		}

		id, err := repo.Create(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id

		for _, lineReq := range req.Lines {
			line := OrderLine{
				OrderID:        orderID,
				ProductID:      lineReq.ProductID,
				PresentationID: lineReq.PresentationID,
				Quantity:       lineReq.Quantity,
			}
			if _, err := repo.InsertLine(ctx, line); err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &CreateOrderResponse{OrderID: orderID, PublicID: order.PublicID.String()}, nil
}

// Get returns the order with joined line detail.
func (s *Service) Get(ctx context.Context, id int64) (*OrderDetail, error) {
	return s.repo.GetDetail(ctx, id)
}

// List returns order headers matching the filter. Ownership enforcement for
// non-admin callers is the access-control layer's concern; the repository
// only applies the filter it is given.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus applies one forward transition of the state machine.
// Administrative targets need the admin role; route targets need the
// delivery or admin role. The compare-and-set in the repository keeps
// concurrent requests from racing past the current-status read.
func (s *Service) UpdateStatus(ctx context.Context, id int64, rawStatus string, actor shared.Actor) error {
	next := OrderStatus(rawStatus)
	if !next.Valid() {
		return fmt.Errorf("%q: %w", rawStatus, ErrInvalidStatus)
	}

	if next.RouteStatus() {
		if !actor.CanDeliver() {
			return fmt.Errorf("role %q: %w", actor.Role, ErrForbidden)
		}
	} else if !actor.CanManageStatus() {
		return fmt.Errorf("role %q: %w", actor.Role, ErrForbidden)
	}

	current, err := s.repo.GetStatus(ctx, id)
	if err != nil {
		return err
	}
	if !current.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", current, next, ErrTransitionNotAllowed)
	}

	if err := s.repo.UpdateStatus(ctx, id, current, next); err != nil {
		return err
	}

	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   "order.status",
		Entity:   "order",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     map[string]any{"from": string(current), "to": string(next)},
	}); err != nil {
		s.logger.Warn("audit status transition", slog.Int64("order_id", id), slog.Any("error", err))
	}
	return nil
}
