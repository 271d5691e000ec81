package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/molinosur/fulfillment/internal/platform/httpx"
	"github.com/molinosur/fulfillment/internal/shared"
)

// Handler manages order HTTP endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		validate: validator.New(),
	}
}

// MountRoutes registers order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}/status", h.updateStatus)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusUnauthorized, "Unauthorized", "missing actor identity")
		return
	}

	var req CreateOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	resp, err := h.service.Create(ctx, req, actor, idempotencyKey)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	detail, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusUnauthorized, "Unauthorized", "missing actor identity")
		return
	}

	filter := ListFilter{}
	q := r.URL.Query()

	if clientID := q.Get("client_id"); clientID != "" {
		if id, err := strconv.ParseInt(clientID, 10, 64); err == nil {
			filter.ClientID = &id
		}
	}
	if dateFrom := q.Get("date_from"); dateFrom != "" {
		if t, err := time.Parse("2006-01-02", dateFrom); err == nil {
			filter.DateFrom = &t
		}
	}
	if dateTo := q.Get("date_to"); dateTo != "" {
		if t, err := time.Parse("2006-01-02", dateTo); err == nil {
			filter.DateTo = &t
		}
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 1 {
		filter.Offset = (page - 1) * 50
	}

	// Admins see everything; everyone else is scoped to their own orders.
	if actor.Role == shared.RoleAdmin {
		filter.AdminOverride = true
	} else {
		filter.UserID = &actor.ID
	}

	orders, err := h.service.List(ctx, filter)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusUnauthorized, "Unauthorized", "missing actor identity")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	if err := h.service.UpdateStatus(ctx, id, req.Status, actor); err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.ProblemForRequest(w, r, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.ProblemForRequest(w, r, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.ProblemForRequest(w, r, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrEmptyLines),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidOrderDate),
		errors.Is(err, ErrProductInactive),
		errors.Is(err, ErrBadPresentation),
		errors.Is(err, ErrDuplicateLine),
		errors.Is(err, ErrTransitionNotAllowed):
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("order request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.ProblemForRequest(w, r, http.StatusInternalServerError, "Internal Error", "")
	}
}
