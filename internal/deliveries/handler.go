package deliveries

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/molinosur/fulfillment/internal/platform/httpx"
	"github.com/molinosur/fulfillment/internal/shared"
)

// Handler manages delivery HTTP endpoints.
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

// MountRoutes registers the delivery routes on r, which the caller mounts
// under /orders alongside the order routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Put("/{id}/deliveries", h.record)
	r.Get("/{id}/deliveries", h.list)
	r.Get("/{id}/fulfillment", h.fulfillment)
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := shared.ActorFromContext(ctx)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusUnauthorized, "Unauthorized", "missing actor identity")
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	var req RecordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.Record(ctx, orderID, req, actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	status := http.StatusCreated
	if resp.WasUpdate {
		status = http.StatusOK
	}
	httpx.JSON(w, status, resp)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	deliveries, err := h.service.ListByOrder(r.Context(), orderID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, deliveries)
}

func (h *Handler) fulfillment(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}

	summary, err := h.service.Fulfillment(r.Context(), orderID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, summary)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrOrderNotFound):
		httpx.ProblemForRequest(w, r, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.ProblemForRequest(w, r, http.StatusForbidden, "Forbidden", err.Error())
	case errors.Is(err, ErrLineNotFound), errors.Is(err, ErrNegativeQuantity):
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("delivery request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.ProblemForRequest(w, r, http.StatusInternalServerError, "Internal Error", "")
	}
}
