package production

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/molinosur/fulfillment/internal/platform/httpx"
	"github.com/molinosur/fulfillment/internal/shared"
)

// Handler exposes the consolidation endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
	group    singleflight.Group
	logger   *slog.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, validate: validator.New(), logger: logger}
}

// Consolidated handles GET /production/consolidated?date=YYYY-MM-DD.
// Concurrent requests for the same date share one computation.
func (h *Handler) Consolidated(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}

	key := date.Format(time.DateOnly)
	result, err, _ := h.group.Do(key, func() (any, error) {
		return h.service.Consolidate(r.Context(), date)
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	rows := result.([]ConsolidatedRow)
	if rows == nil {
		rows = []ConsolidatedRow{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"date":  key,
		"items": rows,
	})
}

// Adjust handles PUT /production/consolidated?date=YYYY-MM-DD.
func (h *Handler) Adjust(w http.ResponseWriter, r *http.Request) {
	actor, err := shared.ActorFromContext(r.Context())
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusUnauthorized, "Unauthorized", "actor identity required")
		return
	}
	date, err := parseDate(r.URL.Query().Get("date"))
	if err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Invalid Date", "date must be YYYY-MM-DD")
		return
	}

	var req AdjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}

	adj, err := h.service.AdjustQuantity(r.Context(), date, req, actor)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, adj)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, ErrInvalidDate
	}
	return time.Parse(time.DateOnly, raw)
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		httpx.ProblemForRequest(w, r, http.StatusForbidden, "Forbidden", "administrator role required")
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrNegativeQuantity):
		httpx.ProblemForRequest(w, r, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		h.logger.Error("production request failed", "error", err)
		httpx.ProblemForRequest(w, r, http.StatusInternalServerError, "Internal Error", "unexpected failure")
	}
}
