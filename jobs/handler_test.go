package jobs

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/molinosur/fulfillment/internal/shared"
)

func newTestRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func warmupRequest(t *testing.T, actor *shared.Actor, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/production/warmup", strings.NewReader(body))
	if actor != nil {
		req = req.WithContext(shared.ContextWithActor(req.Context(), *actor))
	}
	return req
}

func TestEnqueueWarmupRequiresActor(t *testing.T) {
	router := newTestRouter(NewHandler(nil, nil, slog.Default()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, warmupRequest(t, nil, ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEnqueueWarmupRequiresAdmin(t *testing.T) {
	router := newTestRouter(NewHandler(nil, nil, slog.Default()))

	for _, role := range []shared.Role{shared.RoleDelivery, shared.RoleClient} {
		actor := shared.Actor{ID: 3, Role: role}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, warmupRequest(t, &actor, ""))
		assert.Equal(t, http.StatusForbidden, rec.Code, "role %s", role)
	}
}

func TestEnqueueWarmupWithoutQueueConfigured(t *testing.T) {
	router := newTestRouter(NewHandler(nil, nil, slog.Default()))

	actor := shared.Actor{ID: 1, Role: shared.RoleAdmin}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, warmupRequest(t, &actor, ""))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJobsHealthWithoutInspector(t *testing.T) {
	router := newTestRouter(NewHandler(nil, nil, slog.Default()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0}`, rec.Body.String())
}
