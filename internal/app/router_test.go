package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyager-travel/voyager/internal/audit"
	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/observability"
	"github.com/voyager-travel/voyager/internal/shared"
	"github.com/voyager-travel/voyager/jobs"
)

func newTestRouter(checks map[string]HealthCheck) (http.Handler, *auth.TokenIssuer) {
	tokens := auth.NewTokenIssuer("router-test-secret", time.Hour)
	return NewRouter(RouterParams{
		Config:     &Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: time.Second},
		Metrics:    observability.NewMetrics(),
		Tokens:     tokens,
		Checks:     checks,
		JobHandler: jobs.NewHandler(nil, nil),
	}), tokens
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(map[string]HealthCheck{"postgres": func(context.Context) error { return nil }})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	h, _ = newTestRouter(map[string]HealthCheck{"redis": func(context.Context) error { return errors.New("refused") }})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h, tokens := newTestRouter(nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	token, _, err := tokens.Issue(auth.User{ID: 1, Role: shared.RoleAgent})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/jobs/health", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	h, _ := newTestRouter(nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"route not found"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestRouter(nil)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `voyager_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}

type emptyAuditRepo struct{}

func (emptyAuditRepo) Window(context.Context, audit.TimelineFilters, int, int) ([]audit.TimelineRow, error) {
	return nil, nil
}

func TestAuditRoutesAreAdminOnly(t *testing.T) {
	tokens := auth.NewTokenIssuer("router-test-secret", time.Hour)
	h := NewRouter(RouterParams{
		Config:       &Config{AppEnv: "test", RateLimitPerMinute: 1000, AppRequestTimeout: time.Second},
		Tokens:       tokens,
		AuditHandler: audit.NewHandler(nil, audit.NewService(emptyAuditRepo{}), auth.RequireRole(nil, shared.RoleAdmin)),
	})

	get := func(role string) int {
		token, _, err := tokens.Issue(auth.User{ID: 5, Role: role})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/audit", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusForbidden, get(shared.RoleAgent))
	assert.Equal(t, http.StatusOK, get(shared.RoleAdmin))
}
