package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adotaqui/adotaqui-backend/internal/handler"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"go.uber.org/zap"
)

func newTestRouter() http.Handler {
	authSvc := service.NewAuthService("test-secret", "", nil, zap.NewNop())
	return handler.NewRouter(nil, nil, nil, nil, nil, authSvc,
		observability.NewMetrics(), zap.NewNop(), []string{"*"})
}

func TestHealthz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/v1/accounts/resolve"},
		{http.MethodPost, "/v1/devices/register"},
		{http.MethodPost, "/v1/donations"},
		{http.MethodGet, "/v1/notifications"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			req := httptest.NewRequest(p.method, p.path, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 without token, got %d", rec.Code)
			}
		})
	}
}

func TestInvalidBearerTokenRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/resolve", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for a garbage token, got %d", rec.Code)
	}
}

func TestAdminRoutesClosedWithoutKeyHash(t *testing.T) {
	// No ADMIN_KEY_HASH configured: the admin surface must be shut.
	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/app", nil)
	req.Header.Set("X-Admin-Key", "whatever")
	rec := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 with no admin hash configured, got %d", rec.Code)
	}
}
