package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond}
	return NewClient(srv.Client(), srv.URL, "anon", "service-role", "pet-images",
		resilience.NewCircuitBreaker("supabase-test"), cfg, zap.NewNop())
}

func TestDoPostConflictIsTyped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"23505"}`, http.StatusConflict)
	})

	_, err := client.doPost(context.Background(), "account_profiles", map[string]any{"user_id": "u1"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected ErrConflict on 409, got %v", err)
	}
}

func TestGetWithRetryReportsOpenCircuit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})

	// Hammer the failing backend until the breaker trips, then the typed
	// error must come back instead of the raw transport failure.
	var sawOpen bool
	for i := 0; i < 10; i++ {
		_, err := client.getWithRetry(context.Background(), "account_profiles?user_id=eq.u1")
		if err == nil {
			t.Fatal("expected errors from a failing backend")
		}
		var open *domain.ErrCircuitOpen
		if errors.As(err, &open) {
			sawOpen = true
			break
		}
	}
	if !sawOpen {
		t.Error("tripped breaker must surface as ErrCircuitOpen")
	}
}
