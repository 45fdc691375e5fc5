package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/infra/resilience"

	"go.uber.org/zap"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) (*ExpoSender, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	sender := NewExpoSender(srv.Client(), srv.URL, resilience.NewBulkhead(4),
		observability.NewMetrics(), zap.NewNop())
	return sender, srv
}

func ticketResponse(tickets ...map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": tickets})
	}
}

func TestValidateTokenRejectsMalformedShapeLocally(t *testing.T) {
	calls := 0
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
	})

	for _, token := range []string{"", "bogus", "ExponentPushToken[]", "ExponentPushToken[abc"} {
		err := sender.ValidateToken(context.Background(), token)
		var vErr *domain.ErrValidation
		if !errors.As(err, &vErr) {
			t.Errorf("token %q: expected validation error, got %v", token, err)
		}
	}
	if calls != 0 {
		t.Errorf("malformed tokens must not reach the API, got %d requests", calls)
	}
}

func TestValidateTokenAcceptsResolvableToken(t *testing.T) {
	sender, _ := newTestSender(t, ticketResponse(map[string]any{"status": "ok"}))

	if err := sender.ValidateToken(context.Background(), "ExponentPushToken[abc]"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateTokenReportsUnregisteredDevice(t *testing.T) {
	sender, _ := newTestSender(t, ticketResponse(map[string]any{
		"status":  "error",
		"message": "is not a registered push notification recipient",
		"details": map[string]any{"error": "DeviceNotRegistered"},
	}))

	err := sender.ValidateToken(context.Background(), "ExponentPushToken[abc]")
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error for unregistered device, got %v", err)
	}
}

func TestValidateTokenTransientFailureIsRetryable(t *testing.T) {
	sender, _ := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})

	err := sender.ValidateToken(context.Background(), "ExponentPushToken[abc]")
	var extErr *domain.ErrExternalService
	if !errors.As(err, &extErr) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if extErr.Service != "expo" {
		t.Errorf("service = %q, want expo", extErr.Service)
	}
}

func TestSendCollectsUnregisteredTokens(t *testing.T) {
	sender, _ := newTestSender(t, ticketResponse(
		map[string]any{"status": "ok"},
		map[string]any{"status": "error", "details": map[string]any{"error": "DeviceNotRegistered"}},
	))

	invalid, err := sender.Send(context.Background(),
		[]string{"ExponentPushToken[good]", "ExponentPushToken[gone]"},
		"Olá", "corpo", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(invalid) != 1 || invalid[0] != "ExponentPushToken[gone]" {
		t.Errorf("invalid tokens = %v, want the second token only", invalid)
	}
}
