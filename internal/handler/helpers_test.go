package handler

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"go.uber.org/zap"
)

func TestHandleServiceErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &domain.ErrNotFound{Resource: "pet", ID: "p1"}, 404},
		{"circuit open", &domain.ErrCircuitOpen{Service: "supabase"}, 503},
		{"validation", &domain.ErrValidation{Field: "amount", Message: "inválido"}, 400},
		{"insufficient balance", &domain.ErrInsufficientBalance{Available: 10, Required: 20}, 422},
		{"forbidden", &domain.ErrForbidden{Action: "editar"}, 403},
		{"unauthorized", &domain.ErrUnauthorized{}, 401},
		{"conflict", &domain.ErrConflict{Message: "registro já existe"}, 409},
		{"external service", &domain.ErrExternalService{Service: "asaas", Err: errors.New("503")}, 502},
		{"unknown", errors.New("boom"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, tt.err, zap.NewNop())
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
