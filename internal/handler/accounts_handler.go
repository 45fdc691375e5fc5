package handler

import (
	"encoding/json"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Contas e perfis
// ============================================================

func resolveAccountsHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/resolve")
		defer span.End()

		user := UserFromContext(ctx)
		span.SetAttributes(attribute.String("user.id", user.ID))

		// Resolution never fails; degraded results still render the app.
		resolution := svc.ResolveAccounts(ctx, *user)
		writeJSON(w, http.StatusOK, resolution)
	}
}

func selectProfileHandler(svc *service.AccountService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/select")
		defer span.End()

		user := UserFromContext(ctx)

		var req domain.SelectProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ProfileID == "" {
			writeError(w, http.StatusBadRequest, "profileId is required")
			return
		}

		if err := svc.SelectProfile(ctx, user.ID, req.ProfileID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "perfil selecionado", ID: req.ProfileID})
	}
}

// deleteAccountHandler soft-deletes every profile of the caller. A fresh
// password check is required, a bearer token alone is not enough.
func deleteAccountHandler(svc *service.AccountService, authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/accounts")
		defer span.End()

		user := UserFromContext(ctx)

		var req domain.ReauthenticateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := authSvc.Reauthenticate(ctx, *user, req.Password); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if err := svc.DeactivateAccount(ctx, user.ID); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("account deactivated", zap.String("user_id", user.ID))
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "conta desativada"})
	}
}

func reauthenticateHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/reauthenticate")
		defer span.End()

		user := UserFromContext(ctx)

		var req domain.ReauthenticateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := authSvc.Reauthenticate(ctx, *user, req.Password); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "credenciais confirmadas"})
	}
}
