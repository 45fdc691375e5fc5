package handler

import (
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Notificações
// ============================================================

func listNotificationsHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/notifications")
		defer span.End()

		user := UserFromContext(ctx)
		unreadOnly := r.URL.Query().Get("unread") == "true"

		notifications, err := notifier.ListNotifications(ctx, user.ID, unreadOnly)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if notifications == nil {
			notifications = []domain.Notification{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
	}
}

func markNotificationReadHandler(notifier *service.Notifier, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/notifications/{notifId}/read")
		defer span.End()

		notifID := chi.URLParam(r, "notifId")
		if err := notifier.MarkRead(ctx, notifID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "notificação lida", ID: notifID})
	}
}
