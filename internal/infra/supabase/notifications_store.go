package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Notifications
// ============================================================

func (c *Client) CreateNotification(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateNotification")
	defer span.End()
	span.SetAttributes(attribute.String("notification.type", n.Type))

	if n.ID == "" {
		n.ID = uuid.New().String()
	}

	data := map[string]any{
		"id":      n.ID,
		"user_id": n.UserID,
		"type":    n.Type,
		"title":   n.Title,
		"body":    n.Body,
		"is_read": false,
	}
	if len(n.Data) > 0 {
		data["data"] = n.Data
	}

	body, err := c.doPost(ctx, "notifications", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/notifications", Err: err}
	}

	var rows []domain.Notification
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	if len(rows) == 0 {
		return n, nil
	}
	return &rows[0], nil
}

func (c *Client) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListNotifications")
	defer span.End()

	path := fmt.Sprintf("notifications?user_id=eq.%s&order=created_at.desc&limit=50", userID)
	if unreadOnly {
		path += "&is_read=eq.false"
	}

	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/notifications", Err: err}
	}

	var rows []domain.Notification
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode notifications: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, notifID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.MarkNotificationRead")
	defer span.End()

	path := fmt.Sprintf("notifications?id=eq.%s", notifID)
	return c.doPatch(ctx, path, map[string]any{"is_read": true})
}
