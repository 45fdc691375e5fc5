// Package service contains the business logic for accounts, donations,
// devices, the adoption catalog and notifications.
package service

import (
	"context"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service")

// Notifier persists a notification record and fans it out as a push message
// to the user's active devices.
type Notifier struct {
	notifications port.NotificationStore
	devices       port.DeviceStore
	push          port.PushSender
	logger        *zap.Logger
}

// NewNotifier creates a Notifier.
func NewNotifier(notifications port.NotificationStore, devices port.DeviceStore, push port.PushSender, logger *zap.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		devices:       devices,
		push:          push,
		logger:        logger,
	}
}

// Notify records the notification and pushes it to every active device of
// the user. Delivery is best effort: push failures are logged, never
// propagated, so callers on the payment path are not disturbed.
func (n *Notifier) Notify(ctx context.Context, userID, notifType, title, body string, data map[string]string) {
	ctx, span := tracer.Start(ctx, "Notifier.Notify")
	defer span.End()

	if _, err := n.notifications.CreateNotification(ctx, &domain.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   data,
	}); err != nil {
		n.logger.Warn("notifier: failed to persist notification",
			zap.String("user_id", userID),
			zap.String("type", notifType),
			zap.Error(err),
		)
	}

	devices, err := n.devices.ListActiveDevices(ctx, userID)
	if err != nil {
		n.logger.Warn("notifier: failed to list devices", zap.String("user_id", userID), zap.Error(err))
		return
	}
	if len(devices) == 0 {
		return
	}

	byToken := make(map[string]domain.DeviceRegistration, len(devices))
	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		tokens = append(tokens, d.PushToken)
		byToken[d.PushToken] = d
	}

	invalid, err := n.push.Send(ctx, tokens, title, body, data)
	if err != nil {
		n.logger.Warn("notifier: push dispatch failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	// Devices whose tokens bounced stop receiving pushes until they
	// re-register with a fresh token.
	for _, token := range invalid {
		d, ok := byToken[token]
		if !ok {
			continue
		}
		d.IsActive = false
		d.PushToken = ""
		if err := n.devices.UpsertDevice(ctx, &d); err != nil {
			n.logger.Warn("notifier: failed to deactivate device",
				zap.String("device_id", d.DeviceID),
				zap.Error(err),
			)
		}
	}
}

// ListNotifications returns the user's notification feed.
func (n *Notifier) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Notifier.ListNotifications")
	defer span.End()
	return n.notifications.ListNotifications(ctx, userID, unreadOnly)
}

// MarkRead marks a single notification as read.
func (n *Notifier) MarkRead(ctx context.Context, notifID string) error {
	ctx, span := tracer.Start(ctx, "Notifier.MarkRead")
	defer span.End()
	return n.notifications.MarkNotificationRead(ctx, notifID)
}
