package service

import (
	"context"
	"errors"
	"testing"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"go.uber.org/zap"
)

func TestNotifyPersistsAndPushes(t *testing.T) {
	notifs := &fakeNotificationStore{}
	devices := newFakeDeviceStore(
		&domain.DeviceRegistration{DeviceID: "dev-1", UserID: "user-1", PushToken: "tok-1", IsActive: true},
		&domain.DeviceRegistration{DeviceID: "dev-2", UserID: "user-1", PushToken: "", IsActive: true},
		&domain.DeviceRegistration{DeviceID: "dev-3", UserID: "user-2", PushToken: "tok-3", IsActive: true},
	)
	push := &fakePushSender{}
	n := NewNotifier(notifs, devices, push, zap.NewNop())

	n.Notify(context.Background(), "user-1", domain.NotifPaymentConfirmed, "Doação confirmada", "Obrigado!", nil)

	if len(notifs.created) != 1 {
		t.Fatalf("expected one stored notification, got %d", len(notifs.created))
	}
	if push.sends != 1 {
		t.Fatalf("expected one push dispatch, got %d", push.sends)
	}
	if len(push.sentTokens) != 1 || push.sentTokens[0] != "tok-1" {
		t.Errorf("only the user's active tokens may be pushed, got %v", push.sentTokens)
	}
}

func TestNotifyDeactivatesInvalidTokens(t *testing.T) {
	devices := newFakeDeviceStore(
		&domain.DeviceRegistration{DeviceID: "dev-1", UserID: "user-1", PushToken: "tok-dead", IsActive: true},
	)
	push := &fakePushSender{invalid: []string{"tok-dead"}}
	n := NewNotifier(&fakeNotificationStore{}, devices, push, zap.NewNop())

	n.Notify(context.Background(), "user-1", domain.NotifPaymentPending, "Doação pendente", "...", nil)

	d := devices.devices["dev-1"]
	if d.IsActive || d.PushToken != "" {
		t.Errorf("device with bounced token must be deactivated, got %+v", d)
	}
}

func TestNotifySurvivesPushFailure(t *testing.T) {
	notifs := &fakeNotificationStore{}
	devices := newFakeDeviceStore(
		&domain.DeviceRegistration{DeviceID: "dev-1", UserID: "user-1", PushToken: "tok-1", IsActive: true},
	)
	push := &fakePushSender{sendErr: errors.New("expo down")}
	n := NewNotifier(notifs, devices, push, zap.NewNop())

	// Must not panic or propagate; the record is already stored.
	n.Notify(context.Background(), "user-1", domain.NotifPaymentError, "Erro", "...", nil)

	if len(notifs.created) != 1 {
		t.Errorf("notification must be stored even when push fails, got %d", len(notifs.created))
	}
}
