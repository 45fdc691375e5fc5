package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"

	"go.uber.org/zap"
)

func newTestDeviceService(store *fakeDeviceStore, push *fakePushSender) *DeviceService {
	svc := NewDeviceService(store, push, observability.NewMetrics(), zap.NewNop())
	svc.sleep = func(time.Duration) {} // no real backoff in tests
	return svc
}

func TestRegisterGeneratesDeviceID(t *testing.T) {
	store := newFakeDeviceStore()
	svc := newTestDeviceService(store, &fakePushSender{})

	resp, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		PushToken:         "ExponentPushToken[abc]",
		Platform:          "ios",
		PermissionGranted: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DeviceID == "" {
		t.Fatal("backend must generate a device id when the client has none")
	}
	if !resp.Registered {
		t.Error("valid token with permission must register active")
	}

	d := store.devices[resp.DeviceID]
	if d == nil {
		t.Fatal("device record was not stored")
	}
	if !d.IsActive || d.PushToken != "ExponentPushToken[abc]" {
		t.Errorf("stored record = %+v, want active with token", d)
	}
}

func TestRegisterKeepsClientDeviceID(t *testing.T) {
	store := newFakeDeviceStore()
	svc := newTestDeviceService(store, &fakePushSender{})

	resp, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID:          "dev-42",
		PushToken:         "ExponentPushToken[abc]",
		Platform:          "android",
		PermissionGranted: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.DeviceID != "dev-42" {
		t.Errorf("device id = %q, want dev-42", resp.DeviceID)
	}
}

func TestRegisterWithoutPermissionStoresInactiveRecord(t *testing.T) {
	store := newFakeDeviceStore()
	svc := newTestDeviceService(store, &fakePushSender{})

	resp, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID:          "dev-1",
		PushToken:         "ExponentPushToken[abc]",
		Platform:          "ios",
		PermissionGranted: false,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Registered {
		t.Error("registration without permission must not be active")
	}

	d := store.devices["dev-1"]
	if d == nil {
		t.Fatal("install must still be recorded")
	}
	if d.IsActive || d.PushToken != "" {
		t.Errorf("record must be inactive with empty token, got %+v", d)
	}
}

func TestRegisterRetriesTokenValidation(t *testing.T) {
	store := newFakeDeviceStore()
	push := &fakePushSender{validateErr: &domain.ErrExternalService{
		Service: "expo", Err: errors.New("connection refused"),
	}}
	svc := newTestDeviceService(store, push)

	resp, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID:          "dev-1",
		PushToken:         "ExponentPushToken[abc]",
		Platform:          "ios",
		PermissionGranted: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if push.validateCalls != tokenValidationAttempts {
		t.Errorf("validation attempts = %d, want %d", push.validateCalls, tokenValidationAttempts)
	}
	if resp.Registered {
		t.Error("failed validation must not yield an active registration")
	}
	if d := store.devices["dev-1"]; d == nil || d.IsActive || d.PushToken != "" {
		t.Errorf("failed validation must store an inactive empty-token record, got %+v", store.devices["dev-1"])
	}
}

func TestRegisterRejectedTokenIsNotRetried(t *testing.T) {
	store := newFakeDeviceStore()
	push := &fakePushSender{validateErr: &domain.ErrValidation{
		Field: "push_token", Message: "token fora do formato Expo",
	}}
	svc := newTestDeviceService(store, push)

	resp, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID:          "dev-1",
		PushToken:         "bogus",
		Platform:          "ios",
		PermissionGranted: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if push.validateCalls != 1 {
		t.Errorf("a definitive rejection must not be retried, got %d attempts", push.validateCalls)
	}
	if resp.Registered {
		t.Error("rejected token must not yield an active registration")
	}
}

func TestRegisterSweepsStaleDevices(t *testing.T) {
	old := time.Now().Add(-40 * 24 * time.Hour)
	fresh := time.Now().Add(-time.Hour)
	store := newFakeDeviceStore(
		&domain.DeviceRegistration{DeviceID: "dev-stale", UserID: "user-1", LastSeen: old},
		&domain.DeviceRegistration{DeviceID: "dev-fresh", UserID: "user-1", LastSeen: fresh},
		&domain.DeviceRegistration{DeviceID: "dev-other", UserID: "user-2", LastSeen: old},
	)
	svc := newTestDeviceService(store, &fakePushSender{})

	_, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID:          "dev-current",
		PushToken:         "ExponentPushToken[abc]",
		Platform:          "ios",
		PermissionGranted: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := store.devices["dev-stale"]; ok {
		t.Error("stale device should have been swept")
	}
	if _, ok := store.devices["dev-fresh"]; !ok {
		t.Error("fresh device must survive the sweep")
	}
	if _, ok := store.devices["dev-other"]; !ok {
		t.Error("the sweep is scoped to the registering user")
	}
}

func TestRegisterSweepSparesCurrentDevice(t *testing.T) {
	old := time.Now().Add(-40 * 24 * time.Hour)
	store := newFakeDeviceStore(
		&domain.DeviceRegistration{DeviceID: "dev-1", UserID: "user-1", LastSeen: old},
	)
	svc := newTestDeviceService(store, &fakePushSender{})

	// Re-registering the stale device itself must not delete it.
	_, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID:          "dev-1",
		PushToken:         "ExponentPushToken[abc]",
		Platform:          "ios",
		PermissionGranted: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.devices["dev-1"]; !ok {
		t.Error("the device being registered must never be swept")
	}
}

func TestRegisterConcurrentCallReturnsEarly(t *testing.T) {
	store := newFakeDeviceStore()
	svc := newTestDeviceService(store, &fakePushSender{})
	svc.registering.Store(true)

	resp, err := svc.Register(context.Background(), "user-1", &domain.RegisterDeviceRequest{
		DeviceID: "dev-1",
		Platform: "ios",
	})
	if err != nil {
		t.Fatalf("overlapping registration must not error, got %v", err)
	}
	if resp.Registered {
		t.Error("overlapping registration must report not registered")
	}
	if len(store.devices) != 0 {
		t.Error("overlapping registration must not touch the store")
	}
}

func TestHeartbeatUnknownDevice(t *testing.T) {
	svc := newTestDeviceService(newFakeDeviceStore(), &fakePushSender{})

	err := svc.Heartbeat(context.Background(), "user-1", "ghost")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHeartbeatRefreshesLastSeen(t *testing.T) {
	stale := time.Now().Add(-10 * 24 * time.Hour)
	store := newFakeDeviceStore(
		&domain.DeviceRegistration{DeviceID: "dev-1", UserID: "user-1", LastSeen: stale},
	)
	svc := newTestDeviceService(store, &fakePushSender{})

	if err := svc.Heartbeat(context.Background(), "user-1", "dev-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.devices["dev-1"].LastSeen.After(stale) {
		t.Error("heartbeat must refresh last_seen")
	}
}

func TestUnregisterDeactivatesAndClearsToken(t *testing.T) {
	store := newFakeDeviceStore(
		&domain.DeviceRegistration{
			DeviceID: "dev-1", UserID: "user-1",
			PushToken: "ExponentPushToken[abc]", IsActive: true,
		},
	)
	svc := newTestDeviceService(store, &fakePushSender{})

	if err := svc.Unregister(context.Background(), "user-1", "dev-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := store.devices["dev-1"]
	if d == nil {
		t.Fatal("the registration record must survive unregistration")
	}
	if d.IsActive || d.PushToken != "" {
		t.Errorf("unregistered record must be inactive with empty token, got %+v", d)
	}

	err := svc.Unregister(context.Background(), "user-1", "")
	var vErr *domain.ErrValidation
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error for empty device id, got %v", err)
	}

	err = svc.Unregister(context.Background(), "user-1", "ghost")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Errorf("expected ErrNotFound for unknown device, got %v", err)
	}
}
