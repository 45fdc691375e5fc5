package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tokenValidationAttempts = 3

// DeviceService maintains push-device registrations: one record per app
// install per user, deactivated when its token goes bad and swept after
// thirty days of silence.
type DeviceService struct {
	devices port.DeviceStore
	push    port.PushSender
	metrics *observability.Metrics
	logger  *zap.Logger

	// registering is an advisory guard: overlapping registrations from the
	// same process return early instead of racing the store.
	registering atomic.Bool

	// sleep is swapped out in tests
	sleep func(time.Duration)
}

// NewDeviceService creates a DeviceService.
func NewDeviceService(devices port.DeviceStore, push port.PushSender, metrics *observability.Metrics, logger *zap.Logger) *DeviceService {
	return &DeviceService{
		devices: devices,
		push:    push,
		metrics: metrics,
		logger:  logger,
		sleep:   time.Sleep,
	}
}

// Register reconciles a device registration. When the client has no device
// ID yet one is generated and returned for it to persist. A token that
// fails validation, or absent push permission, results in an inactive
// record with an empty token rather than a rejected request.
func (s *DeviceService) Register(ctx context.Context, userID string, req *domain.RegisterDeviceRequest) (*domain.RegisterDeviceResponse, error) {
	ctx, span := tracer.Start(ctx, "DeviceService.Register")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	if !s.registering.CompareAndSwap(false, true) {
		s.logger.Debug("devices: registration already in flight", zap.String("user_id", userID))
		return &domain.RegisterDeviceResponse{Registered: false, DeviceID: req.DeviceID}, nil
	}
	defer s.registering.Store(false)

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = uuid.New().String()
	}

	now := time.Now()
	record := &domain.DeviceRegistration{
		DeviceID:     deviceID,
		UserID:       userID,
		Platform:     req.Platform,
		LastSeen:     now,
		RegisteredAt: now,
	}

	if req.PermissionGranted && req.PushToken != "" && s.validateToken(ctx, req.PushToken) {
		record.PushToken = req.PushToken
		record.IsActive = true
	} else {
		// Keep the install known even without a deliverable token so the
		// sweep and heartbeat still see it.
		record.PushToken = ""
		record.IsActive = false
	}

	if err := s.devices.UpsertDevice(ctx, record); err != nil {
		return nil, err
	}
	s.metrics.IncrDeviceRegistered()

	s.sweepStale(ctx, userID, deviceID)

	s.logger.Info("device registered",
		zap.String("device_id", deviceID),
		zap.String("platform", req.Platform),
		zap.Bool("active", record.IsActive),
	)
	return &domain.RegisterDeviceResponse{Registered: record.IsActive, DeviceID: deviceID}, nil
}

// validateToken gives the Expo check three tries with a linearly growing
// pause, covering the window where a freshly minted token has not started
// resolving yet. A definitive rejection is not retried.
func (s *DeviceService) validateToken(ctx context.Context, token string) bool {
	var lastErr error
	for attempt := 1; attempt <= tokenValidationAttempts; attempt++ {
		err := s.push.ValidateToken(ctx, token)
		if err == nil {
			return true
		}
		lastErr = err

		var rejected *domain.ErrValidation
		if errors.As(err, &rejected) {
			break
		}
		if attempt < tokenValidationAttempts {
			s.sleep(time.Duration(attempt) * time.Second)
		}
	}
	s.logger.Warn("devices: push token failed validation", zap.Error(lastErr))
	return false
}

// sweepStale deletes registrations unseen for longer than StaleDeviceAge.
// The device being registered right now is always spared.
func (s *DeviceService) sweepStale(ctx context.Context, userID, currentDeviceID string) {
	devices, err := s.devices.ListDevices(ctx, userID)
	if err != nil {
		s.logger.Warn("devices: stale sweep listing failed", zap.String("user_id", userID), zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-domain.StaleDeviceAge)
	for _, d := range devices {
		if d.DeviceID == currentDeviceID || !d.LastSeen.Before(cutoff) {
			continue
		}
		if err := s.devices.DeleteDevice(ctx, d.DeviceID, userID); err != nil {
			s.logger.Warn("devices: stale delete failed",
				zap.String("device_id", d.DeviceID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("stale device removed",
			zap.String("device_id", d.DeviceID),
			zap.Time("last_seen", d.LastSeen),
		)
	}
}

// Unregister clears the push token and deactivates the registration
// (logout or push opt-out). The record itself survives so a later
// re-registration of the same install reuses it; the stale sweep removes
// it if the install never comes back.
func (s *DeviceService) Unregister(ctx context.Context, userID, deviceID string) error {
	ctx, span := tracer.Start(ctx, "DeviceService.Unregister")
	defer span.End()

	if deviceID == "" {
		return &domain.ErrValidation{Field: "deviceId", Message: "identificador do dispositivo é obrigatório"}
	}
	device, err := s.devices.GetDevice(ctx, deviceID, userID)
	if err != nil {
		return err
	}
	device.PushToken = ""
	device.IsActive = false
	return s.devices.UpsertDevice(ctx, device)
}

// Heartbeat refreshes last_seen so the stale sweep keeps the device.
func (s *DeviceService) Heartbeat(ctx context.Context, userID, deviceID string) error {
	ctx, span := tracer.Start(ctx, "DeviceService.Heartbeat")
	defer span.End()

	if deviceID == "" {
		return &domain.ErrValidation{Field: "deviceId", Message: "identificador do dispositivo é obrigatório"}
	}
	if _, err := s.devices.GetDevice(ctx, deviceID, userID); err != nil {
		return err
	}
	return s.devices.TouchDevice(ctx, deviceID, userID, time.Now())
}

// ListDevices returns the user's registrations, most recently seen first.
func (s *DeviceService) ListDevices(ctx context.Context, userID string) ([]domain.DeviceRegistration, error) {
	ctx, span := tracer.Start(ctx, "DeviceService.ListDevices")
	defer span.End()
	return s.devices.ListDevices(ctx, userID)
}
