package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Device registrations
// ============================================================

// UpsertDevice creates or replaces the record keyed by (device_id, user_id).
func (c *Client) UpsertDevice(ctx context.Context, d *domain.DeviceRegistration) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertDevice")
	defer span.End()
	span.SetAttributes(attribute.String("device.id", d.DeviceID))

	data := map[string]any{
		"device_id":  d.DeviceID,
		"user_id":    d.UserID,
		"push_token": d.PushToken,
		"platform":   d.Platform,
		"is_active":  d.IsActive,
		"last_seen":  d.LastSeen.Format(time.RFC3339),
	}
	if !d.RegisteredAt.IsZero() {
		data["registered_at"] = d.RegisteredAt.Format(time.RFC3339)
	}

	_, err := c.doUpsert(ctx, "devices", "device_id,user_id", data)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/devices", Err: err}
	}
	return nil
}

func (c *Client) GetDevice(ctx context.Context, deviceID, userID string) (*domain.DeviceRegistration, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDevice")
	defer span.End()

	path := fmt.Sprintf("devices?device_id=eq.%s&user_id=eq.%s&limit=1", deviceID, userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/devices", Err: err}
	}

	var rows []domain.DeviceRegistration
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode device: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "device", ID: deviceID}
	}
	return &rows[0], nil
}

func (c *Client) ListDevices(ctx context.Context, userID string) ([]domain.DeviceRegistration, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDevices")
	defer span.End()

	path := fmt.Sprintf("devices?user_id=eq.%s&order=last_seen.desc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/devices", Err: err}
	}

	var rows []domain.DeviceRegistration
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode devices: %w", err)
		}
	}
	return rows, nil
}

// ListActiveDevices returns devices that can receive push messages.
func (c *Client) ListActiveDevices(ctx context.Context, userID string) ([]domain.DeviceRegistration, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActiveDevices")
	defer span.End()

	path := fmt.Sprintf("devices?user_id=eq.%s&is_active=eq.true&push_token=neq.&order=last_seen.desc", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/devices", Err: err}
	}

	var rows []domain.DeviceRegistration
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode devices: %w", err)
		}
	}
	return rows, nil
}

func (c *Client) DeleteDevice(ctx context.Context, deviceID, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteDevice")
	defer span.End()

	path := fmt.Sprintf("devices?device_id=eq.%s&user_id=eq.%s", deviceID, userID)
	return c.doDelete(ctx, path)
}

func (c *Client) TouchDevice(ctx context.Context, deviceID, userID string, seen time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.TouchDevice")
	defer span.End()

	path := fmt.Sprintf("devices?device_id=eq.%s&user_id=eq.%s", deviceID, userID)
	return c.doPatch(ctx, path, map[string]any{
		"last_seen": seen.Format(time.RFC3339),
		"is_active": true,
	})
}
