package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Account profiles + selection preferences
// ============================================================

func (c *Client) ListProfiles(ctx context.Context, userID string) ([]domain.AccountProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProfiles")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	path := fmt.Sprintf("account_profiles?user_id=eq.%s&is_active=eq.true&order=created_at.asc", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/account_profiles", Err: err}
	}

	var rows []domain.AccountProfile
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode account_profiles: %w", err)
		}
	}
	return rows, nil
}

// UpsertProfile inserts or merges a profile on the unique constraint
// (user_id, type, profile_id). Concurrent resolver calls racing to create
// the same ONG/clinic profile converge on a single row.
func (c *Client) UpsertProfile(ctx context.Context, profile *domain.AccountProfile) (*domain.AccountProfile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertProfile")
	defer span.End()

	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}

	data := map[string]any{
		"id":            profile.ID,
		"user_id":       profile.UserID,
		"type":          profile.Type,
		"profile_id":    profile.ProfileID,
		"profile_name":  profile.ProfileName,
		"profile_image": profile.ProfileImage,
		"is_active":     true,
	}

	body, err := c.doUpsert(ctx, "account_profiles", "user_id,type,profile_id", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/account_profiles", Err: err}
	}

	var rows []domain.AccountProfile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode account_profiles upsert: %w", err)
	}
	if len(rows) == 0 {
		return profile, nil
	}
	return &rows[0], nil
}

// DeactivateProfiles soft-deletes every profile of a user (account deletion).
func (c *Client) DeactivateProfiles(ctx context.Context, userID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeactivateProfiles")
	defer span.End()

	path := fmt.Sprintf("account_profiles?user_id=eq.%s", userID)
	return c.doPatch(ctx, path, map[string]any{
		"is_active":  false,
		"updated_at": time.Now().Format(time.RFC3339),
	})
}

func (c *Client) GetPreference(ctx context.Context, userID string) (*domain.AccountPreference, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetPreference")
	defer span.End()

	path := fmt.Sprintf("account_preferences?user_id=eq.%s&limit=1", userID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/account_preferences", Err: err}
	}

	var rows []domain.AccountPreference
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode account_preferences: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) SavePreference(ctx context.Context, userID, profileID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SavePreference")
	defer span.End()

	data := map[string]any{
		"user_id":             userID,
		"selected_profile_id": profileID,
		"updated_at":          time.Now().Format(time.RFC3339),
	}
	_, err := c.doUpsert(ctx, "account_preferences", "user_id", data)
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/account_preferences", Err: err}
	}
	return nil
}
