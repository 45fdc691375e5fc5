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
// Donations
// ============================================================

func (c *Client) CreateDonation(ctx context.Context, d *domain.Donation) (*domain.Donation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDonation")
	defer span.End()
	span.SetAttributes(attribute.String("ong.id", d.ONGID))

	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Status == "" {
		d.Status = domain.DonationPending
	}

	data := map[string]any{
		"id":                  d.ID,
		"ong_id":              d.ONGID,
		"ong_name":            d.ONGName,
		"donor_name":          d.DonorName,
		"donor_email":         d.DonorEmail,
		"amount":              d.Amount,
		"pix_key":             d.PixKey,
		"external_payment_id": d.ExternalPaymentID,
		"status":              d.Status,
	}

	body, err := c.doPost(ctx, "donations", data)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/donations", Err: err}
	}

	var rows []domain.Donation
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode donations: %w", err)
	}
	if len(rows) == 0 {
		return d, nil
	}
	return &rows[0], nil
}

func (c *Client) GetDonation(ctx context.Context, donationID string) (*domain.Donation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDonation")
	defer span.End()

	path := fmt.Sprintf("donations?id=eq.%s&limit=1", donationID)
	body, err := c.doRequest(ctx, http.MethodGet, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/donations", Err: err}
	}

	var rows []domain.Donation
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode donation: %w", err)
		}
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "donation", ID: donationID}
	}
	return &rows[0], nil
}

func (c *Client) ListDonationsByONG(ctx context.Context, ongID string) ([]domain.Donation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDonationsByONG")
	defer span.End()

	path := fmt.Sprintf("donations?ong_id=eq.%s&order=created_at.desc&limit=100", ongID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/donations", Err: err}
	}

	var rows []domain.Donation
	if body != nil {
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode donations: %w", err)
		}
	}
	return rows, nil
}

// UpdateDonationStatus persists the mapped status unconditionally, even when
// it did not change. The reconciler relies on this being a plain overwrite.
func (c *Client) UpdateDonationStatus(ctx context.Context, donationID, status string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDonationStatus")
	defer span.End()
	span.SetAttributes(attribute.String("donation.status", status))

	path := fmt.Sprintf("donations?id=eq.%s", donationID)
	return c.doPatch(ctx, path, map[string]any{
		"status":     status,
		"updated_at": time.Now().Format(time.RFC3339),
	})
}
