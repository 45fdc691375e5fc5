package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Auth (GoTrue password grant)
// ============================================================

// Reauthenticate replays the password grant against Supabase Auth. Used
// before destructive actions (account deletion) to confirm the caller still
// holds the credentials, not just a token.
func (c *Client) Reauthenticate(ctx context.Context, email, password string) error {
	ctx, span := tracer.Start(ctx, "Supabase.Reauthenticate")
	defer span.End()

	payload, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/auth/v1/token?grant_type=password", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	// Auth endpoints take the anon key, not the service role
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: reauthentication request failed", zap.Error(err))
		return &domain.ErrExternalService{Service: "supabase/auth", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized:
		c.logger.Warn("supabase: reauthentication rejected", zap.Int("status", resp.StatusCode))
		return &domain.ErrUnauthorized{Message: "senha incorreta"}
	default:
		body, _ := readBody(resp)
		return &domain.ErrExternalService{
			Service: "supabase/auth",
			Err:     fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, string(body)),
		}
	}
}
