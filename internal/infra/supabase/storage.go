package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/adotaqui/adotaqui-backend/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Object storage (Supabase Storage)
// ============================================================

// Upload streams an object into the configured bucket and returns its
// public URL. Paths are namespaced by the caller (e.g. pets/<id>/<file>).
func (c *Client) Upload(ctx context.Context, path, contentType string, r io.Reader, size int64) (*domain.UploadResult, error) {
	ctx, span := tracer.Start(ctx, "Supabase.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("storage.path", path),
		attribute.Int64("storage.size", size),
	)

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.storageBucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, r)
	if err != nil {
		return nil, err
	}
	req.ContentLength = size

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", contentType)
	// Overwrite on re-upload of the same path
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: storage upload failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "supabase/storage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		c.logger.Warn("supabase: storage upload non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, &domain.ErrExternalService{
			Service: "supabase/storage",
			Err:     fmt.Errorf("upload returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	c.logger.Info("supabase: object uploaded",
		zap.String("path", path),
		zap.Int64("size", size),
	)

	return &domain.UploadResult{
		Path:      path,
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.storageBucket, path),
	}, nil
}

// Delete removes an object from the bucket.
func (c *Client) Delete(ctx context.Context, path string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteObject")
	defer span.End()

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.storageBucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: storage delete failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return &domain.ErrExternalService{Service: "supabase/storage", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		return &domain.ErrExternalService{
			Service: "supabase/storage",
			Err:     fmt.Errorf("delete returned %d: %s", resp.StatusCode, string(body)),
		}
	}
	return nil
}
