// Package asaas implements the PIX payment gateway port against the Asaas
// REST API. All calls carry the account API key in the access_token header.
package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("asaas")

// Client talks to the Asaas payments API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewClient creates an Asaas client. baseURL points at the sandbox or
// production API root (ending in /api/v3).
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		jsonBody, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("asaas: request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, &domain.ErrExternalService{Service: "asaas", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "asaas", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("asaas: non-2xx response",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &domain.ErrExternalService{
			Service: "asaas",
			Err:     fmt.Errorf("%s %s returned %d: %s", method, path, resp.StatusCode, string(respBody)),
		}
	}

	c.logger.Debug("asaas: request OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

// CreateCustomer registers (or reuses) a customer record for a donor.
// Asaas requires a customer before any payment can be created.
func (c *Client) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	ctx, span := tracer.Start(ctx, "Asaas.CreateCustomer")
	defer span.End()

	body, err := c.do(ctx, http.MethodPost, "/customers", map[string]string{
		"name":  name,
		"email": email,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode customer: %w", err)
	}
	if out.ID == "" {
		return "", &domain.ErrExternalService{Service: "asaas", Err: fmt.Errorf("customer response missing id")}
	}
	return out.ID, nil
}

// CreatePixPayment creates a PIX charge due today and fetches its copy-paste
// payload and QR code image.
func (c *Client) CreatePixPayment(ctx context.Context, customerID string, amount float64, description string) (*port.PixPayment, error) {
	ctx, span := tracer.Start(ctx, "Asaas.CreatePixPayment")
	defer span.End()
	span.SetAttributes(attribute.Float64("payment.amount", amount))

	body, err := c.do(ctx, http.MethodPost, "/payments", map[string]any{
		"customer":    customerID,
		"billingType": "PIX",
		"value":       amount,
		"description": description,
		"dueDate":     time.Now().Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	var created struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Value  float64 `json:"value"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}

	payment := &port.PixPayment{
		ID:     created.ID,
		Status: created.Status,
		Amount: created.Value,
	}

	// The QR code lives behind a second call. A payment without a QR code is
	// still usable (the app can poll), so log and continue on failure.
	qrBody, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/payments/%s/pixQrCode", created.ID), nil)
	if err != nil {
		c.logger.Warn("asaas: QR code fetch failed, returning payment without it",
			zap.String("payment_id", created.ID),
			zap.Error(err),
		)
		return payment, nil
	}

	var qr struct {
		Payload      string `json:"payload"`
		EncodedImage string `json:"encodedImage"`
	}
	if err := json.Unmarshal(qrBody, &qr); err != nil {
		return nil, fmt.Errorf("decode pix qr code: %w", err)
	}
	payment.PixPayload = qr.Payload
	payment.QRCodeImage = qr.EncodedImage
	return payment, nil
}

// GetPayment looks up the current gateway status of a payment.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*port.PixPayment, error) {
	ctx, span := tracer.Start(ctx, "Asaas.GetPayment")
	defer span.End()
	span.SetAttributes(attribute.String("payment.id", paymentID))

	body, err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Value  float64 `json:"value"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode payment: %w", err)
	}
	return &port.PixPayment{ID: out.ID, Status: out.Status, Amount: out.Value}, nil
}

// GetBalance returns the account balance available for transfers.
func (c *Client) GetBalance(ctx context.Context) (float64, error) {
	ctx, span := tracer.Start(ctx, "Asaas.GetBalance")
	defer span.End()

	body, err := c.do(ctx, http.MethodGet, "/finance/balance", nil)
	if err != nil {
		return 0, err
	}

	var out struct {
		Balance float64 `json:"balance"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode balance: %w", err)
	}
	return out.Balance, nil
}

// CreatePixTransfer sends a PIX transfer to an external key.
func (c *Client) CreatePixTransfer(ctx context.Context, pixKey string, amount float64, description string) (string, error) {
	ctx, span := tracer.Start(ctx, "Asaas.CreatePixTransfer")
	defer span.End()
	span.SetAttributes(attribute.Float64("transfer.amount", amount))

	body, err := c.do(ctx, http.MethodPost, "/transfers", map[string]any{
		"operationType": "PIX",
		"pixAddressKey": pixKey,
		"value":         amount,
		"description":   description,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode transfer: %w", err)
	}
	return out.ID, nil
}
