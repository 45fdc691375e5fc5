// Package push implements the push sender port against the Expo push API.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/adotaqui/adotaqui-backend/internal/domain"
	"github.com/adotaqui/adotaqui-backend/internal/infra/observability"
	"github.com/adotaqui/adotaqui-backend/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("push")

// Expo pushes in chunks of at most 100 messages per request.
const maxChunk = 100

// ExpoSender delivers push messages through the Expo push service.
type ExpoSender struct {
	httpClient *http.Client
	sendURL    string
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewExpoSender creates an Expo push sender. The bulkhead caps concurrent
// outbound requests so a notification burst cannot starve the HTTP client.
func NewExpoSender(httpClient *http.Client, sendURL string, bulkhead *resilience.Bulkhead, metrics *observability.Metrics, logger *zap.Logger) *ExpoSender {
	return &ExpoSender{
		httpClient: httpClient,
		sendURL:    sendURL,
		bulkhead:   bulkhead,
		metrics:    metrics,
		logger:     logger,
	}
}

type expoMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title,omitempty"`
	Body  string            `json:"body,omitempty"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

type expoTicket struct {
	Status  string `json:"status"` // ok | error
	Message string `json:"message,omitempty"`
	Details struct {
		Error string `json:"error,omitempty"` // DeviceNotRegistered, ...
	} `json:"details,omitempty"`
}

// Send delivers the message to all tokens and returns the tokens Expo
// reported as no longer registered, so callers can deactivate the devices.
func (s *ExpoSender) Send(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Expo.Send")
	defer span.End()
	span.SetAttributes(attribute.Int("push.tokens", len(tokens)))

	if len(tokens) == 0 {
		return nil, nil
	}

	var invalid []string
	for start := 0; start < len(tokens); start += maxChunk {
		end := start + maxChunk
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		bad, err := s.sendChunk(ctx, chunk, title, body, data)
		if err != nil {
			s.metrics.IncrPush("failed")
			return invalid, err
		}
		invalid = append(invalid, bad...)
	}

	s.metrics.IncrPush("ok")
	return invalid, nil
}

func (s *ExpoSender) sendChunk(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	messages := make([]expoMessage, 0, len(tokens))
	for _, t := range tokens {
		messages = append(messages, expoMessage{
			To:    t,
			Title: title,
			Body:  body,
			Sound: "default",
			Data:  data,
		})
	}

	jsonBody, err := json.Marshal(messages)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("expo: send request failed", zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "expo", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "expo", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("expo: non-2xx response",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		return nil, &domain.ErrExternalService{
			Service: "expo",
			Err:     fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var out struct {
		Data []expoTicket `json:"data"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode push tickets: %w", err)
	}

	// Tickets come back in request order
	var invalid []string
	for i, ticket := range out.Data {
		if ticket.Status == "ok" || i >= len(tokens) {
			continue
		}
		s.logger.Warn("expo: push rejected",
			zap.String("error", ticket.Details.Error),
			zap.String("message", ticket.Message),
		)
		if ticket.Details.Error == "DeviceNotRegistered" {
			invalid = append(invalid, tokens[i])
		}
	}
	return invalid, nil
}

// ValidateToken checks the token shape locally, then asks Expo to resolve
// it with a data-only message, which delivers nothing visible to the
// device. A token Expo reports as DeviceNotRegistered fails with a
// validation error; transport trouble comes back as ErrExternalService so
// callers can retry once Expo is reachable again.
func (s *ExpoSender) ValidateToken(ctx context.Context, token string) error {
	ctx, span := tracer.Start(ctx, "Expo.ValidateToken")
	defer span.End()

	if !strings.HasPrefix(token, "ExponentPushToken[") || !strings.HasSuffix(token, "]") || len(token) <= len("ExponentPushToken[]") {
		return &domain.ErrValidation{Field: "push_token", Message: "token fora do formato Expo"}
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer s.bulkhead.Release()

	jsonBody, err := json.Marshal([]expoMessage{{
		To:   token,
		Data: map[string]string{"type": "token_check"},
	}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sendURL, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("expo: token check request failed", zap.Error(err))
		return &domain.ErrExternalService{Service: "expo", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.ErrExternalService{Service: "expo", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.ErrExternalService{
			Service: "expo",
			Err:     fmt.Errorf("token check returned %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var out struct {
		Data []expoTicket `json:"data"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return fmt.Errorf("decode token check ticket: %w", err)
	}
	if len(out.Data) == 0 {
		return &domain.ErrExternalService{Service: "expo", Err: fmt.Errorf("no ticket for token check")}
	}

	ticket := out.Data[0]
	if ticket.Status == "ok" {
		return nil
	}
	if ticket.Details.Error == "DeviceNotRegistered" {
		return &domain.ErrValidation{Field: "push_token", Message: "token não registrado no Expo"}
	}
	// Anything else (rate limits, service hiccups) may clear up on retry.
	return &domain.ErrExternalService{
		Service: "expo",
		Err:     fmt.Errorf("token check rejected: %s %s", ticket.Details.Error, ticket.Message),
	}
}
