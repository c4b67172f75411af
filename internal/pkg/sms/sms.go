// Package sms delivers text messages through an HTTP SMS gateway. The OTP
// core sends through the Sender interface; only wiring knows the gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultTimeout = 15 * time.Second

// ErrAPIKeyMissing is returned when the gateway API key is not configured.
var ErrAPIKeyMissing = errors.New("sms: api key not configured")

// Sender delivers a text message to an E.164 phone number.
type Sender interface {
	// Send dispatches message to phone; an error means the gateway did not
	// accept it.
	Send(ctx context.Context, phone, message string) error
}

// GatewayClient sends messages through a JSON-over-HTTP SMS gateway
// (route/numbers/message body, API key in the Authorization header).
type GatewayClient struct {
	apiKey     string
	baseURL    string
	sender     string
	httpClient *http.Client
}

// GatewayConfig configures the gateway client.
type GatewayConfig struct {
	APIKey string
	// BaseURL is the gateway endpoint.
	BaseURL string
	// Sender is the optional sender ID shown to the recipient.
	Sender string
	// Timeout bounds each request; defaults to 15s.
	Timeout time.Duration
}

// NewGatewayClient builds a gateway client.
func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &GatewayClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		sender:     cfg.Sender,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Send posts the message to the gateway. The message content is never logged.
func (c *GatewayClient) Send(ctx context.Context, phone, message string) error {
	if c.apiKey == "" {
		return ErrAPIKeyMissing
	}

	payload := map[string]any{
		"route":   "transactional",
		"numbers": phone,
		"message": message,
	}
	if c.sender != "" {
		payload["sender"] = c.sender
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms: gateway rejected request status=%d body=%s", resp.StatusCode, string(b))
	}

	return nil
}
