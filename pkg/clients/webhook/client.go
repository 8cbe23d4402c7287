package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/cryptoants/internal/config"
	"github.com/mamadbah2/cryptoants/internal/domain/models"
)

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Cryptoants-Signature"

// Client forwards ledger events to a subscriber endpoint.
type Client interface {
	RecordEvent(ctx context.Context, event models.LedgerEvent) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	url        string
	secret     []byte
}

// NewClient builds a webhook client using the provided configuration values.
func NewClient(cfg config.WebhookConfig) *APIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "cryptoants-webhook/1").
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)

	return &APIClient{
		httpClient: restyClient,
		url:        cfg.URL,
		secret:     []byte(cfg.Secret),
	}
}

// deliveryError represents an error body returned by the subscriber.
type deliveryError struct {
	Error string `json:"error"`
}

// RecordEvent posts the event as JSON.
func (c *APIClient) RecordEvent(ctx context.Context, event models.LedgerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode ledger event: %w", err)
	}

	apiErr := new(deliveryError)
	req := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		SetError(apiErr)
	if len(c.secret) > 0 {
		req.SetHeader(SignatureHeader, Sign(c.secret, body))
	}

	resp, err := req.Post(c.url)
	if err != nil {
		return fmt.Errorf("deliver ledger event %d: %w", event.Seq, err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("webhook error: code=%d, message=%s", resp.StatusCode(), apiErr.Error)
	}

	return nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
