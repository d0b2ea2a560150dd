// Package zapier delivers finished newsletters to external newsletter
// platforms through per-platform Zapier webhook URLs.
package zapier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Supported export platforms.
const (
	PlatformBeehiiv  = "beehiiv"
	PlatformSubstack = "substack"
)

var (
	// ErrNotConfigured is returned when the platform's webhook URL is not set.
	ErrNotConfigured = errors.New("zapier: platform webhook not configured")
	// ErrUnknownPlatform is returned for platforms this client cannot deliver to.
	ErrUnknownPlatform = errors.New("zapier: unknown platform")
)

// APIError is a non-2xx response from the webhook target.
type APIError struct {
	Platform   string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zapier %s webhook returned status: %d", e.Platform, e.StatusCode)
}

// ExportPayload is the document sent to the newsletter platform.
type ExportPayload struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	AuthorEmail string `json:"author_email"`
	CreatedAt   string `json:"created_at"`
}

// Config holds the per-platform webhook URLs.
type Config struct {
	BeehiivURL  string
	SubstackURL string
}

// Client publishes newsletters to configured platforms. Delivery is binary:
// a 2xx response is success, anything else is an error. No retries.
type Client struct {
	urls   map[string]string
	client *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.client = httpClient
		}
	}
}

// NewClient creates an export client.
func NewClient(cfg Config, opts ...Option) *Client {
	c := &Client{
		urls: map[string]string{
			PlatformBeehiiv:  cfg.BeehiivURL,
			PlatformSubstack: cfg.SubstackURL,
		},
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Publish posts the payload to the platform's webhook.
func (c *Client) Publish(ctx context.Context, platform string, payload ExportPayload) error {
	url, ok := c.urls[platform]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	if url == "" {
		return fmt.Errorf("%w: %s", ErrNotConfigured, platform)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("zapier: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("zapier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("zapier: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Platform: platform, StatusCode: resp.StatusCode}
	}
	return nil
}
