package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Client posts JSON to a service and decodes JSON replies.
type Client struct {
	BaseURL string
	APIKey  string

	// Attempts is the total number of tries per call (default 3).
	Attempts uint
	// Delay is the base backoff between attempts (default 500ms).
	Delay time.Duration

	HTTPClient *http.Client
}

// StatusError reports a non-2xx reply.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Post sends body to BaseURL+path and decodes the reply into out (if non-nil).
// Network errors, 429 and 5xx replies are retried; other 4xx replies are not.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	if c.BaseURL == "" {
		return fmt.Errorf("httpjson: base URL required")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	url := strings.TrimRight(c.BaseURL, "/") + path

	return retry.Do(
		func() error {
			err := c.send(ctx, url, payload, out)
			if se, ok := err.(*StatusError); ok && !se.Retryable() {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts()),
		retry.Delay(c.delay()),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

func (c *Client) send(ctx context.Context, url string, payload []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return retry.Unrecoverable(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (c *Client) attempts() uint {
	if c.Attempts == 0 {
		return 3
	}
	return c.Attempts
}

func (c *Client) delay() time.Duration {
	if c.Delay <= 0 {
		return 500 * time.Millisecond
	}
	return c.Delay
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}
