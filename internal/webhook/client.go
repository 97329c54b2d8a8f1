// Package webhook posts the run summary to an optional notification endpoint.
// Delivery is best effort: failures are reported to the caller but must never
// change the orchestrator's exit code.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Config holds the notification endpoint configuration.
type Config struct {
	URL       string
	AuthType  string // none, bearer, api-key
	AuthToken string
	Timeout   time.Duration // overall budget including retries
}

// Client delivers JSON payloads with exponential-backoff retry.
type Client struct {
	httpClient *http.Client
	config     *Config
	retry      *RetryPolicy
}

// NewClient creates a webhook client. A nil retry policy uses defaults.
func NewClient(config *Config, retry *RetryPolicy) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if retry == nil {
		retry = DefaultRetryPolicy()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		config:     config,
		retry:      retry,
	}
}

// Send POSTs the payload as JSON, retrying transient failures until the
// overall timeout or the retry budget is exhausted.
func (c *Client) Send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.backoff(attempt)
			slog.Debug("webhook retry", "attempt", attempt, "max", c.retry.MaxRetries, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("webhook timed out after %d attempts: %w", attempt, lastErr)
			}
		}

		lastErr = c.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("webhook failed after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	switch c.config.AuthType {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	case "api-key":
		req.Header.Set("X-API-Key", c.config.AuthToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &transientError{err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	statusErr := fmt.Errorf("webhook returned status %d", resp.StatusCode)
	if isRetryableStatus(resp.StatusCode) {
		return &transientError{err: statusErr}
	}
	return statusErr
}

// transientError marks a failure worth retrying.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	_, ok := err.(*transientError)
	return ok
}
