package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// retryStep is the linear backoff unit between delivery attempts.
const retryStep = 200 * time.Millisecond

// maxErrorBody bounds how much of an error response is echoed into the returned error.
const maxErrorBody = 4 << 10

// Delivery posts JSON bodies to a webhook-style endpoint with linear retry.
type Delivery struct {
	Name       string // used in error messages, e.g. "slack webhook"
	URL        string
	Client     *http.Client
	RetryLimit int
}

// Post sends body, retrying up to RetryLimit times on transport errors and non-2xx replies.
func (d Delivery) Post(ctx context.Context, body []byte) error {
	attempts := max(d.RetryLimit, 0) + 1
	var lastErr error
	for attempt := range attempts {
		lastErr = d.once(ctx, body)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * retryStep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (d Delivery) once(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", d.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", d.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr != nil {
			return errors.Join(
				fmt.Errorf("%s %s", d.Name, resp.Status),
				fmt.Errorf("read error response: %w", readErr),
			)
		}
		return fmt.Errorf("%s %s: %s", d.Name, resp.Status, strings.TrimSpace(string(msg)))
	}

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return fmt.Errorf("drain %s response body: %w", d.Name, err)
	}
	return nil
}

// Fallback returns value, or fallback when value is blank.
func Fallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
