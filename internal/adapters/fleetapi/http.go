package fleetapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"evfleet-console/internal/ports"
)

type httpStatusError struct {
	Code    int
	Message string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Code, e.Message)
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	if auth := c.session.Authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code:    resp.StatusCode,
			Message: extractMessage(b),
		}
	}
	return resp, nil
}

// extractMessage pulls a human-readable error out of the server's error
// body: {"messages": [...]}, {"message": "..."} or {"error": "..."}, falling
// back to the raw body.
func extractMessage(body []byte) string {
	var envelope struct {
		Messages []string `json:"messages"`
		Message  string   `json:"message"`
		Error    string   `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if len(envelope.Messages) > 0 {
			return envelope.Messages[0]
		}
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// normalize maps transport failures onto the error taxonomy. A 401
// invalidates the session; other 4xx become RemoteRejected; 5xx and network
// failures become Transient.
func (c *Client) normalize(err error) error {
	var he *httpStatusError
	if errors.As(err, &he) {
		if he.Code == http.StatusUnauthorized {
			c.session.Invalidate()
			c.log.Warn().Msg("authorization failure, session invalidated")
		}
		if he.Code >= 400 && he.Code < 500 {
			return &ports.RemoteRejectedError{Status: he.Code, Message: he.Message}
		}
		return &ports.TransientError{Err: he}
	}
	return &ports.TransientError{Err: err}
}

// getJSON performs a retried GET and decodes the response body into v.
// Retries cover 429, 5xx and network errors with exponential backoff while
// respecting context cancellation.
func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		req, err := c.newRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := c.do(req)
		if err == nil {
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}
		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return c.normalize(lastErr)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return c.normalize(lastErr)
}

// mutate sends a single, never-retried mutating request. When v is non-nil
// the response body is decoded into it.
func (c *Client) mutate(ctx context.Context, method, url string, body any, v any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, url, reader)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return c.normalize(err)
	}
	defer resp.Body.Close()

	if v == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
