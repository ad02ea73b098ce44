package enso

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

type request struct {
	method string
	path   string
	query  url.Values
	body   any
}

// transportError marks a failure where no response was received.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// do performs req and decodes the JSON response into out (if non-nil).
// Only transport failures are retried; API and local errors return at once.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var payload []byte
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("enso: marshal request body: %w", err)
		}
		payload = b
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt - 1)
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  req.method,
				"path":    req.path,
				"error":   lastErr,
			}).Debug("retrying enso request")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("enso: rate limiter: %w", err)
			}
		}

		body, err := c.send(ctx, req.method, u, payload)
		if err != nil {
			te, ok := err.(*transportError)
			if !ok {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			lastErr = te.err
			continue
		}

		if out == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if raw, ok := out.(*rawBody); ok {
			*raw = append((*raw)[:0], body...)
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("enso: decode %s %s response: %w", req.method, req.path, err)
		}
		return nil
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrMaxRetriesExceeded, c.maxRetries+1, lastErr)
}

func (c *Client) send(ctx context.Context, method, u string, payload []byte) ([]byte, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("enso: create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("enso: read response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, newAPIError(res.StatusCode, body)
	}
	return body, nil
}
