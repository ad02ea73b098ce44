package enso

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMaxRetriesExceeded is wrapped by the error returned once every transport
// attempt has failed.
var ErrMaxRetriesExceeded = errors.New("enso: max retries exceeded")

// APIError is returned when the API answered with a non-2xx status.
// It is never retried.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("enso api error %d: %s", e.StatusCode, e.Message)
	}
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("enso api error %d", e.StatusCode)
	}
	return fmt.Sprintf("enso api error %d: %s", e.StatusCode, b)
}

// Temporary reports whether the server side failed (5xx) rather than the request.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	var parsed struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return apiErr
	}

	// NestJS validation errors carry message as a list of strings.
	var msg string
	if err := json.Unmarshal(parsed.Message, &msg); err == nil {
		apiErr.Message = msg
	} else {
		var msgs []string
		if err := json.Unmarshal(parsed.Message, &msgs); err == nil {
			apiErr.Message = strings.Join(msgs, "; ")
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = parsed.Error
	}
	return apiErr
}
