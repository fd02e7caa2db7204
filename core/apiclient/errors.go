package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrNetwork wraps transport-level failures: DNS, connect, TLS, timeout.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized is returned for a 401 that survived the refresh-retry
	// protocol (or was not eligible for it).
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is the classified form of a non-2xx response. Callers match on
// Status and Code instead of probing response bodies.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Code is the machine-readable error code from the response envelope,
	// e.g. "invalid_credentials" or "account_locked". May be empty.
	Code string

	// Message is the human-readable error message, if any.
	Message string

	// Fields maps field names to validation messages for 400/422 responses.
	Fields map[string]string

	// RetryAfter is the server's rate-limit hint from the Retry-After
	// header or envelope, zero when absent.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// errorEnvelope matches the remote API's error body:
// {"error": {"code": "...", "message": "...", "fields": {...}, "retry_after": 30}}
// with a flat {"message": "..."} fallback for older endpoints.
type errorEnvelope struct {
	Error struct {
		Code       string            `json:"code"`
		Message    string            `json:"message"`
		Fields     map[string]string `json:"fields"`
		RetryAfter int64             `json:"retry_after"`
	} `json:"error"`
	Message string `json:"message"`
}

// classify builds an *APIError from a non-2xx response. It never fails:
// undecodable bodies produce an error with status only.
func classify(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Fields = envelope.Error.Fields
		if apiErr.Message == "" {
			apiErr.Message = envelope.Message
		}
		if envelope.Error.RetryAfter > 0 {
			apiErr.RetryAfter = time.Duration(envelope.Error.RetryAfter) * time.Second
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	if apiErr.RetryAfter == 0 {
		if header := resp.Header.Get("Retry-After"); header != "" {
			if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
				apiErr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
	}

	return apiErr
}
