package authsession

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/evalhub/authcore/core/apiclient"
)

// Kind is the closed taxonomy of auth failures surfaced to the UI layer.
// Callers match on Kind; no remote API error shape leaks past this package.
type Kind int

const (
	// KindUnknown covers anything the classifier cannot place.
	KindUnknown Kind = iota

	// KindInvalidCredentials: the email/password or 2FA code was rejected.
	KindInvalidCredentials

	// KindRateLimited: too many attempts; RetryAfter carries the server hint.
	KindRateLimited

	// KindAccountLocked: the account is locked and cannot sign in.
	KindAccountLocked

	// KindEmailUnverified: the account exists but its email is unverified.
	KindEmailUnverified

	// KindValidationFailed: the payload failed validation; Fields has details.
	KindValidationFailed

	// KindNetwork: the request never produced an HTTP response.
	KindNetwork

	// KindSessionExpired: the session could not be refreshed and was cleared.
	KindSessionExpired
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindInvalidCredentials: "invalid_credentials",
	KindRateLimited:        "rate_limited",
	KindAccountLocked:      "account_locked",
	KindEmailUnverified:    "email_unverified",
	KindValidationFailed:   "validation_failed",
	KindNetwork:            "network",
	KindSessionExpired:     "session_expired",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ErrSessionClosed is returned when a refresh settles after the session it
// belonged to was logged out. The result is discarded, never persisted.
var ErrSessionClosed = errors.New("session closed while refresh was in flight")

// AuthError is the typed error returned by every Controller operation.
type AuthError struct {
	Kind    Kind
	Message string

	// Fields carries per-field validation messages for KindValidationFailed.
	Fields map[string]string

	// RetryAfter carries the rate-limit hint for KindRateLimited.
	RetryAfter time.Duration

	cause error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth error (%s): %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("auth error (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error {
	return e.cause
}

// Classify maps transport and HTTP errors from the API client onto the closed
// Kind taxonomy. Machine-readable codes win over raw status codes so the
// remote API can refine semantics without a client release.
func Classify(err error) *AuthError {
	if err == nil {
		return nil
	}

	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		out := &AuthError{Message: apiErr.Message, cause: err}

		switch apiErr.Code {
		case "invalid_credentials", "invalid_2fa_code":
			out.Kind = KindInvalidCredentials
			return out
		case "account_locked":
			out.Kind = KindAccountLocked
			return out
		case "email_unverified":
			out.Kind = KindEmailUnverified
			return out
		case "rate_limited":
			out.Kind = KindRateLimited
			out.RetryAfter = apiErr.RetryAfter
			return out
		case "validation_failed":
			out.Kind = KindValidationFailed
			out.Fields = apiErr.Fields
			return out
		}

		switch apiErr.Status {
		case http.StatusUnauthorized:
			out.Kind = KindInvalidCredentials
		case http.StatusLocked:
			out.Kind = KindAccountLocked
		case http.StatusTooManyRequests:
			out.Kind = KindRateLimited
			out.RetryAfter = apiErr.RetryAfter
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			out.Kind = KindValidationFailed
			out.Fields = apiErr.Fields
		default:
			out.Kind = KindUnknown
		}
		return out
	}

	if errors.Is(err, apiclient.ErrNetwork) {
		return &AuthError{Kind: KindNetwork, Message: "request failed before reaching the server", cause: err}
	}

	return &AuthError{Kind: KindUnknown, Message: err.Error(), cause: err}
}

// expiredError builds the AuthError for an unrecoverable refresh failure.
func expiredError(cause error) *AuthError {
	return &AuthError{Kind: KindSessionExpired, Message: "session expired", cause: cause}
}
