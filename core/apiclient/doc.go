// Package apiclient is the single outbound HTTP pipeline for the remote API.
// Every call site in the module depends on one Client instance instead of
// constructing its own transport, so header injection and the 401 recovery
// protocol live in exactly one place.
//
// # Request pipeline
//
// Each outbound request gets, when available:
//   - "Authorization: Bearer <access token>" from the credential source
//   - the session correlation header (default "X-Session-ID")
//   - a generated "X-Request-ID" per attempt
//
// Each inbound response that carries a session correlation header updates the
// credential source before the caller sees the result.
//
// # 401 recovery
//
// A 401 response triggers at most one transparent refresh-and-retry per
// logical request. Concurrent 401s share a single in-flight refresh through
// singleflight, so a burst of failing requests cannot cause a refresh storm.
// When the refresh itself fails, the configured refresher owns session
// teardown; the client just surfaces ErrUnauthorized.
//
// # Error classification
//
// Non-2xx responses are decoded into *APIError (status, machine-readable
// code, message, per-field validation errors, rate-limit hint). Transport
// failures wrap ErrNetwork. Retry policy for non-401 failures is the caller's
// concern, not this layer's.
package apiclient
