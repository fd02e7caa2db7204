// Package authsession orchestrates the client-side authentication lifecycle
// for the assessment platform: login, registration, two-factor completion,
// logout, and silent token refresh.
//
// # State machine
//
// The Controller moves through five states:
//
//	anonymous -> authenticating -> authenticated
//	                            -> two_factor_pending -> authenticated
//	authenticated -> expired (refresh failure)
//	any state     -> anonymous (logout)
//
// # Session teardown
//
// Refresh failure is the single unconditional termination path: the token
// store is cleared as a unit and the auth-expired signal fires exactly once.
// UI shells and the route guard subscribe via OnExpired to downgrade
// already-rendered protected views immediately. Explicit logout clears state
// without firing the signal, since the user initiated it.
//
// # Concurrency
//
// At most one refresh is in flight per controller; concurrent triggers
// (including the API client's 401 recovery) share its result through
// singleflight. A logout that races an in-flight refresh wins: the refresh
// result is discarded and storage stays cleared.
//
// # Errors
//
// Every operation returns *AuthError with a closed Kind taxonomy
// (invalid credentials, rate limited, account locked, email unverified,
// validation failed, network, session expired, unknown). Callers switch on
// Kind instead of probing transport errors or response bodies.
package authsession
