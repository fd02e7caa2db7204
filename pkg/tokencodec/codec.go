package tokencodec

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed indicates the input is not a well-formed three-part JWT.
var ErrMalformed = errors.New("token is malformed")

// Claims holds the decoded, UNVERIFIED payload of a bearer token.
// Values are derived on demand and must not be cached by callers, since the
// underlying token may be rotated at any time.
type Claims struct {
	// Subject is the "sub" claim, typically the user ID.
	Subject string

	// ExpiresAt is the "exp" claim converted from seconds since epoch.
	// Zero when the token carries no expiry.
	ExpiresAt time.Time

	// IssuedAt is the "iat" claim converted from seconds since epoch.
	// Zero when absent.
	IssuedAt time.Time

	// Raw is the full claim set as decoded from the payload segment.
	Raw map[string]any
}

var parser = jwt.NewParser()

// Decode parses the token payload without signature verification.
// Returns ErrMalformed for any input that is not a well-formed JWT.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrMalformed
	}

	mapClaims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mapClaims); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}

	claims := &Claims{Raw: mapClaims}

	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}

	return claims, nil
}

// DecodeOrNil is a convenience wrapper around Decode that returns nil instead
// of an error for malformed input.
func DecodeOrNil(token string) *Claims {
	claims, err := Decode(token)
	if err != nil {
		return nil
	}
	return claims
}

// TimeRemaining returns the remaining lifetime of the token.
// Returns zero for unparseable tokens, tokens without an expiry claim,
// and expired tokens; never negative.
func TimeRemaining(token string) time.Duration {
	claims, err := Decode(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return 0
	}

	remaining := time.Until(claims.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the token should be treated as expired.
// True when the token is unparseable, carries no expiry claim, or its expiry
// has passed. Tokens without an expiry are treated as expired so that the
// session layer falls back to a refresh rather than trusting them.
func IsExpired(token string) bool {
	claims, err := Decode(token)
	if err != nil || claims.ExpiresAt.IsZero() {
		return true
	}
	return time.Now().After(claims.ExpiresAt)
}
