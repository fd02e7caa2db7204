package tokenstore

import "context"

// Storage keys for the session state. Names are stable across releases
// because FileStore and RedisStore persist them verbatim.
const (
	KeyAccessToken  = "auth.access_token"
	KeyRefreshToken = "auth.refresh_token"
	KeySessionID    = "auth.session_id"
	KeyUser         = "auth.user"
)

// SessionKeys returns every key that makes up one logical session.
// ClearAll implementations must remove all of them as a single unit;
// a partial clear is a defect.
func SessionKeys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeySessionID, KeyUser}
}

// Store is the persistence contract for client-side auth state.
// Implementations must be safe for concurrent use and must never panic;
// backend failures are reported as errors wrapping ErrUnavailable.
type Store interface {
	// Get returns the value for the key, or an error wrapping ErrNotFound
	// when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value under the key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// ClearAll removes every session key as one conceptual unit.
	ClearAll(ctx context.Context) error
}
