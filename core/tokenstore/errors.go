package tokenstore

import "errors"

var (
	// ErrNotFound is returned when a key is absent from the store.
	ErrNotFound = errors.New("token store key not found")

	// ErrUnavailable wraps backend failures (disk errors, Redis outages,
	// corrupt state files). Callers treat it as "value absent" after logging.
	ErrUnavailable = errors.New("token store backend unavailable")
)
