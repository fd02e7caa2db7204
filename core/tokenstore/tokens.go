package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/evalhub/authcore/core/logger"
)

// Tokens is a typed facade over a Store. The User type parameter matches the
// application's cached profile shape, stored as JSON under KeyUser.
//
// Read accessors degrade to zero values: a storage failure is logged and
// reported as "absent", never surfaced as an error, because callers use these
// reads to decide between authenticated and anonymous rendering and must
// always get an answer.
type Tokens[User any] struct {
	store Store
	log   *slog.Logger
}

// TokensOption configures the Tokens facade.
type TokensOption func(*tokensConfig)

type tokensConfig struct {
	log *slog.Logger
}

// WithLogger sets the logger for suppressed storage failures.
func WithLogger(log *slog.Logger) TokensOption {
	return func(c *tokensConfig) {
		if log != nil {
			c.log = log
		}
	}
}

// NewTokens wraps a Store with typed session accessors.
func NewTokens[User any](store Store, opts ...TokensOption) *Tokens[User] {
	cfg := &tokensConfig{log: logger.Discard()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Tokens[User]{store: store, log: cfg.log}
}

// AccessToken returns the stored access token, or "" when absent or unreadable.
func (t *Tokens[User]) AccessToken(ctx context.Context) string {
	return t.get(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent or unreadable.
func (t *Tokens[User]) RefreshToken(ctx context.Context) string {
	return t.get(ctx, KeyRefreshToken)
}

// SessionID returns the stored session ID, or "" when absent or unreadable.
func (t *Tokens[User]) SessionID(ctx context.Context) string {
	return t.get(ctx, KeySessionID)
}

// SetSessionID persists the server-issued session correlation ID.
func (t *Tokens[User]) SetSessionID(ctx context.Context, id string) error {
	return t.store.Set(ctx, KeySessionID, id)
}

// SetAccessToken persists just the access token. Used for the temporary token
// of a pending two-factor handshake, which must not carry a refresh token or
// user profile with it.
func (t *Tokens[User]) SetAccessToken(ctx context.Context, token string) error {
	return t.store.Set(ctx, KeyAccessToken, token)
}

// SetTokenPair persists a rotated access/refresh token pair, leaving the
// cached user and session ID untouched. Used on silent refresh.
func (t *Tokens[User]) SetTokenPair(ctx context.Context, access, refresh string) error {
	if err := t.store.Set(ctx, KeyAccessToken, access); err != nil {
		return err
	}
	return t.store.Set(ctx, KeyRefreshToken, refresh)
}

// User returns the cached profile. The second result is false when no profile
// is stored or the stored JSON cannot be decoded (logged, treated as absent).
func (t *Tokens[User]) User(ctx context.Context) (User, bool) {
	var user User

	raw, err := t.store.Get(ctx, KeyUser)
	if err != nil {
		t.logRead(KeyUser, err)
		return user, false
	}

	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		t.log.Warn("cached user profile is corrupt",
			logger.Component("tokenstore"),
			logger.Error(err),
		)
		return user, false
	}
	return user, true
}

// SetUser stores the profile as JSON under KeyUser.
func (t *Tokens[User]) SetUser(ctx context.Context, user User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return t.store.Set(ctx, KeyUser, string(raw))
}

// SetSession persists a complete authenticated session: both tokens and the
// user profile. Partial failures are joined so the caller sees every problem.
func (t *Tokens[User]) SetSession(ctx context.Context, access, refresh string, user User) error {
	return errors.Join(
		t.store.Set(ctx, KeyAccessToken, access),
		t.store.Set(ctx, KeyRefreshToken, refresh),
		t.SetUser(ctx, user),
	)
}

// Clear removes every session key as one unit. Individual failures do not
// stop the remaining removals; all errors are joined and also logged, since
// most callers (logout paths) cannot do anything but proceed.
func (t *Tokens[User]) Clear(ctx context.Context) error {
	err := t.store.ClearAll(ctx)
	if err != nil {
		// Fall back to removing keys individually so one backend hiccup
		// cannot leave a live refresh token behind.
		errs := []error{err}
		for _, key := range SessionKeys() {
			errs = append(errs, t.store.Remove(ctx, key))
		}
		err = errors.Join(errs...)
	}
	if err != nil {
		t.log.Error("failed to fully clear session state",
			logger.Component("tokenstore"),
			logger.Error(err),
		)
	}
	return err
}

func (t *Tokens[User]) get(ctx context.Context, key string) string {
	value, err := t.store.Get(ctx, key)
	if err != nil {
		t.logRead(key, err)
		return ""
	}
	return value
}

func (t *Tokens[User]) logRead(key string, err error) {
	if errors.Is(err, ErrNotFound) {
		return
	}
	t.log.Warn("token store read failed",
		logger.Component("tokenstore"),
		logger.Key("key", key),
		logger.Error(err),
	)
}
