package tokenstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/authcore/core/tokenstore"
)

type testUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// failingStore simulates a broken backend for degradation tests.
type failingStore struct {
	failGet      bool
	failClearAll bool
	inner        *tokenstore.MemoryStore
}

func (s *failingStore) Get(ctx context.Context, key string) (string, error) {
	if s.failGet {
		return "", tokenstore.ErrUnavailable
	}
	return s.inner.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	return s.inner.Set(ctx, key, value)
}

func (s *failingStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

func (s *failingStore) ClearAll(ctx context.Context) error {
	if s.failClearAll {
		return tokenstore.ErrUnavailable
	}
	return s.inner.ClearAll(ctx)
}

func TestTokens_Accessors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("zero values when empty", func(t *testing.T) {
		t.Parallel()

		tokens := tokenstore.NewTokens[testUser](tokenstore.NewMemoryStore())
		assert.Empty(t, tokens.AccessToken(ctx))
		assert.Empty(t, tokens.RefreshToken(ctx))
		assert.Empty(t, tokens.SessionID(ctx))

		_, ok := tokens.User(ctx)
		assert.False(t, ok)
	})

	t.Run("set session round trip", func(t *testing.T) {
		t.Parallel()

		tokens := tokenstore.NewTokens[testUser](tokenstore.NewMemoryStore())
		user := testUser{ID: "u1", Email: "u1@example.com"}
		require.NoError(t, tokens.SetSession(ctx, "access", "refresh", user))

		assert.Equal(t, "access", tokens.AccessToken(ctx))
		assert.Equal(t, "refresh", tokens.RefreshToken(ctx))

		cached, ok := tokens.User(ctx)
		require.True(t, ok)
		assert.Equal(t, user, cached)
	})

	t.Run("token pair rotation keeps user", func(t *testing.T) {
		t.Parallel()

		tokens := tokenstore.NewTokens[testUser](tokenstore.NewMemoryStore())
		require.NoError(t, tokens.SetSession(ctx, "a1", "r1", testUser{ID: "u1"}))
		require.NoError(t, tokens.SetTokenPair(ctx, "a2", "r2"))

		assert.Equal(t, "a2", tokens.AccessToken(ctx))
		assert.Equal(t, "r2", tokens.RefreshToken(ctx))

		cached, ok := tokens.User(ctx)
		require.True(t, ok)
		assert.Equal(t, "u1", cached.ID)
	})

	t.Run("session id round trip", func(t *testing.T) {
		t.Parallel()

		tokens := tokenstore.NewTokens[testUser](tokenstore.NewMemoryStore())
		require.NoError(t, tokens.SetSessionID(ctx, "sess-9"))
		assert.Equal(t, "sess-9", tokens.SessionID(ctx))
	})

	t.Run("temporary access token only", func(t *testing.T) {
		t.Parallel()

		tokens := tokenstore.NewTokens[testUser](tokenstore.NewMemoryStore())
		require.NoError(t, tokens.SetAccessToken(ctx, "temp-2fa"))

		assert.Equal(t, "temp-2fa", tokens.AccessToken(ctx))
		assert.Empty(t, tokens.RefreshToken(ctx))
		_, ok := tokens.User(ctx)
		assert.False(t, ok)
	})
}

func TestTokens_Degradation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("read failures degrade to absent", func(t *testing.T) {
		t.Parallel()

		store := &failingStore{failGet: true, inner: tokenstore.NewMemoryStore()}
		tokens := tokenstore.NewTokens[testUser](store)

		assert.Empty(t, tokens.AccessToken(ctx))
		_, ok := tokens.User(ctx)
		assert.False(t, ok)
	})

	t.Run("corrupt user json degrades to absent", func(t *testing.T) {
		t.Parallel()

		store := tokenstore.NewMemoryStore()
		require.NoError(t, store.Set(ctx, tokenstore.KeyUser, "{broken"))

		tokens := tokenstore.NewTokens[testUser](store)
		_, ok := tokens.User(ctx)
		assert.False(t, ok)
	})

	t.Run("clear falls back to per-key removal", func(t *testing.T) {
		t.Parallel()

		store := &failingStore{failClearAll: true, inner: tokenstore.NewMemoryStore()}
		tokens := tokenstore.NewTokens[testUser](store)
		require.NoError(t, tokens.SetSession(ctx, "a", "r", testUser{ID: "u1"}))
		require.NoError(t, tokens.SetSessionID(ctx, "s1"))

		err := tokens.Clear(ctx)
		assert.True(t, errors.Is(err, tokenstore.ErrUnavailable))

		// Despite ClearAll failing, no session key may survive.
		assert.Empty(t, tokens.AccessToken(ctx))
		assert.Empty(t, tokens.RefreshToken(ctx))
		assert.Empty(t, tokens.SessionID(ctx))
		_, ok := tokens.User(ctx)
		assert.False(t, ok)
	})
}
