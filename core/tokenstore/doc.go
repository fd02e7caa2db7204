// Package tokenstore persists the client-side authentication state: access
// token, refresh token, session ID, and the cached user profile.
//
// # Architecture
//
// The package defines a narrow Store interface (Get/Set/Remove/ClearAll) with
// three backends:
//
//   - MemoryStore: process-local, mutex-guarded map
//   - FileStore: single JSON file with atomic writes, for CLI-style clients
//     that must survive restarts
//   - RedisStore: one Redis hash per principal, for multi-process deployments
//     sharing a session
//
// All session mutation in the module goes through this narrow contract, never
// ad hoc key access, so write serialization can be added at a single point.
//
// # Degradation contract
//
// Storage failures must never break a caller's control flow: backends return
// wrapped sentinel errors (ErrNotFound, ErrUnavailable) instead of panicking,
// and the Tokens facade converts read failures into zero values, logging them
// instead of propagating. A user who cannot read their tokens must still be
// able to reach a signed-out state.
//
// # Usage
//
//	store := tokenstore.NewMemoryStore()
//	tokens := tokenstore.NewTokens[User](store)
//
//	_ = tokens.SetSession(ctx, access, refresh, user)
//	token := tokens.AccessToken(ctx) // "" when absent or unreadable
//	_ = tokens.Clear(ctx)            // removes all session keys as a unit
package tokenstore
