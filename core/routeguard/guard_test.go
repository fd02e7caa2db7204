package routeguard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalhub/authcore/core/authsession"
	"github.com/evalhub/authcore/core/config"
	"github.com/evalhub/authcore/core/routeguard"
	"github.com/evalhub/authcore/core/tokenstore"
)

func sessionWith(user *authsession.User) authsession.Session {
	return authsession.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		User:         user,
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	verifiedGrowth := &authsession.User{ID: "u1", IsVerified: true, Plan: config.PlanGrowth}
	unverifiedFree := &authsession.User{ID: "u2", IsVerified: false, Plan: config.PlanFree}

	tests := []struct {
		name    string
		sess    authsession.Session
		req     routeguard.Requirements
		verdict routeguard.Verdict
		reason  routeguard.Reason
	}{
		{
			name:    "no requirements always pass",
			sess:    authsession.Session{},
			req:     routeguard.Requirements{},
			verdict: routeguard.VerdictAuthenticated,
		},
		{
			name:    "authenticated passes with session",
			sess:    sessionWith(verifiedGrowth),
			req:     routeguard.RequireAuthenticated(),
			verdict: routeguard.VerdictAuthenticated,
		},
		{
			name:    "authenticated fails without session",
			sess:    authsession.Session{},
			req:     routeguard.RequireAuthenticated(),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonNoSession,
		},
		{
			name: "pending 2fa is not a session",
			sess: authsession.Session{
				AccessToken: "temp",
				TwoFactor:   &authsession.TwoFactorChallenge{TempToken: "temp"},
			},
			req:     routeguard.RequireAuthenticated(),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonNoSession,
		},
		{
			name:    "verified email passes",
			sess:    sessionWith(verifiedGrowth),
			req:     routeguard.RequireVerifiedEmail(),
			verdict: routeguard.VerdictAuthenticated,
		},
		{
			name:    "unverified email rejected",
			sess:    sessionWith(unverifiedFree),
			req:     routeguard.RequireVerifiedEmail(),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonUnverifiedEmail,
		},
		{
			name:    "missing user cannot prove verification",
			sess:    sessionWith(nil),
			req:     routeguard.RequireVerifiedEmail(),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonUnverifiedEmail,
		},
		{
			name:    "plan rank satisfied by higher plan",
			sess:    sessionWith(verifiedGrowth),
			req:     routeguard.RequirePlan(config.PlanStarter),
			verdict: routeguard.VerdictAuthenticated,
		},
		{
			name:    "plan rank satisfied exactly",
			sess:    sessionWith(verifiedGrowth),
			req:     routeguard.RequirePlan(config.PlanGrowth),
			verdict: routeguard.VerdictAuthenticated,
		},
		{
			name:    "insufficient plan rejected",
			sess:    sessionWith(unverifiedFree),
			req:     routeguard.RequirePlan(config.PlanEnterprise),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonPlanInsufficient,
		},
		{
			name:    "no session reported before unverified email",
			sess:    authsession.Session{},
			req:     routeguard.RequireVerifiedEmail().AndPlan(config.PlanEnterprise),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonNoSession,
		},
		{
			name:    "unverified email reported before insufficient plan",
			sess:    sessionWith(unverifiedFree),
			req:     routeguard.RequireVerifiedEmail().AndPlan(config.PlanEnterprise),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonUnverifiedEmail,
		},
		{
			name:    "unknown plan requirement never satisfied",
			sess:    sessionWith(verifiedGrowth),
			req:     routeguard.RequirePlan(config.PlanID("platinum")),
			verdict: routeguard.VerdictUnauthenticated,
			reason:  routeguard.ReasonPlanInsufficient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dec := routeguard.Evaluate(tt.sess, tt.req)
			assert.Equal(t, tt.verdict, dec.Verdict)
			assert.Equal(t, tt.reason, dec.Reason)
			assert.Equal(t, tt.verdict == routeguard.VerdictAuthenticated, dec.Allowed())
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newGuardFixture(t *testing.T, mux *http.ServeMux) (*routeguard.Guard, *authsession.Controller, tokenstore.Store) {
	t.Helper()

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	store := tokenstore.NewMemoryStore()
	ctrl, err := authsession.NewFromConfig(config.APIConfig{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	}, store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	guard := routeguard.New(ctrl)
	t.Cleanup(guard.Close)
	return guard, ctrl, store
}

func TestGuard_Check(t *testing.T) {
	t.Parallel()

	t.Run("anonymous store yields no session", func(t *testing.T) {
		t.Parallel()

		guard, _, _ := newGuardFixture(t, http.NewServeMux())

		dec := guard.Check(context.Background(), routeguard.RequireAuthenticated())
		assert.Equal(t, routeguard.VerdictUnauthenticated, dec.Verdict)
		assert.Equal(t, routeguard.ReasonNoSession, dec.Reason)
	})

	t.Run("authenticated session passes", func(t *testing.T) {
		t.Parallel()

		guard, _, store := newGuardFixture(t, http.NewServeMux())
		ctx := context.Background()

		tokens := tokenstore.NewTokens[authsession.User](store)
		require.NoError(t, tokens.SetSession(ctx, "a1", "r1",
			authsession.User{ID: "u1", IsVerified: true, Plan: config.PlanGrowth}))

		dec := guard.Check(ctx, routeguard.RequireVerifiedEmail().AndPlan(config.PlanStarter))
		assert.True(t, dec.Allowed())
	})

	t.Run("expired session is distinguished from no session", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": "token_revoked"},
			})
		})
		guard, ctrl, store := newGuardFixture(t, mux)
		ctx := context.Background()

		tokens := tokenstore.NewTokens[authsession.User](store)
		require.NoError(t, tokens.SetTokenPair(ctx, "a1", "r1"))

		_, err := ctrl.Refresh(ctx)
		require.Error(t, err)

		dec := guard.Check(ctx, routeguard.RequireAuthenticated())
		assert.Equal(t, routeguard.VerdictUnauthenticated, dec.Verdict)
		assert.Equal(t, routeguard.ReasonSessionExpired, dec.Reason)
	})

	t.Run("fresh login clears the expired flag", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error": map[string]any{"code": "token_revoked"},
			})
		})
		mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token":  "a2",
				"refresh_token": "r2",
				"user":          map[string]any{"id": "u1", "is_verified": true, "plan": "free"},
			})
		})
		guard, ctrl, store := newGuardFixture(t, mux)
		ctx := context.Background()

		tokens := tokenstore.NewTokens[authsession.User](store)
		require.NoError(t, tokens.SetTokenPair(ctx, "a1", "r1"))
		_, err := ctrl.Refresh(ctx)
		require.Error(t, err)

		dec := guard.Check(ctx, routeguard.RequireAuthenticated())
		assert.Equal(t, routeguard.ReasonSessionExpired, dec.Reason)

		_, err = ctrl.Login(ctx, "pat@example.com", "hunter2")
		require.NoError(t, err)

		dec = guard.Check(ctx, routeguard.RequireAuthenticated())
		assert.True(t, dec.Allowed())

		// Logging out afterwards is a plain absence, not an expiry.
		ctrl.Logout(ctx)
		dec = guard.Check(ctx, routeguard.RequireAuthenticated())
		assert.Equal(t, routeguard.ReasonNoSession, dec.Reason)
	})
}

func TestVerdictAndReasonStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "checking", routeguard.VerdictChecking.String())
	assert.Equal(t, "unauthenticated", routeguard.VerdictUnauthenticated.String())
	assert.Equal(t, "session_expired", routeguard.ReasonSessionExpired.String())
	assert.Equal(t, "unknown", routeguard.Reason(99).String())
}
