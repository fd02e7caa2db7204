package routeguard

import (
	"context"
	"sync/atomic"

	"github.com/evalhub/authcore/core/authsession"
	"github.com/evalhub/authcore/core/config"
)

// Requirements declares what a protected view demands from the session.
// The zero value demands nothing and always passes.
type Requirements struct {
	// Authenticated requires a usable session to be held.
	Authenticated bool

	// VerifiedEmail additionally requires the account's email to be verified.
	// Implies Authenticated.
	VerifiedEmail bool

	// Plan, when set, additionally requires the account's plan to rank at or
	// above it. Implies Authenticated.
	Plan config.PlanID
}

// RequireAuthenticated demands a signed-in session.
func RequireAuthenticated() Requirements {
	return Requirements{Authenticated: true}
}

// RequireVerifiedEmail demands a signed-in session with a verified email.
func RequireVerifiedEmail() Requirements {
	return Requirements{Authenticated: true, VerifiedEmail: true}
}

// RequirePlan demands a signed-in session on at least the given plan.
func RequirePlan(plan config.PlanID) Requirements {
	return Requirements{Authenticated: true, Plan: plan}
}

// AndVerifiedEmail adds the verified-email demand.
func (r Requirements) AndVerifiedEmail() Requirements {
	r.VerifiedEmail = true
	return r
}

// AndPlan adds the minimum-plan demand.
func (r Requirements) AndPlan(plan config.PlanID) Requirements {
	r.Plan = plan
	return r
}

func (r Requirements) needsSession() bool {
	return r.Authenticated || r.VerifiedEmail || r.Plan != ""
}

// Verdict is the outcome class of a guard decision.
type Verdict int

const (
	// VerdictChecking: authentication is still in flight; render nothing yet.
	VerdictChecking Verdict = iota

	// VerdictAuthenticated: all requirements hold, the view may render.
	VerdictAuthenticated

	// VerdictUnauthenticated: a requirement failed; Reason says which.
	VerdictUnauthenticated
)

var verdictNames = map[Verdict]string{
	VerdictChecking:        "checking",
	VerdictAuthenticated:   "authenticated",
	VerdictUnauthenticated: "unauthenticated",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return "unknown"
}

// Reason explains a VerdictUnauthenticated decision so the caller can route
// to the right screen: sign-in, verify-email, or upgrade.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNoSession
	ReasonUnverifiedEmail
	ReasonPlanInsufficient
	ReasonSessionExpired
)

var reasonNames = map[Reason]string{
	ReasonNone:             "",
	ReasonNoSession:        "no_session",
	ReasonUnverifiedEmail:  "unverified_email",
	ReasonPlanInsufficient: "plan_insufficient",
	ReasonSessionExpired:   "session_expired",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return "unknown"
}

// Decision is the guard's answer for one check.
type Decision struct {
	Verdict Verdict

	// Reason is set only when Verdict is VerdictUnauthenticated.
	Reason Reason
}

// Allowed reports whether the view may render.
func (d Decision) Allowed() bool {
	return d.Verdict == VerdictAuthenticated
}

// Evaluate applies requirements to a session snapshot. It is a pure function;
// checks short-circuit in order: missing session, then unverified email, then
// insufficient plan, so the caller always learns the most fundamental failure
// first.
func Evaluate(sess authsession.Session, req Requirements) Decision {
	if !req.needsSession() {
		return Decision{Verdict: VerdictAuthenticated}
	}

	if !sess.Authenticated() {
		return Decision{Verdict: VerdictUnauthenticated, Reason: ReasonNoSession}
	}

	if req.VerifiedEmail && (sess.User == nil || !sess.User.IsVerified) {
		return Decision{Verdict: VerdictUnauthenticated, Reason: ReasonUnverifiedEmail}
	}

	if req.Plan != "" && (sess.User == nil || !sess.User.Plan.AtLeast(req.Plan)) {
		return Decision{Verdict: VerdictUnauthenticated, Reason: ReasonPlanInsufficient}
	}

	return Decision{Verdict: VerdictAuthenticated}
}

// Guard binds requirement evaluation to a live controller. It watches the
// auth-expired signal so a check issued after an expiry reports
// ReasonSessionExpired instead of a bare ReasonNoSession, and reports
// VerdictChecking while a login is still in flight.
type Guard struct {
	ctrl    *authsession.Controller
	expired atomic.Bool
	cancel  context.CancelFunc
}

// New creates a Guard watching the controller's auth-expired signal. Close
// releases the watch.
func New(ctrl *authsession.Controller) *Guard {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Guard{ctrl: ctrl, cancel: cancel}

	sub := ctrl.OnExpired(ctx)
	go func() {
		defer sub.Close()
		for range sub.Receive(ctx) {
			g.expired.Store(true)
		}
	}()
	return g
}

// Check evaluates the requirements against the controller's current session.
func (g *Guard) Check(ctx context.Context, req Requirements) Decision {
	switch g.ctrl.State() {
	case authsession.StateAuthenticating:
		return Decision{Verdict: VerdictChecking}
	case authsession.StateAuthenticated:
		// A fresh session supersedes any expiry observed before it.
		g.expired.Store(false)
	case authsession.StateExpired:
		g.expired.Store(true)
	}

	decision := Evaluate(g.ctrl.Current(ctx), req)
	if decision.Verdict == VerdictUnauthenticated && decision.Reason == ReasonNoSession && g.expired.Load() {
		decision.Reason = ReasonSessionExpired
	}
	return decision
}

// Close stops watching the auth-expired signal.
func (g *Guard) Close() {
	g.cancel()
}
