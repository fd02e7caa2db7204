// Package routeguard decides whether a protected view may render for the
// current session.
//
// The core is Evaluate, a pure function from a session snapshot and a set of
// declarative Requirements to a Decision. Checks short-circuit from the most
// fundamental failure outward: a missing session is reported before an
// unverified email, which is reported before an insufficient plan, so the
// caller always routes the user to the right screen first.
//
//	dec := routeguard.Evaluate(sess, routeguard.RequirePlan(config.PlanGrowth))
//	if !dec.Allowed() {
//	    switch dec.Reason {
//	    case routeguard.ReasonNoSession:
//	        // redirect to sign-in
//	    case routeguard.ReasonPlanInsufficient:
//	        // show the upgrade prompt
//	    }
//	}
//
// Guard binds evaluation to a live authsession.Controller. It distinguishes a
// session that expired mid-use (ReasonSessionExpired) from one that never
// existed (ReasonNoSession) by watching the controller's auth-expired signal,
// and reports VerdictChecking while a login is still in flight so the UI can
// hold instead of flashing a sign-in screen.
package routeguard
