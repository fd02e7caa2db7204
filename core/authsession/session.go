package authsession

import "github.com/evalhub/authcore/core/config"

// State is the controller's position in the authentication lifecycle.
type State int

const (
	// StateAnonymous: no session state is held.
	StateAnonymous State = iota

	// StateAuthenticating: a login or registration call is in flight.
	StateAuthenticating

	// StateAuthenticated: tokens are held and believed valid.
	StateAuthenticated

	// StateTwoFactorPending: credentials were accepted, a temporary token is
	// held, and the final session is waiting on a 2FA code.
	StateTwoFactorPending

	// StateExpired: the session was invalidated outside of a direct user
	// action (refresh failure or explicit auth-expired signal).
	StateExpired
)

var stateNames = map[State]string{
	StateAnonymous:        "anonymous",
	StateAuthenticating:   "authenticating",
	StateAuthenticated:    "authenticated",
	StateTwoFactorPending: "two_factor_pending",
	StateExpired:          "expired",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// User is the cached profile of the signed-in account. It mirrors what the
// remote API returned last and may be stale relative to the server.
type User struct {
	ID         string        `json:"id"`
	Email      string        `json:"email"`
	Name       string        `json:"name"`
	IsVerified bool          `json:"is_verified"`
	Plan       config.PlanID `json:"plan"`
}

// TwoFactorChallenge is the handle returned by Login when the account has 2FA
// enabled. The caller passes it back to CompleteTwoFactor together with the
// user's code.
type TwoFactorChallenge struct {
	// TempToken is the short-lived token authorizing the 2FA exchange.
	// It is not a session credential.
	TempToken string
}

// Session is a snapshot of the logical authentication state.
type Session struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	User         *User

	// TwoFactor is non-nil while the login is waiting on a 2FA code.
	TwoFactor *TwoFactorChallenge
}

// RequiresTwoFactor reports whether the login must be completed with a code.
func (s Session) RequiresTwoFactor() bool {
	return s.TwoFactor != nil
}

// Authenticated reports whether the snapshot holds a usable session.
// A cached user without an access token is treated as unauthenticated.
func (s Session) Authenticated() bool {
	return s.AccessToken != "" && s.TwoFactor == nil
}
