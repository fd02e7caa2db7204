package authsession

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/evalhub/authcore/core/apiclient"
	"github.com/evalhub/authcore/core/config"
	"github.com/evalhub/authcore/core/logger"
	"github.com/evalhub/authcore/core/tokenstore"
	"github.com/evalhub/authcore/pkg/broadcast"
	"github.com/evalhub/authcore/pkg/tokencodec"
)

// Controller orchestrates the authentication lifecycle: login, registration,
// 2FA, logout, and silent refresh. It owns the policy of when to refresh,
// when to clear session state, and when to signal session expiry.
//
// One Controller instance is shared by the whole application; all methods are
// safe for concurrent use.
type Controller struct {
	api    *apiclient.Client
	store  tokenstore.Store
	tokens *tokenstore.Tokens[User]
	log    *slog.Logger

	expired *broadcast.MemoryBroadcaster[bool]

	mu    sync.Mutex
	state State
	// gen identifies the current logical session. Logout and teardown bump
	// it so refreshes that settle afterwards cannot resurrect credentials.
	gen uint64
	// notified marks that the auth-expired signal already fired for the
	// current teardown, keeping the event exactly-once per expiry.
	notified bool

	refreshGroup singleflight.Group
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithEventBuffer sets the per-subscriber buffer for auth-expired events.
func WithEventBuffer(size int) Option {
	return func(c *Controller) {
		if size > 0 {
			c.expired = broadcast.NewMemoryBroadcaster[bool](size)
		}
	}
}

// ErrNilDependency indicates New was called without its required collaborators.
var ErrNilDependency = errors.New("api client and token store are required")

// New creates a Controller on top of the shared API client and token store,
// and wires itself in as the client's refresher so 401 recovery and proactive
// refresh share one code path. Initial state is derived from stored tokens.
func New(api *apiclient.Client, store tokenstore.Store, opts ...Option) (*Controller, error) {
	if api == nil || store == nil {
		return nil, ErrNilDependency
	}

	c := &Controller{
		api:     api,
		store:   store,
		log:     logger.Discard(),
		expired: broadcast.NewMemoryBroadcaster[bool](8),
		state:   StateAnonymous,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.tokens = tokenstore.NewTokens[User](store, tokenstore.WithLogger(c.log))
	api.SetRefreshFunc(c.refreshAccessToken)

	if c.tokens.AccessToken(context.Background()) != "" {
		c.state = StateAuthenticated
	}
	return c, nil
}

// NewFromConfig builds the API client from configuration and wraps it in a
// Controller. Most applications use this instead of wiring the client by hand.
func NewFromConfig(cfg config.APIConfig, store tokenstore.Store, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens := tokenstore.NewTokens[User](store)
	api, err := apiclient.New(cfg.NormalizedBaseURL(),
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithSessionHeader(cfg.SessionHeader),
		apiclient.WithUserAgent(cfg.UserAgent),
		apiclient.WithCredentials(tokens),
	)
	if err != nil {
		return nil, err
	}
	return New(api, store, opts...)
}

// API exposes the shared outbound client so application code issues all its
// requests through the same pipeline.
func (c *Controller) API() *apiclient.Client {
	return c.api
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnExpired subscribes to the auth-expired signal. The event fires when the
// session is invalidated outside of a direct user action; explicit logout
// does not fire it. The subscription ends when ctx is cancelled.
func (c *Controller) OnExpired(ctx context.Context) broadcast.Subscriber[bool] {
	return c.expired.Subscribe(ctx)
}

// Close releases the controller's event resources.
func (c *Controller) Close() error {
	return c.expired.Close()
}

// wire payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterParams is the payload for account registration.
type RegisterParams struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"org"`
	Password     string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type twoFactorRequest struct {
	Token string `json:"token"`
}

type authResponse struct {
	AccessToken       string `json:"access_token"`
	RefreshToken      string `json:"refresh_token"`
	RequiresTwoFactor bool   `json:"requires_2fa"`
	User              *User  `json:"user"`
}

// Login authenticates with email and password.
//
// When the account has 2FA enabled the remote API returns a temporary token
// instead of a session; Login persists ONLY that token, moves to
// StateTwoFactorPending, and returns a session whose TwoFactor field the
// caller must pass to CompleteTwoFactor.
func (c *Controller) Login(ctx context.Context, email, password string) (Session, error) {
	c.setState(StateAuthenticating)

	var resp authResponse
	err := c.api.Post(ctx, config.EndpointLogin, loginRequest{Email: email, Password: password}, &resp,
		apiclient.WithoutAuth(), apiclient.WithoutRetry())
	if err != nil {
		c.setState(StateAnonymous)
		return Session{}, Classify(err)
	}

	if resp.RequiresTwoFactor {
		// Only the temporary token is persisted. No refresh token, no user:
		// the session does not exist until the 2FA exchange succeeds.
		if err := c.tokens.SetAccessToken(ctx, resp.AccessToken); err != nil {
			c.log.Warn("failed to persist temporary 2fa token",
				logger.Component("authsession"), logger.Error(err))
		}
		c.setState(StateTwoFactorPending)

		c.log.Info("login pending two-factor verification",
			logger.Component("authsession"), logger.Event("login"))
		return Session{TwoFactor: &TwoFactorChallenge{TempToken: resp.AccessToken}}, nil
	}

	return c.establishSession(ctx, resp, "login")
}

// Register creates an account and, like Login, establishes a session from the
// returned tokens.
func (c *Controller) Register(ctx context.Context, params RegisterParams) (Session, error) {
	c.setState(StateAuthenticating)

	var resp authResponse
	err := c.api.Post(ctx, config.EndpointRegister, params, &resp,
		apiclient.WithoutAuth(), apiclient.WithoutRetry())
	if err != nil {
		c.setState(StateAnonymous)
		return Session{}, Classify(err)
	}

	return c.establishSession(ctx, resp, "register")
}

// CompleteTwoFactor exchanges the user's code, authorized by the temporary
// token from Login, for the final session. On failure the token state active
// before the attempt is restored unchanged.
func (c *Controller) CompleteTwoFactor(ctx context.Context, code string, challenge TwoFactorChallenge) (Session, error) {
	prevAccess := c.tokens.AccessToken(ctx)
	prevRefresh := c.tokens.RefreshToken(ctx)

	// The temporary token authorizes the exchange as the bearer credential.
	if challenge.TempToken != "" && challenge.TempToken != prevAccess {
		if err := c.tokens.SetAccessToken(ctx, challenge.TempToken); err != nil {
			return Session{}, &AuthError{Kind: KindUnknown, Message: "failed to stage 2fa token", cause: err}
		}
	}

	var resp authResponse
	err := c.api.Post(ctx, config.EndpointTwoFactorLogin, twoFactorRequest{Token: code}, &resp,
		apiclient.WithoutRetry())
	if err != nil {
		c.restoreTokens(ctx, prevAccess, prevRefresh)
		return Session{}, Classify(err)
	}

	return c.establishSession(ctx, resp, "2fa")
}

// Logout invalidates the session remotely on a best-effort basis and always
// clears local state. It never fails from the caller's perspective: remote
// errors are logged and swallowed so the user always reaches a signed-out
// state. It does not fire the auth-expired signal.
func (c *Controller) Logout(ctx context.Context) {
	c.mu.Lock()
	// Bumping the generation makes any in-flight refresh stale: even if it
	// settles successfully after this point, its tokens are discarded. A
	// refreshed token left in storage after logout would be a live credential
	// the user believes is gone.
	c.gen++
	c.notified = true
	c.state = StateAnonymous
	c.mu.Unlock()

	if err := c.api.Post(ctx, config.EndpointLogout, nil, nil, apiclient.WithoutRetry()); err != nil {
		c.log.Warn("remote logout failed, clearing local state anyway",
			logger.Component("authsession"), logger.Event("logout"), logger.Error(err))
	}

	_ = c.tokens.Clear(ctx)

	c.log.Info("logged out", logger.Component("authsession"), logger.Event("logout"))
}

// Refresh exchanges the stored refresh token for new tokens. Concurrent
// callers (including the API client's 401 recovery) share one in-flight
// attempt. An unrecoverable failure clears the session and fires the
// auth-expired signal exactly once.
func (c *Controller) Refresh(ctx context.Context) (Session, error) {
	if _, err := c.refreshAccessToken(ctx); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return Session{}, authErr
		}
		return Session{}, Classify(err)
	}
	return c.Current(ctx), nil
}

// CurrentUser returns the cached profile, or nil when no access token is
// held. It never makes a network call; the cache may be stale.
func (c *Controller) CurrentUser(ctx context.Context) *User {
	if c.tokens.AccessToken(ctx) == "" {
		return nil
	}
	user, ok := c.tokens.User(ctx)
	if !ok {
		return nil
	}
	return &user
}

// FetchUser loads the authoritative profile from the remote API and updates
// the cache. Unlike CurrentUser this hits the network and participates in the
// normal 401 recovery protocol.
func (c *Controller) FetchUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.api.Get(ctx, config.EndpointMe, &user); err != nil {
		return nil, Classify(err)
	}

	if err := c.tokens.SetUser(ctx, user); err != nil {
		c.log.Warn("failed to cache user profile",
			logger.Component("authsession"), logger.Error(err))
	}
	return &user, nil
}

// ValidateSession reports whether a usable session is held. A locally expired
// access token triggers one refresh attempt; the result decides the answer.
func (c *Controller) ValidateSession(ctx context.Context) bool {
	token := c.tokens.AccessToken(ctx)
	if token == "" {
		return false
	}
	if tokencodec.IsExpired(token) {
		_, err := c.Refresh(ctx)
		return err == nil
	}
	return true
}

// Current returns a snapshot of the stored session state.
func (c *Controller) Current(ctx context.Context) Session {
	sess := Session{
		AccessToken:  c.tokens.AccessToken(ctx),
		RefreshToken: c.tokens.RefreshToken(ctx),
		SessionID:    c.tokens.SessionID(ctx),
	}
	if user, ok := c.tokens.User(ctx); ok {
		sess.User = &user
	}
	if c.State() == StateTwoFactorPending {
		sess.TwoFactor = &TwoFactorChallenge{TempToken: sess.AccessToken}
	}
	return sess
}

// establishSession persists tokens and user atomically-as-possible and moves
// to StateAuthenticated. A new session generation starts here.
func (c *Controller) establishSession(ctx context.Context, resp authResponse, event string) (Session, error) {
	var user User
	if resp.User != nil {
		user = *resp.User
	}

	if err := c.tokens.SetSession(ctx, resp.AccessToken, resp.RefreshToken, user); err != nil {
		c.setState(StateAnonymous)
		return Session{}, &AuthError{Kind: KindUnknown, Message: "failed to persist session", cause: err}
	}

	c.mu.Lock()
	c.gen++
	c.notified = false
	c.state = StateAuthenticated
	c.mu.Unlock()

	c.log.Info("session established",
		logger.Component("authsession"),
		logger.Event(event),
		logger.UserID(user.ID),
	)

	return Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		SessionID:    c.tokens.SessionID(ctx),
		User:         resp.User,
	}, nil
}

// refreshAccessToken is the single refresh path, shared by Refresh and the
// API client's 401 recovery via singleflight.
func (c *Controller) refreshAccessToken(ctx context.Context) (string, error) {
	token, err, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.doRefresh(ctx)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (c *Controller) doRefresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	refreshToken := c.tokens.RefreshToken(ctx)
	if refreshToken == "" {
		c.teardown(ctx, gen, nil)
		return "", expiredError(nil)
	}

	var resp refreshResponse
	err := c.api.Post(ctx, config.EndpointRefresh, refreshRequest{RefreshToken: refreshToken}, &resp,
		apiclient.WithoutAuth(), apiclient.WithoutRetry())
	if err != nil {
		c.teardown(ctx, gen, err)
		return "", expiredError(err)
	}

	c.mu.Lock()
	stale := gen != c.gen
	c.mu.Unlock()
	if stale {
		// Logout raced this refresh. Discard the new tokens; storage was
		// already cleared and must stay cleared.
		c.log.Info("discarding refresh result for closed session",
			logger.Component("authsession"), logger.Event("refresh"))
		return "", ErrSessionClosed
	}

	if err := c.tokens.SetTokenPair(ctx, resp.AccessToken, resp.RefreshToken); err != nil {
		return "", &AuthError{Kind: KindUnknown, Message: "failed to persist refreshed tokens", cause: err}
	}
	c.setState(StateAuthenticated)

	c.log.Debug("session refreshed", logger.Component("authsession"), logger.Event("refresh"))
	return resp.AccessToken, nil
}

// teardown clears the session and fires the auth-expired signal, exactly once
// per generation. A stale generation means logout or a newer login already
// took over; nothing happens.
func (c *Controller) teardown(ctx context.Context, gen uint64, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.gen++
	alreadyNotified := c.notified
	c.notified = true
	c.state = StateExpired
	c.mu.Unlock()

	_ = c.tokens.Clear(ctx)

	if !alreadyNotified {
		_ = c.expired.Broadcast(ctx, broadcast.Message[bool]{Data: true})
	}

	c.log.Warn("session expired and cleared",
		logger.Component("authsession"),
		logger.Event("auth_expired"),
		logger.Error(cause),
	)
}

// restoreTokens writes the pre-attempt token state back after a failed 2FA
// exchange, removing keys that were previously absent.
func (c *Controller) restoreTokens(ctx context.Context, access, refresh string) {
	restore := func(key, value string) {
		var err error
		if value == "" {
			err = c.store.Remove(ctx, key)
		} else {
			err = c.store.Set(ctx, key, value)
		}
		if err != nil {
			c.log.Warn("failed to restore token state after 2fa failure",
				logger.Component("authsession"), logger.Key("key", key), logger.Error(err))
		}
	}
	restore(tokenstore.KeyAccessToken, access)
	restore(tokenstore.KeyRefreshToken, refresh)
}

func (c *Controller) setState(state State) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
