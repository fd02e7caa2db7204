package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/evalhub/authcore/core/logger"
)

// CredentialSource supplies the credentials attached to outbound requests and
// receives server-issued session IDs. tokenstore.Tokens satisfies it.
type CredentialSource interface {
	AccessToken(ctx context.Context) string
	SessionID(ctx context.Context) string
	SetSessionID(ctx context.Context, id string) error
}

// RefreshFunc exchanges the stored refresh token for a new access token.
// On failure the implementation owns session teardown (clear + auth-expired
// signal); the client only propagates the original 401.
type RefreshFunc func(ctx context.Context) (accessToken string, err error)

// Client is the consolidated outbound request pipeline.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	log           *slog.Logger
	creds         CredentialSource
	sessionHeader string
	userAgent     string

	refreshMu    sync.RWMutex
	refresh      RefreshFunc
	refreshGroup singleflight.Group
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout on the underlying HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger sets the logger. Defaults to a discard logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithCredentials sets the credential source for header injection and
// session ID capture.
func WithCredentials(creds CredentialSource) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

// WithSessionHeader overrides the session correlation header name.
// Default is "X-Session-ID".
func WithSessionHeader(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.sessionHeader = name
		}
	}
}

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRefreshFunc sets the refresher used by the 401 recovery protocol.
// Can also be wired after construction via SetRefreshFunc to break the
// construction cycle with the session controller.
func WithRefreshFunc(fn RefreshFunc) Option {
	return func(c *Client) {
		c.refresh = fn
	}
}

// ErrMissingBaseURL indicates the client was constructed without a base URL.
var ErrMissingBaseURL = errors.New("api client base URL is required")

// New creates a Client for the given base URL. The base URL must carry the
// full API prefix; request paths are appended verbatim.
func New(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrMissingBaseURL
	}

	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		log:           logger.Discard(),
		sessionHeader: "X-Session-ID",
		userAgent:     "authcore-go/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetRefreshFunc wires the refresher after construction. The session
// controller calls this once during its own setup.
func (c *Client) SetRefreshFunc(fn RefreshFunc) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	c.refresh = fn
}

func (c *Client) refresher() RefreshFunc {
	c.refreshMu.RLock()
	defer c.refreshMu.RUnlock()
	return c.refresh
}

// RequestOption adjusts a single request.
type RequestOption func(*requestConfig)

type requestConfig struct {
	noAuth  bool
	noRetry bool
}

// WithoutAuth skips bearer header injection, for endpoints like login and
// refresh that authenticate by payload instead.
func WithoutAuth() RequestOption {
	return func(rc *requestConfig) {
		rc.noAuth = true
	}
}

// WithoutRetry disables the 401 refresh-retry protocol for this request.
// The refresh call itself must use this to avoid recursing into refresh.
func WithoutRetry() RequestOption {
	return func(rc *requestConfig) {
		rc.noRetry = true
	}
}

// Get issues a GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST request with a JSON body and decodes the response into out.
// Both body and out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	cfg := &requestConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	status, respBody, err := c.send(ctx, method, path, payload, cfg, "")
	if err != nil {
		return err
	}

	// One transparent refresh-and-retry per logical request, never more.
	if status.code == http.StatusUnauthorized && !cfg.noRetry {
		if refresh := c.refresher(); refresh != nil {
			newToken, refreshErr := c.sharedRefresh(ctx, refresh)
			if refreshErr != nil {
				c.log.Warn("token refresh failed, surfacing original 401",
					logger.Component("apiclient"),
					logger.Method(method), logger.Path(path),
					logger.Error(refreshErr),
				)
				return fmt.Errorf("%w: %w", ErrUnauthorized, classify(status.resp, respBody))
			}

			c.log.Debug("retrying request with refreshed token",
				logger.Component("apiclient"),
				logger.Method(method), logger.Path(path),
				logger.RetryCount(1),
			)
			if status, respBody, err = c.send(ctx, method, path, payload, cfg, newToken); err != nil {
				return err
			}
		}
	}

	if status.code == http.StatusUnauthorized {
		return fmt.Errorf("%w: %w", ErrUnauthorized, classify(status.resp, respBody))
	}
	if status.code >= 400 {
		return classify(status.resp, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// responseStatus keeps the response around for header-based classification
// after its body has been fully read and closed.
type responseStatus struct {
	code int
	resp *http.Response
}

// send performs one HTTP attempt. overrideToken replaces the stored access
// token on the post-refresh retry, where the store may lag the refresh result.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, cfg *requestConfig, overrideToken string) (responseStatus, []byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return responseStatus{}, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if !cfg.noAuth {
		token := overrideToken
		if token == "" && c.creds != nil {
			token = c.creds.AccessToken(ctx)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if c.creds != nil {
		if sessionID := c.creds.SessionID(ctx); sessionID != "" {
			req.Header.Set(c.sessionHeader, sessionID)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("request transport failure",
			logger.Component("apiclient"),
			logger.Method(method), logger.Path(path),
			logger.Error(err),
		)
		return responseStatus{}, nil, errors.Join(ErrNetwork, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return responseStatus{}, nil, errors.Join(ErrNetwork, err)
	}

	c.log.Debug("request completed",
		logger.Component("apiclient"),
		logger.Method(method), logger.Path(path),
		logger.StatusCode(resp.StatusCode),
		logger.Elapsed(start),
	)

	// Session correlation IDs from the server win over the stored one and
	// must be persisted before the caller observes the response.
	if c.creds != nil {
		if sessionID := resp.Header.Get(c.sessionHeader); sessionID != "" && sessionID != c.creds.SessionID(ctx) {
			if err := c.creds.SetSessionID(ctx, sessionID); err != nil {
				c.log.Warn("failed to persist session id",
					logger.Component("apiclient"),
					logger.SessionID(sessionID),
					logger.Error(err),
				)
			}
		}
	}

	return responseStatus{code: resp.StatusCode, resp: resp}, respBody, nil
}

// sharedRefresh funnels concurrent 401 handlers into a single refresh call.
func (c *Client) sharedRefresh(ctx context.Context, refresh RefreshFunc) (string, error) {
	token, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		return refresh(ctx)
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.log.Debug("refresh result shared across concurrent requests",
			logger.Component("apiclient"),
		)
	}
	return token.(string), nil
}
