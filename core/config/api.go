package config

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// ErrInvalidBaseURL indicates the configured base URL cannot be used.
var ErrInvalidBaseURL = errors.New("invalid API base URL")

// APIConfig holds the settings for the outbound API client.
//
// BaseURL must include the full path prefix of the remote API (for example
// "https://api.evalhub.io" or "https://evalhub.io/api"); endpoint paths are
// appended verbatim.
type APIConfig struct {
	BaseURL       string        `env:"AUTH_API_BASE_URL,required"`
	Timeout       time.Duration `env:"AUTH_API_TIMEOUT" envDefault:"30s"`
	SessionHeader string        `env:"AUTH_SESSION_HEADER" envDefault:"X-Session-ID"`
	UserAgent     string        `env:"AUTH_USER_AGENT" envDefault:"authcore-go/1.0"`
}

// Validate checks the base URL once at startup so that per-request code never
// has to deal with prefix ambiguity.
func (c APIConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return errors.Join(ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ErrInvalidBaseURL
	}
	if u.Host == "" {
		return ErrInvalidBaseURL
	}
	return nil
}

// NormalizedBaseURL returns the base URL without a trailing slash, so joining
// with the "/auth/..." endpoint constants never doubles a separator.
func (c APIConfig) NormalizedBaseURL() string {
	return strings.TrimRight(c.BaseURL, "/")
}
