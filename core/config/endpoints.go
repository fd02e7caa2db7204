package config

// Remote auth endpoint paths, relative to APIConfig.BaseURL.
// The base URL carries any "/api" prefix; these paths never do.
const (
	EndpointLogin          = "/auth/login"
	EndpointRegister       = "/auth/register"
	EndpointRefresh        = "/auth/refresh"
	EndpointLogout         = "/auth/logout"
	EndpointMe             = "/auth/me"
	EndpointTwoFactorLogin = "/auth/2fa/login"
)
