package app

import (
	"strings"

	"github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/middleware"
)

// TokenConfig converts AuthConfig into the parameters expected by the session token codec.
func (c AuthConfig) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		Secret: c.Session.Secret,
		Issuer: strings.TrimSpace(c.Session.Issuer),
	}
}

// CookieConfig converts AuthConfig into session cookie attributes.
func (c AuthConfig) CookieConfig() auth.CookieConfig {
	maxAge := c.Session.MaxAge
	if maxAge <= 0 {
		maxAge = auth.DefaultSessionMaxAge
	}
	return auth.CookieConfig{
		Name:   strings.TrimSpace(c.Session.CookieName),
		Secure: c.Session.Secure,
		MaxAge: maxAge,
	}
}

// RateLimitConfig converts AuthConfig into the limiter applied to login and registration.
func (c AuthConfig) RateLimitConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		Requests: c.RateLimit.Requests,
		Window:   c.RateLimit.Window,
	}
}

// BootstrapEnabled reports whether a bootstrap superuser should be ensured at startup.
func (c AuthConfig) BootstrapEnabled() bool {
	return strings.TrimSpace(c.BootstrapAdmin.Email) != ""
}
