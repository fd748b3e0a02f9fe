package auth

import (
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the session cookie name used when none is configured.
const DefaultCookieName = "session"

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	MaxAge time.Duration
}

// CookieManager writes and clears the session cookie. The cookie is always HttpOnly and
// SameSite=Lax; Secure follows configuration so plain-HTTP development keeps working.
type CookieManager struct {
	name   string
	path   string
	domain string
	secure bool
	maxAge time.Duration
}

func NewCookieManager(cfg CookieConfig) *CookieManager {
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultCookieName
	}
	path := cfg.Path
	if path == "" {
		path = "/"
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultSessionMaxAge
	}
	return &CookieManager{
		name:   name,
		path:   path,
		domain: cfg.Domain,
		secure: cfg.Secure,
		maxAge: maxAge,
	}
}

func (m *CookieManager) Name() string { return m.name }

// MaxAge is the lifetime advertised to browsers and enforced on tokens.
func (m *CookieManager) MaxAge() time.Duration { return m.maxAge }

// Attach sets the session cookie carrying token.
func (m *CookieManager) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, m.cookie(token, int(m.maxAge/time.Second)))
}

// Clear instructs the client to drop the session cookie.
func (m *CookieManager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

// Read returns the session token from r, or "" when the cookie is absent.
func (m *CookieManager) Read(r *http.Request) string {
	if r == nil {
		return ""
	}
	cookie, err := r.Cookie(m.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (m *CookieManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
