package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/stackapp/pkg/crypto"
	"github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/response"
)

const (
	CSRFCookieName = "stackapp_csrf"
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField is the hidden input the page templates render the token into.
	CSRFFormField = "csrf_token"

	ctxCSRFTokenKey = "csrfToken"
	csrfTokenBytes  = 32
	csrfCookieTTL   = 12 * time.Hour
)

type CSRFConfig struct {
	Enabled bool
	// Secure forces the Secure cookie attribute even for plain-HTTP requests (TLS terminated
	// upstream without X-Forwarded-Proto).
	Secure bool
}

// csrfGuard implements double-submit cookies: the token lives in a cookie scripts and forms can
// read, and every state-changing request must echo it back.
type csrfGuard struct {
	secure bool
	log    *zap.Logger
}

// CSRF returns the double-submit middleware, or a pass-through when cfg.Enabled is false. Safe
// requests get the token in the response header and via CSRFToken for templates. POST, PUT, PATCH
// and DELETE must present it in the X-CSRF-Token header or the csrf_token form field.
func CSRF(cfg CSRFConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }
	}
	guard := &csrfGuard{secure: cfg.Secure, log: logger.WithModule("csrf")}
	return guard.handle
}

func (g *csrfGuard) handle(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		c.Next()
		return
	}

	token, issued, err := g.token(c)
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		c.Abort()
		return
	}
	c.Set(ctxCSRFTokenKey, token)

	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		if !tokensMatch(token, presentedCSRFToken(c)) {
			g.log.Warn("csrf validation failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.Bool("cookie_issued", issued),
			)
			response.Error(c, errors.ErrCSRFInvalid)
			c.Abort()
			return
		}
	default:
		c.Header(CSRFHeaderName, token)
	}
	c.Next()
}

// token reuses the request's cookie or mints a new one; issued reports the latter.
func (g *csrfGuard) token(c *gin.Context) (token string, issued bool, err error) {
	if existing, _ := c.Cookie(CSRFCookieName); existing != "" {
		return existing, false, nil
	}

	token, err = crypto.GenerateToken(csrfTokenBytes)
	if err != nil {
		return "", false, err
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(csrfCookieTTL / time.Second),
		Secure:   g.secure || requestIsHTTPS(c.Request),
		SameSite: http.SameSiteStrictMode,
	})
	return token, true, nil
}

func presentedCSRFToken(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader(CSRFHeaderName)); header != "" {
		return header
	}
	return strings.TrimSpace(c.PostForm(CSRFFormField))
}

// CSRFToken returns the token for embedding into forms, or "" when protection is disabled.
func CSRFToken(c *gin.Context) string {
	return c.GetString(ctxCSRFTokenKey)
}

func requestIsHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func tokensMatch(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
