package auth

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/models"
	apperrors "github.com/charlesng35/stackapp/pkg/errors"
)

// Gate resolves the caller's identity from the session cookie and enforces authentication and
// role requirements.
type Gate struct {
	db      *gorm.DB
	codec   *TokenCodec
	cookies *CookieManager
}

func NewGate(db *gorm.DB, codec *TokenCodec, cookies *CookieManager) (*Gate, error) {
	if db == nil {
		return nil, errors.New("gate: db is required")
	}
	if codec == nil {
		return nil, errors.New("gate: token codec is required")
	}
	if cookies == nil {
		cookies = NewCookieManager(CookieConfig{})
	}
	return &Gate{db: db, codec: codec, cookies: cookies}, nil
}

// Cookies exposes the cookie manager the gate reads from.
func (g *Gate) Cookies() *CookieManager { return g.cookies }

// Codec exposes the token codec used to verify sessions.
func (g *Gate) Codec() *TokenCodec { return g.codec }

// ResolveCurrentUser returns the active user named by the request's session, or nil when the
// cookie is missing, the token fails verification, or the user is unknown or inactive. Only
// storage failures are returned as errors.
func (g *Gate) ResolveCurrentUser(r *http.Request) (*models.User, error) {
	token := g.cookies.Read(r)
	if token == "" {
		return nil, nil
	}

	userID, ok := g.codec.Verify(token, g.cookies.MaxAge())
	if !ok {
		return nil, nil
	}

	var user models.User
	err := g.db.WithContext(r.Context()).
		Preload("Roles").
		Where("id = ? AND is_active = ?", userID, true).
		Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gate: load user: %w", err)
	}
	return &user, nil
}

// RequireAuthenticated returns the current user or ErrUnauthorized.
func (g *Gate) RequireAuthenticated(r *http.Request) (*models.User, error) {
	user, err := g.ResolveCurrentUser(r)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, apperrors.ErrUnauthorized
	}
	return user, nil
}

// RequireRole returns the current user when they hold any of roles or are a superuser.
// Unauthenticated callers get ErrUnauthorized, authenticated ones without a match ErrForbidden.
func (g *Gate) RequireRole(r *http.Request, roles ...string) (*models.User, error) {
	user, err := g.RequireAuthenticated(r)
	if err != nil {
		return nil, err
	}
	if !HasAnyRole(user, roles...) {
		return nil, apperrors.ErrForbidden
	}
	return user, nil
}

// HasAnyRole reports whether user may act under any of roles. Superusers always pass; otherwise
// the user's role names must intersect roles.
func HasAnyRole(user *models.User, roles ...string) bool {
	if user == nil {
		return false
	}
	if user.IsSuperuser {
		return true
	}

	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	for _, role := range user.Roles {
		if _, ok := allowed[role.Name]; ok {
			return true
		}
	}
	return false
}
