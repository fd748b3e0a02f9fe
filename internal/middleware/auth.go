package middleware

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/models"
	"github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/response"
)

const (
	CtxUserKey   = "currentUser"
	CtxUserIDKey = "userID"
)

// Auth rejects requests without a valid session with 401 and stores the resolved user in the
// gin context.
func Auth(gate *iauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.RequireAuthenticated(c.Request)
		if err != nil {
			if !stderrors.Is(err, errors.ErrUnauthorized) {
				logger.WithModule("auth").Error("resolve session user", zap.Error(err))
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		setCurrentUser(c, user)
		c.Next()
	}
}

// OptionalAuth resolves the session user when present and never rejects the request. Lookup
// failures are logged and the request continues anonymously.
func OptionalAuth(gate *iauth.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := gate.ResolveCurrentUser(c.Request)
		if err != nil {
			logger.WithModule("auth").Warn("resolve session user", zap.Error(err))
		}
		if user != nil {
			setCurrentUser(c, user)
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Auth or OptionalAuth, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

func setCurrentUser(c *gin.Context, user *models.User) {
	c.Set(CtxUserKey, user)
	c.Set(CtxUserIDKey, user.ID)
}
