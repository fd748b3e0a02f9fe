package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/metrics"
	"github.com/charlesng35/stackapp/pkg/response"
)

// RequireRole admits users holding any of roles, and superusers. It reuses the user stored by
// Auth when present, otherwise it resolves the session itself.
func RequireRole(gate *iauth.Gate, roles ...string) gin.HandlerFunc {
	label := strings.Join(roles, "|")

	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			resolved, err := gate.RequireAuthenticated(c.Request)
			if err != nil {
				metrics.RoleChecks.WithLabelValues(label, "unauthenticated").Inc()
				response.Error(c, err)
				c.Abort()
				return
			}
			user = resolved
			setCurrentUser(c, user)
		}

		if !iauth.HasAnyRole(user, roles...) {
			metrics.RoleChecks.WithLabelValues(label, "denied").Inc()
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		metrics.RoleChecks.WithLabelValues(label, "allowed").Inc()
		c.Next()
	}
}
