package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/handlers"
	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/models"
)

func registerAdminRoutes(api *gin.RouterGroup, handler *handlers.UserHandler, gate *iauth.Gate) {
	users := api.Group("/admin/users")
	users.Use(middleware.Auth(gate), middleware.RequireRole(gate, models.RoleAdmin))
	{
		users.GET("", handler.List)
		users.PUT("/:id/roles", handler.SetRoles)
		users.PATCH("/:id", handler.Update)
		users.DELETE("/:id", handler.Delete)
	}
}
