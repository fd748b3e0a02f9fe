package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/handlers"
	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/models"
)

func registerItemRoutes(api *gin.RouterGroup, handler *handlers.ItemHandler, gate *iauth.Gate) {
	items := api.Group("/items")
	{
		items.GET("", handler.List)
		items.POST("", middleware.RequireRole(gate, models.RoleAdmin, models.RoleEditor), handler.Create)
		items.POST("/:id/process", middleware.Auth(gate), handler.Process)
	}
}
