package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/handlers"
	"github.com/charlesng35/stackapp/internal/middleware"
)

func registerPageRoutes(r *gin.Engine, handler *handlers.PageHandler, gate *iauth.Gate) {
	r.GET("/", middleware.OptionalAuth(gate), handler.Index)

	pages := r.Group("")
	pages.Use(middleware.Auth(gate))
	{
		pages.GET("/dashboard", handler.Dashboard)
		pages.POST("/todos", handler.CreateTodo)
		pages.POST("/todos/:id/toggle", handler.ToggleTodo)
		pages.POST("/todos/:id/delete", handler.DeleteTodo)
	}
}
