package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/handlers"
	"github.com/charlesng35/stackapp/internal/middleware"
)

func registerTodoRoutes(api *gin.RouterGroup, handler *handlers.TodoHandler, gate *iauth.Gate) {
	api.GET("/todos", middleware.Auth(gate), handler.List)
}
