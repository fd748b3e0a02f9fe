package api

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/handlers"
	"github.com/charlesng35/stackapp/internal/middleware"
)

func registerAuthRoutes(r *gin.Engine, handler *handlers.AuthHandler, gate *iauth.Gate, limiter gin.HandlerFunc) {
	auth := r.Group("/auth")
	auth.Use(middleware.OptionalAuth(gate))
	{
		auth.GET("/login", handler.LoginForm)
		auth.POST("/login", limiter, handler.Login)
		auth.GET("/register", handler.RegisterForm)
		auth.POST("/register", limiter, handler.Register)
		auth.POST("/logout", handler.Logout)
	}

	r.GET("/api/me", middleware.Auth(gate), handler.Me)
}
