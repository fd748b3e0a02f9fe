package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, db *gorm.DB, store cache.Store) {
	r.GET("/healthz", handlers.Health(db, store))
}
