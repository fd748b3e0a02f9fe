package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/database"
	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/response"
)

const healthProbeTimeout = 2 * time.Second

// Health reports readiness. The database is required; the cache only degrades the report since
// every cached read falls back to the database.
func Health(db *gorm.DB, store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(requestContext(c), healthProbeTimeout)
		defer cancel()

		if err := database.Ping(ctx, db); err != nil {
			logger.WithModule("health").Warn("database unreachable", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, response.Response{
				Success: false,
				Data:    gin.H{"status": "unavailable", "database": "down"},
			})
			return
		}

		cacheStatus := "ok"
		if err := cache.Ping(ctx, store); err != nil {
			if stderrors.Is(err, cache.ErrDisabled) {
				cacheStatus = "disabled"
			} else {
				logger.WithModule("health").Warn("cache unreachable", zap.Error(err))
				cacheStatus = "degraded"
			}
		}

		response.Success(c, http.StatusOK, gin.H{
			"status":   "ok",
			"database": "ok",
			"cache":    cacheStatus,
		})
	}
}
