package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/app"
	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/middleware"
)

// WorkerDependencies groups what the push worker serves from. Verifier may be nil to accept
// unauthenticated pushes.
type WorkerDependencies struct {
	DB         *gorm.DB
	Cache      cache.Store
	Dispatcher *jobs.Dispatcher
	Verifier   jobs.PushVerifier
}

// NewWorkerRouter builds the Gin engine for the worker: the Pub/Sub push endpoint plus health
// and metrics.
func NewWorkerRouter(deps WorkerDependencies, cfg *app.Config) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("job dispatcher must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	store := deps.Cache
	if store == nil {
		store = cache.NoopStore{}
	}

	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())

	registerHealthRoutes(r, deps.DB, store)

	push := jobs.NewPushHandler(deps.Dispatcher, deps.Verifier)
	r.POST("/pubsub/push", push.Handle)

	registerMetricsRoutes(r, cfg.Monitoring)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
