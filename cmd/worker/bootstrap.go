package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/stackapp/internal/api"
	"github.com/charlesng35/stackapp/internal/app"
	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/services"
)

// workerStack bundles the worker's long-lived clients, its job dispatcher and router.
type workerStack struct {
	*app.Runtime
	Dispatcher *jobs.Dispatcher
	Router     *gin.Engine
}

func bootstrapWorker(ctx context.Context, cfg *app.Config, log *zap.Logger) (*workerStack, error) {
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	rt, err := app.OpenRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stack := &workerStack{Runtime: rt}
	success := false
	defer func() {
		if !success {
			if closeErr := rt.Close(context.Background()); closeErr != nil {
				log.Warn("runtime shutdown", zap.Error(closeErr))
			}
		}
	}()

	items, err := services.NewItemService(rt.DB, cache.NewAccessor(rt.Cache), nil, cfg.Cache.ItemServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise item service: %w", err)
	}

	stack.Dispatcher = jobs.NewDispatcher()
	stack.Dispatcher.Register(jobs.TypeProcessItem, jobs.HandlerFunc(items.HandleProcessItem))

	var verifier jobs.PushVerifier
	if cfg.PubSub.PushAuth.Enabled {
		oidcVerifier, err := jobs.NewOIDCPushVerifier(ctx, cfg.PubSub.PushAuthConfig())
		if err != nil {
			return nil, fmt.Errorf("initialise push verifier: %w", err)
		}
		verifier = oidcVerifier
		log.Info("push authentication enabled", zap.String("audience", cfg.PubSub.PushAuth.Audience))
	} else {
		log.Warn("push authentication disabled; the push endpoint accepts unauthenticated requests")
	}

	stack.Router, err = api.NewWorkerRouter(api.WorkerDependencies{
		DB:         rt.DB,
		Cache:      rt.Cache,
		Dispatcher: stack.Dispatcher,
		Verifier:   verifier,
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("build worker router: %w", err)
	}

	success = true
	return stack, nil
}
