package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/stackapp/internal/api"
	"github.com/charlesng35/stackapp/internal/app"
	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/services"
)

// runtimeStack bundles long-lived clients and the HTTP router of the web server.
type runtimeStack struct {
	*app.Runtime
	Router *gin.Engine
}

// bootstrapRuntime initialises the database, cache, publisher, maintenance jobs and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	rt, err := app.OpenRuntime(ctx, cfg)
	if err != nil {
		return nil, err
	}
	stack := &runtimeStack{Runtime: rt}
	success := false
	defer func() {
		if !success {
			stack.Shutdown(context.Background(), log)
		}
	}()

	if err := stack.AttachPublisher(ctx, cfg.PubSub); err != nil {
		return nil, err
	}

	if err := ensureBootstrapAdmin(ctx, stack.Runtime, cfg.Auth, log); err != nil {
		return nil, err
	}

	if err := stack.StartCleaner(cfg.Maintenance); err != nil {
		return nil, err
	}

	codec, err := iauth.NewTokenCodec(cfg.Auth.TokenConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise token codec: %w", err)
	}
	gate, err := iauth.NewGate(stack.DB, codec, iauth.NewCookieManager(cfg.Auth.CookieConfig()))
	if err != nil {
		return nil, fmt.Errorf("initialise auth gate: %w", err)
	}

	stack.Router, err = api.NewRouter(api.Dependencies{
		DB:        stack.DB,
		Gate:      gate,
		Cache:     stack.Cache,
		Publisher: stack.Publisher,
	}, cfg)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

// ensureBootstrapAdmin provisions the configured superuser, if any.
func ensureBootstrapAdmin(ctx context.Context, rt *app.Runtime, cfg app.AuthConfig, log *zap.Logger) error {
	if !cfg.BootstrapEnabled() {
		return nil
	}

	users, err := services.NewUserService(rt.DB)
	if err != nil {
		return fmt.Errorf("initialise user service: %w", err)
	}
	user, created, err := users.EnsureSuperuser(ctx, cfg.BootstrapAdmin.Email, cfg.BootstrapAdmin.Password)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	log.Info("bootstrap admin ready", zap.String("email", user.Email), zap.Bool("created", created))
	return nil
}

// Shutdown stops background jobs and releases resources.
func (s *runtimeStack) Shutdown(ctx context.Context, log *zap.Logger) {
	if s == nil || s.Runtime == nil {
		return
	}
	if err := s.Runtime.Close(ctx); err != nil {
		log.Warn("runtime shutdown", zap.Error(err))
	}
}
