package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/app"
	iauth "github.com/charlesng35/stackapp/internal/auth"
	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/handlers"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/middleware"
	"github.com/charlesng35/stackapp/internal/services"
	"github.com/charlesng35/stackapp/web"
)

// Dependencies groups the process-wide clients the web router serves from. Cache and Publisher
// may be nil, which selects their disabled variants.
type Dependencies struct {
	DB        *gorm.DB
	Gate      *iauth.Gate
	Cache     cache.Store
	Publisher jobs.Publisher
}

// NewRouter builds the Gin engine for the web server: HTML pages, the JSON API and operational
// endpoints.
func NewRouter(deps Dependencies, cfg *app.Config) (*gin.Engine, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("authorization gate must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	store := deps.Cache
	if store == nil {
		store = cache.NoopStore{}
	}

	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	userSvc, err := services.NewUserService(deps.DB)
	if err != nil {
		return nil, err
	}
	todoSvc, err := services.NewTodoService(deps.DB)
	if err != nil {
		return nil, err
	}
	itemSvc, err := services.NewItemService(deps.DB, cache.NewAccessor(store), deps.Publisher, cfg.Cache.ItemServiceConfig())
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(templates)

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders(cfg.Auth.Session.Secure))
	r.Use(middleware.CSRF(middleware.CSRFConfig{
		Enabled: cfg.Server.CSRF.Enabled,
		Secure:  cfg.Auth.Session.Secure,
	}))

	registerHealthRoutes(r, deps.DB, store)

	authHandler := handlers.NewAuthHandler(userSvc, deps.Gate.Codec(), deps.Gate.Cookies())
	loginLimiter := middleware.RateLimit(middleware.NewRateStore(store), cfg.Auth.RateLimitConfig())
	registerAuthRoutes(r, authHandler, deps.Gate, loginLimiter)

	registerPageRoutes(r, handlers.NewPageHandler(todoSvc), deps.Gate)

	api := r.Group("/api")
	registerTodoRoutes(api, handlers.NewTodoHandler(todoSvc), deps.Gate)
	registerItemRoutes(api, handlers.NewItemHandler(itemSvc), deps.Gate)
	registerAdminRoutes(api, handlers.NewUserHandler(userSvc), deps.Gate)

	registerMetricsRoutes(r, cfg.Monitoring)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
