package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/app/maintenance"
	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/database"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/pkg/logger"
)

// Runtime bundles the process-wide clients shared by the web server and the worker. Fields a
// process does not need stay nil.
type Runtime struct {
	DB        *gorm.DB
	Cache     cache.Store
	Publisher jobs.Publisher
	Cleaner   *maintenance.Cleaner
}

// LoadConfigFrom resolves the --config flag: empty searches the default locations, a directory
// is searched for config.yaml, and a file path searches the file's directory.
func LoadConfigFrom(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return LoadConfig(path)
	case err == nil:
		return LoadConfig(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	default:
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

// OpenRuntime connects to the database, applies migrations and seeds, and selects the cache
// backend. Publisher and Cleaner are left for the caller to attach.
func OpenRuntime(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	db, err := OpenDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		DB:    db,
		Cache: OpenCacheStore(ctx, cfg.Cache, db),
	}, nil
}

// OpenDatabase opens the configured database and brings its schema up to date.
func OpenDatabase(cfg DatabaseConfig) (*gorm.DB, error) {
	conn := cfg.ConnectionConfig()
	db, err := database.Open(conn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		_ = closeDatabase(db)
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	driver := conn.Driver
	if driver == "" {
		driver = "sqlite"
	}
	logger.WithModule("database").Info("database connected", zap.String("driver", driver))
	return db, nil
}

// OpenCacheStore selects the cache backend named by cfg. A Redis server that is unreachable at
// startup is kept anyway: reads degrade to the database until it comes back.
func OpenCacheStore(ctx context.Context, cfg CacheConfig, db *gorm.DB) cache.Store {
	log := logger.WithModule("cache")

	switch cfg.NormalizedDriver() {
	case CacheDriverRedis:
		client, err := cache.NewRedisClient(cfg.RedisClientConfig())
		if err != nil {
			log.Warn("redis misconfigured; caching disabled", zap.Error(err))
			return cache.NoopStore{}
		}
		if err := cache.Ping(ctx, client); err != nil {
			log.Warn("redis unreachable at startup", zap.Error(err))
		} else {
			log.Info("redis connected")
		}
		return client
	case CacheDriverDatabase:
		if store := cache.NewDatabaseStore(db); store != nil {
			log.Info("database cache enabled")
			return store
		}
		return cache.NoopStore{}
	default:
		log.Info("caching disabled")
		return cache.NoopStore{}
	}
}

// AttachPublisher builds the job publisher from the pubsub section.
func (r *Runtime) AttachPublisher(ctx context.Context, cfg PubSubConfig) error {
	publisher, err := jobs.NewPublisher(ctx, cfg.PublisherConfig())
	if err != nil {
		return fmt.Errorf("initialise publisher: %w", err)
	}
	r.Publisher = publisher
	return nil
}

// StartCleaner schedules purging of expired cache rows. Only the database cache needs it.
func (r *Runtime) StartCleaner(cfg MaintenanceConfig) error {
	var opts []maintenance.Option
	opts = append(opts, maintenance.WithSchedule(strings.TrimSpace(cfg.CacheCleanupSchedule)))
	if store, ok := r.Cache.(*cache.DatabaseStore); ok {
		opts = append(opts, maintenance.WithPurger("cache_entries", store))
	}

	r.Cleaner = maintenance.NewCleaner(opts...)
	if err := r.Cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	return nil
}

// Close releases everything in reverse order of construction and reports every failure.
func (r *Runtime) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}

	var errs error
	if r.Cleaner != nil {
		select {
		case <-r.Cleaner.Stop().Done():
		case <-ctx.Done():
		}
		if r.Cleaner.Enabled() {
			errs = multierr.Append(errs, r.Cleaner.RunOnce(ctx))
		}
	}
	if r.Publisher != nil {
		errs = multierr.Append(errs, r.Publisher.Close())
	}
	if rc, ok := r.Cache.(*cache.RedisClient); ok && rc != nil {
		errs = multierr.Append(errs, rc.Close())
	}
	if r.DB != nil {
		errs = multierr.Append(errs, closeDatabase(r.DB))
	}
	return errs
}

func closeDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("obtain sql DB: %w", err)
	}
	return sqlDB.Close()
}
