package maintenance

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/stackapp/pkg/logger"
)

const defaultCacheSpec = "@hourly"

// ExpiredPurger removes expired rows and reports how many were deleted.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Cleaner coordinates background maintenance tasks, currently purging expired rows of the
// database-backed cache. Redis expires keys on its own and needs no purger.
type Cleaner struct {
	purgers   map[string]ExpiredPurger
	cron      *cron.Cron
	log       *zap.Logger
	schedule  string
	timeout   time.Duration
	scheduled bool
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithSchedule overrides the cron specification for the purge jobs.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// WithPurger registers a named purge target. Nil purgers are ignored.
func WithPurger(name string, purger ExpiredPurger) Option {
	return func(cleaner *Cleaner) {
		if purger != nil {
			cleaner.purgers[name] = purger
		}
	}
}

// NewCleaner constructs a Cleaner. Without purgers Start is a no-op.
func NewCleaner(opts ...Option) *Cleaner {
	cleaner := &Cleaner{
		purgers:  make(map[string]ExpiredPurger),
		schedule: defaultCacheSpec,
		timeout:  time.Minute,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return cleaner
}

// Enabled reports whether any purge target is registered.
func (c *Cleaner) Enabled() bool {
	return len(c.purgers) > 0
}

// Start registers the purge job with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if !c.Enabled() {
		return nil
	}

	if _, err := c.cron.AddFunc(c.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if err := c.RunOnce(ctx); err != nil {
			c.log.Warn("cache cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	c.scheduled = true
	return nil
}

// Stop halts the underlying scheduler. The returned context is done once running jobs have
// completed; it is already done when nothing was scheduled.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil || !c.scheduled {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return c.cron.Stop()
}

// RunOnce executes every purge sequentially and aggregates their failures.
func (c *Cleaner) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	for name, purger := range c.purgers {
		removed, err := purger.PurgeExpired(ctx)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if removed > 0 {
			c.log.Info("purged expired entries", zap.String("target", name), zap.Int64("removed", removed))
		}
	}
	return errs
}
