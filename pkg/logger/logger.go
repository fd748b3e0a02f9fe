// Package logger holds the process-wide zap logger. Until InitWithOptions runs every call is a
// no-op, which keeps package tests quiet.
package logger

import (
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var current atomic.Pointer[zap.Logger]

func init() {
	current.Store(zap.NewNop())
}

// Options tune the global logger. The zero value yields a production JSON logger at info level.
type Options struct {
	Level       string
	Development bool
}

// InitWithOptions builds and installs the global logger. Development mode switches to the
// colourless console encoder with caller and stack traces from warn upwards.
func InitWithOptions(opts Options) error {
	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	Replace(built)
	return nil
}

// ParseLevel maps names such as "debug" or "WARN" to a zap level, defaulting to info.
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Replace swaps the global logger; nil installs a no-op logger. Tests use it with an observer core.
func Replace(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}

func Logger() *zap.Logger {
	return current.Load()
}

// WithModule returns a child logger tagged with module, the field every component logs under.
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

func Sync() error {
	return Logger().Sync()
}
