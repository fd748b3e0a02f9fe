package app

import (
	"strings"

	"github.com/charlesng35/stackapp/pkg/logger"
)

// ConfigureLogging initialises the global logger from the server section, defaulting to info.
// Non-production environments get the human-readable development encoder.
func ConfigureLogging(cfg ServerConfig) error {
	level := strings.TrimSpace(cfg.LogLevel)
	if level == "" {
		level = "info"
	}
	return logger.InitWithOptions(logger.Options{
		Level:       level,
		Development: !cfg.IsProduction(),
	})
}
