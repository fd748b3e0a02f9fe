package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charlesng35/stackapp/pkg/crypto"
)

const sessionSecretBytes = 48

// ErrMissingSessionSecret is returned in production when no session secret is configured.
var ErrMissingSessionSecret = errors.New("auth.session.secret must be set in production")

// ApplyRuntimeDefaults ensures critical secrets are populated even when no configuration file is supplied.
// It returns a map describing which keys were generated so callers can log the event without exposing values.
// In production a missing session secret is an error instead.
func ApplyRuntimeDefaults(cfg *Config) (map[string]bool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	generated := make(map[string]bool)

	if strings.TrimSpace(cfg.Auth.Session.Secret) == "" {
		if cfg.Server.IsProduction() {
			return nil, ErrMissingSessionSecret
		}
		secret, err := crypto.GenerateToken(sessionSecretBytes)
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Auth.Session.Secret = secret
		generated["auth.session.secret"] = true
	}

	return generated, nil
}
