package services

import (
	"context"
	"slices"
	"strings"
)

// ensureContext lets callers pass a nil context from tests and background jobs.
func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// normaliseNames trims role names, dropping blanks and repeats. First occurrence wins.
func normaliseNames(values []string) []string {
	var out []string
	for _, raw := range values {
		name := strings.TrimSpace(raw)
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// optionalString maps blank form input to NULL.
func optionalString(value string) *string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return &trimmed
	}
	return nil
}
