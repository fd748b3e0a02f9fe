package cache

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled is returned by operations that have no meaning on the disabled store.
var ErrDisabled = errors.New("cache: disabled")

// Store represents a shared cache interface used across the application.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Pinger is implemented by stores that can report reachability for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping reports the reachability of store. Stores without a health probe are assumed reachable;
// the disabled store reports ErrDisabled.
func Ping(ctx context.Context, store Store) error {
	if store == nil {
		return ErrDisabled
	}
	if p, ok := store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
