package cache

import (
	"context"
	"time"
)

// NoopStore is the disabled cache. Every lookup misses and every write is discarded, so callers
// always fall through to their source of truth.
type NoopStore struct{}

func (NoopStore) IncrementWithTTL(context.Context, string, time.Duration) (int64, time.Duration, error) {
	return 0, 0, ErrDisabled
}

func (NoopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopStore) Delete(context.Context, ...string) error { return nil }

func (NoopStore) Ping(context.Context) error { return ErrDisabled }
