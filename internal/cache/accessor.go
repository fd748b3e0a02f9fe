package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/stackapp/pkg/logger"
	"github.com/charlesng35/stackapp/pkg/metrics"
)

// Accessor implements the cache-aside read path on top of a Store. Store failures never reach
// callers: they are logged and the lookup behaves as a miss. Concurrent misses for the same key
// each compute and write independently.
type Accessor struct {
	store Store
	log   *zap.Logger
}

// NewAccessor wraps store. A nil store selects the disabled NoopStore.
func NewAccessor(store Store) *Accessor {
	if store == nil {
		store = NoopStore{}
	}
	return &Accessor{store: store, log: logger.WithModule("cache")}
}

// Store exposes the underlying store.
func (a *Accessor) Store() Store {
	return a.store
}

// GetOrCompute returns the cached value for key, or calls compute, stores its JSON encoding with
// ttl and returns it. Errors from compute are returned unchanged and nothing is cached.
func GetOrCompute[T any](ctx context.Context, a *Accessor, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	namespace := keyNamespace(key)

	if raw, ok := a.lookup(ctx, key, namespace); ok {
		var cached T
		err := json.Unmarshal(raw, &cached)
		if err == nil {
			metrics.CacheLookups.WithLabelValues(namespace, "hit").Inc()
			return cached, nil
		}
		a.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		a.log.Warn("cache value not encodable", zap.String("key", key), zap.Error(err))
		return value, nil
	}
	if err := a.store.Set(ctx, key, payload, ttl); err != nil {
		a.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return value, nil
}

func (a *Accessor) lookup(ctx context.Context, key, namespace string) ([]byte, bool) {
	raw, found, err := a.store.Get(ctx, key)
	switch {
	case err != nil:
		a.log.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		metrics.CacheLookups.WithLabelValues(namespace, "error").Inc()
		return nil, false
	case !found:
		metrics.CacheLookups.WithLabelValues(namespace, "miss").Inc()
		return nil, false
	default:
		return raw, true
	}
}

func keyNamespace(key string) string {
	if idx := strings.IndexByte(key, ':'); idx > 0 {
		return key[:idx]
	}
	return key
}
