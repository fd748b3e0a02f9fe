package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/database/testutil"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/models"
)

func memoryDatabase() DatabaseConfig {
	return DatabaseConfig{
		Driver: "sqlite",
		DSN:    testutil.MemoryDSN(),
	}
}

func TestLoadConfigFrom(t *testing.T) {
	cfg, err := LoadConfigFrom("testdata")
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	cfg, err = LoadConfigFrom(filepath.Join("testdata", "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)

	_, err = LoadConfigFrom(filepath.Join("testdata", "missing"))
	require.ErrorContains(t, err, "does not exist")
}

func TestOpenRuntimeMigratesAndSeeds(t *testing.T) {
	rt, err := OpenRuntime(context.Background(), &Config{Database: memoryDatabase()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })

	var roles int64
	require.NoError(t, rt.DB.Model(&models.Role{}).Count(&roles).Error)
	require.EqualValues(t, 2, roles)
	require.IsType(t, cache.NoopStore{}, rt.Cache)
}

func TestOpenRuntimeRejectsUnknownDriver(t *testing.T) {
	_, err := OpenRuntime(context.Background(), &Config{Database: DatabaseConfig{Driver: "oracle"}})
	require.Error(t, err)

	_, err = OpenRuntime(context.Background(), nil)
	require.Error(t, err)
}

func TestOpenCacheStoreSelectsDriver(t *testing.T) {
	db, err := OpenDatabase(memoryDatabase())
	require.NoError(t, err)
	t.Cleanup(func() { _ = closeDatabase(db) })
	ctx := context.Background()

	require.IsType(t, &cache.DatabaseStore{}, OpenCacheStore(ctx, CacheConfig{Driver: "database"}, db))
	require.IsType(t, cache.NoopStore{}, OpenCacheStore(ctx, CacheConfig{Driver: "memcached"}, db))

	mr := miniredis.RunT(t)
	store := OpenCacheStore(ctx, CacheConfig{
		Driver: "redis",
		Redis:  RedisCacheConfig{Address: mr.Addr(), Timeout: time.Second},
	}, db)
	client, ok := store.(*cache.RedisClient)
	require.True(t, ok)
	require.NoError(t, client.Set(ctx, "probe", []byte("1"), time.Minute))
	require.NoError(t, client.Close())

	store = OpenCacheStore(ctx, CacheConfig{Driver: "redis", Redis: RedisCacheConfig{URL: "::not a url"}}, db)
	require.IsType(t, cache.NoopStore{}, store)
}

func TestRuntimeCleanerPurgesDatabaseCache(t *testing.T) {
	ctx := context.Background()
	rt, err := OpenRuntime(ctx, &Config{
		Database: memoryDatabase(),
		Cache:    CacheConfig{Driver: "database"},
	})
	require.NoError(t, err)

	require.NoError(t, rt.Cache.Set(ctx, "stale", []byte("1"), time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	require.NoError(t, rt.StartCleaner(MaintenanceConfig{CacheCleanupSchedule: "@hourly"}))
	require.True(t, rt.Cleaner.Enabled())
	require.NoError(t, rt.Cleaner.RunOnce(ctx))

	var remaining int64
	require.NoError(t, rt.DB.Model(&models.CacheEntry{}).Count(&remaining).Error)
	require.Zero(t, remaining)

	require.NoError(t, rt.Close(ctx))
}

func TestRuntimeAttachPublisherDisabledWithoutProject(t *testing.T) {
	rt := &Runtime{}
	require.NoError(t, rt.AttachPublisher(context.Background(), PubSubConfig{}))
	require.IsType(t, jobs.DisabledPublisher{}, rt.Publisher)
	require.NoError(t, rt.Close(context.Background()))
}
