// Package testutil opens throwaway SQLite databases for package tests.
package testutil

import (
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/database"
)

type TestDBOption func(*schemaSetup)

type schemaSetup struct {
	migrate bool
	seed    bool
}

// WithAutoMigrate creates every table before the database is handed out.
func WithAutoMigrate() TestDBOption {
	return func(s *schemaSetup) { s.migrate = true }
}

// WithSeedData migrates and inserts the built-in roles.
func WithSeedData() TestDBOption {
	return func(s *schemaSetup) { s.migrate, s.seed = true, true }
}

// MemoryDSN names a fresh shared-cache in-memory SQLite database. Connections in one pool see
// the same data; different DSNs never do.
func MemoryDSN() string {
	q := url.Values{}
	q.Set("mode", "memory")
	q.Set("cache", "shared")
	q.Set("_foreign_keys", "1")
	return "file:" + uuid.NewString() + "?" + q.Encode()
}

// MustOpenTestDB opens a private in-memory database that is closed when t finishes.
func MustOpenTestDB(t *testing.T, opts ...TestDBOption) *gorm.DB {
	t.Helper()

	var setup schemaSetup
	for _, opt := range opts {
		opt(&setup)
	}

	db, err := database.Open(database.Config{Driver: "sqlite", DSN: MemoryDSN()})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	switch {
	case setup.seed:
		require.NoError(t, database.AutoMigrateAndSeed(db))
	case setup.migrate:
		require.NoError(t, database.AutoMigrate(db))
	}
	return db
}
