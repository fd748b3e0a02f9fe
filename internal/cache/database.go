package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/stackapp/internal/models"
)

var errDatabaseStoreNil = errors.New("cache: database store not initialised")

// DatabaseStore keeps cache entries in the cache_entries table of the primary database, for
// deployments without Redis. Expired rows are hidden on read and purged by the maintenance job.
type DatabaseStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	if db == nil {
		return nil
	}
	return &DatabaseStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func byKey(keys ...string) clause.Expression {
	column := clause.Column{Name: "key"}
	if len(keys) == 1 {
		return clause.Eq{Column: column, Value: keys[0]}
	}
	values := make([]any, len(keys))
	for i := range keys {
		values[i] = keys[i]
	}
	return clause.IN{Column: column, Values: values}
}

func (s *DatabaseStore) live(entry *models.CacheEntry) bool {
	return entry.ExpiresAt.IsZero() || entry.ExpiresAt.After(s.now())
}

// IncrementWithTTL bumps the counter at key inside a row-locking transaction. The window starts
// on the first hit and is not extended by later ones.
func (s *DatabaseStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil {
		return 0, 0, errDatabaseStoreNil
	}
	if window <= 0 {
		window = time.Minute
	}

	now := s.now()
	entry := models.CacheEntry{Key: key}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where(byKey(key)).Take(&entry).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry.Value, entry.ExpiresAt = []byte("1"), now.Add(window)
			return tx.Create(&entry).Error
		case err != nil:
			return err
		}

		count := int64(1)
		if s.live(&entry) {
			prev, _ := strconv.ParseInt(string(entry.Value), 10, 64)
			count = prev + 1
		} else {
			entry.ExpiresAt = now.Add(window)
		}
		entry.Value = strconv.AppendInt(nil, count, 10)
		return tx.Save(&entry).Error
	})
	if err != nil {
		return 0, 0, err
	}

	count, _ := strconv.ParseInt(string(entry.Value), 10, 64)
	return count, entry.ExpiresAt.Sub(now), nil
}

// Set upserts value. ttl <= 0 stores it without expiry.
func (s *DatabaseStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil {
		return errDatabaseStoreNil
	}

	entry := models.CacheEntry{Key: key, Value: value}
	if ttl > 0 {
		entry.ExpiresAt = s.now().Add(ttl)
	}
	upsert := clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}
	return s.db.WithContext(ctx).Clauses(upsert).Create(&entry).Error
}

// Get reports a miss for absent and expired keys alike; an expired row is dropped on the way.
func (s *DatabaseStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, errDatabaseStoreNil
	}

	var entry models.CacheEntry
	err := s.db.WithContext(ctx).Where(byKey(key)).Take(&entry).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	case err != nil:
		return nil, false, err
	case !s.live(&entry):
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (s *DatabaseStore) Delete(ctx context.Context, keys ...string) error {
	if s == nil {
		return errDatabaseStoreNil
	}
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Where(byKey(keys...)).Delete(&models.CacheEntry{}).Error
}

// PurgeExpired deletes rows whose expiry has passed. Entries stored without a TTL are kept.
func (s *DatabaseStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, errDatabaseStoreNil
	}
	result := s.db.WithContext(ctx).
		Where("expires_at > ? AND expires_at <= ?", time.Time{}, s.now()).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	if s == nil {
		return errDatabaseStoreNil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
