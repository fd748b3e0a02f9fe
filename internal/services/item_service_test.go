package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/database/testutil"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/models"
)

type capturePublisher struct {
	mu        sync.Mutex
	envelopes []jobs.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, env jobs.Envelope) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.envelopes = append(p.envelopes, env)
}

func (p *capturePublisher) Close() error { return nil }

type itemFixture struct {
	db        *gorm.DB
	svc       *ItemService
	redis     *miniredis.Miniredis
	publisher *capturePublisher
	now       time.Time
}

func newItemFixture(t *testing.T) *itemFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	store := cache.NewRedisClientFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")

	fx := &itemFixture{
		db:        testutil.MustOpenTestDB(t, testutil.WithSeedData()),
		redis:     mr,
		publisher: &capturePublisher{},
		now:       time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC),
	}
	svc, err := NewItemService(fx.db, cache.NewAccessor(store), fx.publisher, ItemServiceConfig{
		Clock: func() time.Time { return fx.now },
	})
	require.NoError(t, err)
	fx.svc = svc
	return fx
}

func (fx *itemFixture) seed(t *testing.T, count int) {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= count; i++ {
		item := models.Item{
			Slug:      fmt.Sprintf("item-%03d", i),
			Name:      fmt.Sprintf("Item %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, fx.db.Create(&item).Error)
	}
}

func TestListRecentCapsAndOrders(t *testing.T) {
	fx := newItemFixture(t)
	fx.seed(t, RecentItemsLimit+5)

	items, err := fx.svc.ListRecent(context.Background())
	require.NoError(t, err)
	require.Len(t, items, RecentItemsLimit)
	require.Equal(t, "item-105", items[0].Slug)
	require.Equal(t, "item-006", items[len(items)-1].Slug)
}

func TestListRecentServesFromCacheUntilTTL(t *testing.T) {
	fx := newItemFixture(t)
	fx.seed(t, 2)
	ctx := context.Background()

	first, err := fx.svc.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, first, 2)

	raw, err := fx.redis.Get("test:" + RecentItemsKey)
	require.NoError(t, err)
	var cached []ItemSummary
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	require.Equal(t, first, cached)

	_, err = fx.svc.Create(ctx, CreateItemInput{Slug: "fresh", Name: "Fresh"})
	require.NoError(t, err)

	stale, err := fx.svc.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, stale, 2, "listing stays stale until the entry expires")

	fx.redis.FastForward(DefaultRecentItemsTTL + time.Second)
	fresh, err := fx.svc.ListRecent(ctx)
	require.NoError(t, err)
	require.Len(t, fresh, 3)
	require.Equal(t, "fresh", fresh[0].Slug)
}

func TestListRecentWithoutCache(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithSeedData())
	svc, err := NewItemService(db, nil, nil, ItemServiceConfig{})
	require.NoError(t, err)

	items, err := svc.ListRecent(context.Background())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestCreateItem(t *testing.T) {
	fx := newItemFixture(t)
	ctx := context.Background()

	item, err := fx.svc.Create(ctx, CreateItemInput{
		Slug:        "blue-widget",
		Name:        "Blue widget",
		Description: "A widget",
		Attributes:  map[string]any{"color": "blue"},
	})
	require.NoError(t, err)
	require.NotZero(t, item.ID)
	require.Equal(t, "blue", item.Attributes["color"])

	_, err = fx.svc.Create(ctx, CreateItemInput{Slug: "blue-widget", Name: "Again"})
	require.ErrorIs(t, err, ErrSlugTaken)

	_, err = fx.svc.Create(ctx, CreateItemInput{Slug: "Not A Slug", Name: "Bad"})
	require.Error(t, err)

	loaded, err := fx.svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, "blue", loaded.Attributes["color"])

	_, err = fx.svc.Get(ctx, 9999)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestRequestProcessingPublishesEvent(t *testing.T) {
	fx := newItemFixture(t)

	fx.svc.RequestProcessing(context.Background(), 7, "user-1")

	require.Len(t, fx.publisher.envelopes, 1)
	payload, err := json.Marshal(fx.publisher.envelopes[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"process_item","item_id":7,"requested_by":"user-1"}`, string(payload))
}

func processJob(t *testing.T, payload string) jobs.Job {
	t.Helper()
	return jobs.Job{Type: jobs.TypeProcessItem, MessageID: "m-1", Raw: json.RawMessage(payload)}
}

func TestHandleProcessItemIsRepeatable(t *testing.T) {
	fx := newItemFixture(t)
	fx.seed(t, 1)
	ctx := context.Background()
	job := processJob(t, `{"type":"process_item","item_id":1,"requested_by":"user-1"}`)

	require.NoError(t, fx.svc.HandleProcessItem(ctx, job))
	first, err := fx.svc.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, first.LastProcessedAt)
	require.True(t, first.LastProcessedAt.Equal(fx.now))

	fx.now = fx.now.Add(time.Minute)
	require.NoError(t, fx.svc.HandleProcessItem(ctx, job))
	second, err := fx.svc.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, second.LastProcessedAt.Equal(fx.now))
}

func TestHandleProcessItemPermanentFailures(t *testing.T) {
	fx := newItemFixture(t)
	ctx := context.Background()

	for _, payload := range []string{
		`{"type":"process_item","item_id":404}`,
		`{"type":"process_item"}`,
		`{"type":"process_item","item_id":"seven"}`,
	} {
		err := fx.svc.HandleProcessItem(ctx, processJob(t, payload))
		require.ErrorIs(t, err, jobs.ErrPermanent, payload)
	}
}
