package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/stackapp/internal/cache"
	"github.com/charlesng35/stackapp/internal/jobs"
	"github.com/charlesng35/stackapp/internal/models"
	apperrors "github.com/charlesng35/stackapp/pkg/errors"
	"github.com/charlesng35/stackapp/pkg/logger"
	appValidator "github.com/charlesng35/stackapp/pkg/validator"
)

const (
	// RecentItemsKey caches the public listing.
	RecentItemsKey = "items:recent"
	// RecentItemsLimit bounds the public listing.
	RecentItemsLimit = 100
	// DefaultRecentItemsTTL is how stale the listing may get; nothing invalidates it earlier.
	DefaultRecentItemsTTL = 30 * time.Second
)

// ItemSummary is the public projection of an item served by the listing.
type ItemSummary struct {
	ID          uint    `json:"id"`
	Slug        string  `json:"slug"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type CreateItemInput struct {
	Slug        string         `json:"slug" validate:"required,slug,max=100"`
	Name        string         `json:"name" validate:"required,max=255"`
	Description string         `json:"description" validate:"max=1024"`
	Attributes  map[string]any `json:"attributes"`
}

// ItemServiceConfig tunes caching of the listing.
type ItemServiceConfig struct {
	ListTTL time.Duration
	Clock   func() time.Time
}

// ItemService owns the item catalogue: the cached listing, creation, processing requests and the
// worker-side processing itself.
type ItemService struct {
	db        *gorm.DB
	cache     *cache.Accessor
	publisher jobs.Publisher
	listTTL   time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// NewItemService constructs an ItemService. A nil accessor disables caching and a nil publisher
// disables job publishing.
func NewItemService(db *gorm.DB, accessor *cache.Accessor, publisher jobs.Publisher, cfg ItemServiceConfig) (*ItemService, error) {
	if db == nil {
		return nil, errors.New("item service: db is required")
	}
	if accessor == nil {
		accessor = cache.NewAccessor(nil)
	}
	if publisher == nil {
		publisher = jobs.DisabledPublisher{}
	}
	ttl := cfg.ListTTL
	if ttl <= 0 {
		ttl = DefaultRecentItemsTTL
	}
	now := time.Now
	if cfg.Clock != nil {
		now = cfg.Clock
	}
	return &ItemService{
		db:        db,
		cache:     accessor,
		publisher: publisher,
		listTTL:   ttl,
		now:       now,
		log:       logger.WithModule("items"),
	}, nil
}

// ListRecent returns up to RecentItemsLimit items, newest first, served through the cache.
func (s *ItemService) ListRecent(ctx context.Context) ([]ItemSummary, error) {
	ctx = ensureContext(ctx)
	return cache.GetOrCompute(ctx, s.cache, RecentItemsKey, s.listTTL, s.loadRecent)
}

func (s *ItemService) loadRecent(ctx context.Context) ([]ItemSummary, error) {
	var items []models.Item
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(RecentItemsLimit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("item service: list recent: %w", err)
	}

	summaries := make([]ItemSummary, len(items))
	for i, item := range items {
		summaries[i] = ItemSummary{
			ID:          item.ID,
			Slug:        item.Slug,
			Name:        item.Name,
			Description: item.Description,
		}
	}
	return summaries, nil
}

func (s *ItemService) Create(ctx context.Context, input CreateItemInput) (*models.Item, error) {
	ctx = ensureContext(ctx)

	input.Slug = strings.TrimSpace(input.Slug)
	input.Name = strings.TrimSpace(input.Name)
	if err := appValidator.ValidateStruct(input); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}

	item := &models.Item{
		Slug:        input.Slug,
		Name:        input.Name,
		Description: optionalString(input.Description),
	}
	if len(input.Attributes) > 0 {
		item.Attributes = datatypes.JSONMap(input.Attributes)
	}

	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrSlugTaken
		}
		return nil, fmt.Errorf("item service: create: %w", err)
	}
	return item, nil
}

func (s *ItemService) Get(ctx context.Context, id uint) (*models.Item, error) {
	ctx = ensureContext(ctx)

	var item models.Item
	err := s.db.WithContext(ctx).Take(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("item service: get: %w", err)
	}
	return &item, nil
}

// RequestProcessing publishes a process_item job on behalf of requestedBy. Delivery is not
// confirmed; the worker tolerates ids that no longer exist.
func (s *ItemService) RequestProcessing(ctx context.Context, itemID uint, requestedBy string) {
	s.publisher.Publish(ensureContext(ctx), jobs.ProcessItemEvent(itemID, requestedBy))
}

// HandleProcessItem is the worker handler for process_item jobs. It stamps the item's
// LastProcessedAt, so running it again for the same delivery only moves the timestamp.
func (s *ItemService) HandleProcessItem(ctx context.Context, job jobs.Job) error {
	var payload jobs.ProcessItemPayload
	if err := job.Decode(&payload); err != nil {
		return err
	}
	if payload.ItemID == 0 {
		return jobs.Permanent(errors.New("process_item: missing item_id"))
	}

	processedAt := s.now().UTC()
	result := s.db.WithContext(ensureContext(ctx)).
		Model(&models.Item{}).
		Where("id = ?", payload.ItemID).
		Update("last_processed_at", processedAt)
	if result.Error != nil {
		return fmt.Errorf("process_item: update item %d: %w", payload.ItemID, result.Error)
	}
	if result.RowsAffected == 0 {
		return jobs.Permanent(fmt.Errorf("process_item: %w", ErrItemNotFound.WithInternal(fmt.Errorf("item %d", payload.ItemID))))
	}

	s.log.Info("item processed",
		zap.Uint("item_id", payload.ItemID),
		zap.String("requested_by", payload.RequestedBy),
		zap.String("message_id", job.MessageID),
	)
	return nil
}
