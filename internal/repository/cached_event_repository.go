package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/henrychris/EventManagement/internal/domain"
	"github.com/henrychris/EventManagement/pkg/redis"
)

const (
	eventDetailKeyPrefix = "event:detail:"

	// Short TTL: ticket counts go stale quickly under load, and the
	// purchase path always reads fresh inside its transaction anyway.
	eventCacheTTL = 30 * time.Second
)

// CachedEventRepository wraps an EventRepository with a Redis read-through
// cache on GetByID. Writes pass through and invalidate. List queries are
// never cached; their result sets churn too much to be worth it.
type CachedEventRepository struct {
	repo  EventRepository
	cache *redis.Client
}

// NewCachedEventRepository creates a new CachedEventRepository
func NewCachedEventRepository(repo EventRepository, cache *redis.Client) *CachedEventRepository {
	return &CachedEventRepository{
		repo:  repo,
		cache: cache,
	}
}

// Create passes through; there is nothing cached for a new event yet.
func (r *CachedEventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.repo.Create(ctx, event)
}

// GetByID retrieves an event by ID with caching
func (r *CachedEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	cacheKey := eventDetailKeyPrefix + id
	cached, err := r.cache.Get(ctx, cacheKey).Result()
	if err == nil && cached != "" {
		var event domain.Event
		if err := json.Unmarshal([]byte(cached), &event); err == nil {
			return &event, nil
		}
	}

	event, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, nil
	}

	if data, err := json.Marshal(event); err == nil {
		// Cache write failures are invisible to callers; the next read just
		// misses again.
		r.cache.Set(ctx, cacheKey, data, eventCacheTTL)
	}

	return event, nil
}

// Update passes through and invalidates the cached detail
func (r *CachedEventRepository) Update(ctx context.Context, event *domain.Event) error {
	if err := r.repo.Update(ctx, event); err != nil {
		return err
	}
	r.cache.Del(ctx, eventDetailKeyPrefix+event.ID)
	return nil
}

// Delete passes through and invalidates the cached detail
func (r *CachedEventRepository) Delete(ctx context.Context, id string) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}
	r.cache.Del(ctx, eventDetailKeyPrefix+id)
	return nil
}

// Invalidate drops the cached detail for an event. The buy-ticket path calls
// this after committing so subsequent reads see the new ticket count.
func (r *CachedEventRepository) Invalidate(ctx context.Context, id string) error {
	return r.cache.Del(ctx, eventDetailKeyPrefix+id).Err()
}

// Search is not cached
func (r *CachedEventRepository) Search(ctx context.Context, criteria domain.SearchCriteria) ([]*domain.Event, error) {
	return r.repo.Search(ctx, criteria)
}

// GetWithAvailableTickets is not cached
func (r *CachedEventRepository) GetWithAvailableTickets(ctx context.Context, pageNumber, pageSize int, sort domain.EventSort) ([]*domain.Event, error) {
	return r.repo.GetWithAvailableTickets(ctx, pageNumber, pageSize, sort)
}
