package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

var _ domain.TrackerStore = (*CachedTrackerStore)(nil)

const (
	trackersCacheKey   = "kanso:trackers"
	categoriesCacheKey = "kanso:categories"
)

// CachedTrackerStore keeps the tracker and category lists in Redis in front
// of another store. Every write drops the cached lists. Redis failures are
// logged and fall through to the next store. A list whose invalidation failed
// is read from the next store until a later invalidation goes through.
type CachedTrackerStore struct {
	next  domain.TrackerStore
	cache *redis.Client
	ttl   time.Duration
	log   *zap.Logger

	mu    sync.Mutex
	stale map[string]bool
}

func NewCachedTrackerStore(next domain.TrackerStore, cache *redis.Client, ttl time.Duration, log *zap.Logger) *CachedTrackerStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedTrackerStore{
		next:  next,
		cache: cache,
		ttl:   ttl,
		log:   log.Named("cache"),
		stale: make(map[string]bool),
	}
}

func (r *CachedTrackerStore) invalidate(ctx context.Context, keys ...string) {
	err := r.cache.Del(ctx, keys...).Err()

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range keys {
		if err != nil {
			r.stale[key] = true
		} else {
			delete(r.stale, key)
		}
	}
	if err != nil {
		r.log.Warn("failed to invalidate, bypassing cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

// bypass reports whether key must not be served from Redis. It retries a
// pending invalidation first.
func (r *CachedTrackerStore) bypass(ctx context.Context, key string) bool {
	r.mu.Lock()
	stale := r.stale[key]
	r.mu.Unlock()
	if !stale {
		return false
	}

	r.invalidate(ctx, key)

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stale[key]
}

func cachedList[T any](ctx context.Context, r *CachedTrackerStore, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if r.bypass(ctx, key) {
		return load(ctx)
	}

	val, err := r.cache.Get(ctx, key).Result()
	if err == nil {
		var items []T
		if err := json.Unmarshal([]byte(val), &items); err == nil {
			return items, nil
		}

		r.log.Warn("corrupted cache entry, cleaning up key", zap.String("key", key))
		r.cache.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warn("redis read error", zap.String("key", key), zap.Error(err))
	}

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(items); err == nil {
		if setErr := r.cache.Set(ctx, key, data, r.ttl).Err(); setErr != nil {
			r.log.Warn("redis set error", zap.String("key", key), zap.Error(setErr))
		}
	}

	return items, nil
}

func (r *CachedTrackerStore) List(ctx context.Context) ([]*domain.Tracker, error) {
	return cachedList(ctx, r, trackersCacheKey, r.next.List)
}

func (r *CachedTrackerStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return cachedList(ctx, r, categoriesCacheKey, r.next.ListCategories)
}

func (r *CachedTrackerStore) GetByID(ctx context.Context, id string) (*domain.Tracker, error) {
	return r.next.GetByID(ctx, id)
}

func (r *CachedTrackerStore) Create(ctx context.Context, tracker *domain.Tracker) error {
	if err := r.next.Create(ctx, tracker); err != nil {
		return err
	}
	r.invalidate(ctx, trackersCacheKey)
	return nil
}

func (r *CachedTrackerStore) Update(ctx context.Context, tracker *domain.Tracker) error {
	if err := r.next.Update(ctx, tracker); err != nil {
		return err
	}
	r.invalidate(ctx, trackersCacheKey)
	return nil
}

func (r *CachedTrackerStore) Delete(ctx context.Context, id string) error {
	if err := r.next.Delete(ctx, id); err != nil {
		return err
	}
	r.invalidate(ctx, trackersCacheKey)
	return nil
}

func (r *CachedTrackerStore) EnsureCategory(ctx context.Context, category domain.Category) error {
	if err := r.next.EnsureCategory(ctx, category); err != nil {
		return err
	}
	r.invalidate(ctx, categoriesCacheKey)
	return nil
}
