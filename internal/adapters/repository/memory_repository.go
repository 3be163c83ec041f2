package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

// InMemoryTrackerStore keeps trackers in a map. Values are cloned on the way
// in and out so callers never share state with the store.
type InMemoryTrackerStore struct {
	store      map[string]*domain.Tracker
	categories map[string]domain.Category
	position   int64

	mu sync.RWMutex
}

func NewInMemoryTrackerStore() *InMemoryTrackerStore {
	return &InMemoryTrackerStore{
		store:      make(map[string]*domain.Tracker),
		categories: make(map[string]domain.Category),
	}
}

func (r *InMemoryTrackerStore) Create(ctx context.Context, tracker *domain.Tracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[tracker.ID]; ok {
		return domain.ErrDuplicateID
	}

	r.position++
	tracker.Position = r.position
	r.store[tracker.ID] = tracker.Clone()
	return nil
}

func (r *InMemoryTrackerStore) GetByID(ctx context.Context, id string) (*domain.Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tracker, ok := r.store[id]
	if !ok {
		return nil, domain.ErrTrackerNotFound
	}
	return tracker.Clone(), nil
}

func (r *InMemoryTrackerStore) List(ctx context.Context) ([]*domain.Tracker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	trackers := make([]*domain.Tracker, 0, len(r.store))
	for _, t := range r.store {
		trackers = append(trackers, t.Clone())
	}

	sort.Slice(trackers, func(i, j int) bool {
		return trackers[i].Position < trackers[j].Position
	})

	return trackers, nil
}

func (r *InMemoryTrackerStore) Update(ctx context.Context, tracker *domain.Tracker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.store[tracker.ID]
	if !ok {
		return domain.ErrTrackerNotFound
	}

	updated := tracker.Clone()
	updated.Position = current.Position
	updated.CreatedAt = current.CreatedAt
	r.store[tracker.ID] = updated
	return nil
}

func (r *InMemoryTrackerStore) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[id]; !ok {
		return domain.ErrTrackerNotFound
	}

	delete(r.store, id)
	return nil
}

func (r *InMemoryTrackerStore) EnsureCategory(ctx context.Context, category domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[category.Label]; !ok {
		r.categories[category.Label] = category
	}
	return nil
}

func (r *InMemoryTrackerStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]domain.Category, 0, len(r.categories))
	for _, c := range r.categories {
		categories = append(categories, c)
	}

	sort.Slice(categories, func(i, j int) bool {
		return categories[i].Label < categories[j].Label
	})

	return categories, nil
}

type InMemoryRecordStore struct {
	store map[domain.RecordKey]domain.CompletionRecord

	mu sync.RWMutex
}

func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{
		store: make(map[domain.RecordKey]domain.CompletionRecord),
	}
}

func (r *InMemoryRecordStore) Create(ctx context.Context, record domain.CompletionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := record.Key()
	if _, ok := r.store[key]; ok {
		return domain.ErrDuplicateCompletion
	}

	r.store[key] = record
	return nil
}

func (r *InMemoryRecordStore) Delete(ctx context.Context, key domain.RecordKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.store[key]; !ok {
		return domain.ErrRecordNotFound
	}

	delete(r.store, key)
	return nil
}

func (r *InMemoryRecordStore) DeleteByTracker(ctx context.Context, trackerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key := range r.store {
		if key.TrackerID == trackerID {
			delete(r.store, key)
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRecordStore) Exists(ctx context.Context, key domain.RecordKey) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.store[key]
	return ok, nil
}

func (r *InMemoryRecordStore) List(ctx context.Context) ([]domain.CompletionRecord, error) {
	return r.filter(func(domain.CompletionRecord) bool { return true }), nil
}

func (r *InMemoryRecordStore) ListUpTo(ctx context.Context, day time.Time) ([]domain.CompletionRecord, error) {
	limit := domain.DayOf(day)
	return r.filter(func(rec domain.CompletionRecord) bool {
		return !rec.Date.After(limit)
	}), nil
}

func (r *InMemoryRecordStore) CountByTracker(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for key := range r.store {
		counts[key.TrackerID]++
	}
	return counts, nil
}

func (r *InMemoryRecordStore) filter(keep func(domain.CompletionRecord) bool) []domain.CompletionRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]domain.CompletionRecord, 0, len(r.store))
	for _, rec := range r.store {
		if keep(rec) {
			records = append(records, rec)
		}
	}

	sortRecords(records)
	return records
}

func sortRecords(records []domain.CompletionRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].TrackerID < records[j].TrackerID
	})
}
