package services_test

import (
	"context"
	"sort"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

type MockTrackerRepo struct {
	store         map[string]*domain.Tracker
	categories    map[string]domain.Category
	position      int64
	simulateError error
}

func NewMockTrackerRepo() *MockTrackerRepo {
	return &MockTrackerRepo{
		store:      make(map[string]*domain.Tracker),
		categories: make(map[string]domain.Category),
	}
}

func (m *MockTrackerRepo) Create(ctx context.Context, tracker *domain.Tracker) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, exists := m.store[tracker.ID]; exists {
		return domain.ErrDuplicateID
	}
	m.position++
	tracker.Position = m.position
	m.store[tracker.ID] = tracker.Clone()
	return nil
}

func (m *MockTrackerRepo) GetByID(ctx context.Context, id string) (*domain.Tracker, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrTrackerNotFound
	}
	return t.Clone(), nil
}

func (m *MockTrackerRepo) List(ctx context.Context) ([]*domain.Tracker, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	list := make([]*domain.Tracker, 0, len(m.store))
	for _, t := range m.store {
		list = append(list, t.Clone())
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	return list, nil
}

func (m *MockTrackerRepo) Update(ctx context.Context, tracker *domain.Tracker) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, ok := m.store[tracker.ID]; !ok {
		return domain.ErrTrackerNotFound
	}
	m.store[tracker.ID] = tracker.Clone()
	return nil
}

func (m *MockTrackerRepo) Delete(ctx context.Context, id string) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, ok := m.store[id]; !ok {
		return domain.ErrTrackerNotFound
	}
	delete(m.store, id)
	return nil
}

func (m *MockTrackerRepo) EnsureCategory(ctx context.Context, category domain.Category) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	m.categories[category.Label] = category
	return nil
}

func (m *MockTrackerRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var list []domain.Category
	for _, c := range m.categories {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Label < list[j].Label })
	return list, nil
}

type MockRecordRepo struct {
	store         map[domain.RecordKey]domain.CompletionRecord
	simulateError error
}

func NewMockRecordRepo() *MockRecordRepo {
	return &MockRecordRepo{store: make(map[domain.RecordKey]domain.CompletionRecord)}
}

func (m *MockRecordRepo) Create(ctx context.Context, record domain.CompletionRecord) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, ok := m.store[record.Key()]; ok {
		return domain.ErrDuplicateCompletion
	}
	m.store[record.Key()] = record
	return nil
}

func (m *MockRecordRepo) Delete(ctx context.Context, key domain.RecordKey) error {
	if m.simulateError != nil {
		return m.simulateError
	}
	if _, ok := m.store[key]; !ok {
		return domain.ErrRecordNotFound
	}
	delete(m.store, key)
	return nil
}

func (m *MockRecordRepo) DeleteByTracker(ctx context.Context, trackerID string) (int, error) {
	if m.simulateError != nil {
		return 0, m.simulateError
	}
	n := 0
	for k := range m.store {
		if k.TrackerID == trackerID {
			delete(m.store, k)
			n++
		}
	}
	return n, nil
}

func (m *MockRecordRepo) Exists(ctx context.Context, key domain.RecordKey) (bool, error) {
	if m.simulateError != nil {
		return false, m.simulateError
	}
	_, ok := m.store[key]
	return ok, nil
}

func (m *MockRecordRepo) List(ctx context.Context) ([]domain.CompletionRecord, error) {
	return m.ListUpTo(ctx, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (m *MockRecordRepo) ListUpTo(ctx context.Context, day time.Time) ([]domain.CompletionRecord, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	var list []domain.CompletionRecord
	for _, r := range m.store {
		if !r.Date.After(day) {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date.Before(list[j].Date) })
	return list, nil
}

func (m *MockRecordRepo) CountByTracker(ctx context.Context) (map[string]int, error) {
	if m.simulateError != nil {
		return nil, m.simulateError
	}
	counts := make(map[string]int)
	for k := range m.store {
		counts[k.TrackerID]++
	}
	return counts, nil
}

// testify mocks for the stats service, which only reads.

type MockTrackerLister struct {
	mock.Mock
	domain.TrackerStore
}

func (m *MockTrackerLister) List(ctx context.Context) ([]*domain.Tracker, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Tracker), args.Error(1)
}

type MockRecordLister struct {
	mock.Mock
	domain.RecordStore
}

func (m *MockRecordLister) List(ctx context.Context) ([]domain.CompletionRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CompletionRecord), args.Error(1)
}

var (
	// Wednesday 2024-05-15.
	today = time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func draft(label, category string, schedule *domain.Schedule) domain.TrackerData {
	return domain.TrackerData{
		Label:    label,
		Emoji:    "🏃",
		Color:    "#33AA55",
		Category: &domain.Category{Label: category},
		Schedule: schedule,
	}
}
