package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/metrics"
)

type ChangeKind string

const (
	ChangeCreated    ChangeKind = "created"
	ChangeUpdated    ChangeKind = "updated"
	ChangeDeleted    ChangeKind = "deleted"
	ChangePinned     ChangeKind = "pinned"
	ChangeProjection ChangeKind = "projection"
)

// TrackerChange is published after every committed mutation and every
// recomputation. Shape is the projection the change left behind.
type TrackerChange struct {
	Kind      ChangeKind
	TrackerID string
	Shape     domain.Shape
}

// TrackerService owns the canonical tracker set and the visible projection
// derived from it. Like the ledger it expects a single caller at a time.
type TrackerService struct {
	store  domain.TrackerStore
	ledger *CompletionLedger
	engine *VisibilityEngine
	log    *zap.Logger
	events Broadcaster[TrackerChange]
}

func NewTrackerService(store domain.TrackerStore, ledger *CompletionLedger, log *zap.Logger) *TrackerService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &TrackerService{
		store:  store,
		ledger: ledger,
		engine: NewVisibilityEngine(ledger.CompletionCount),
		log:    log,
	}
	s.engine.Reset(domain.Filter{Date: ledger.now()})
	return s
}

func (s *TrackerService) Subscribe(fn func(TrackerChange)) (unsubscribe func()) {
	return s.events.Subscribe(fn)
}

// CreateTracker validates a draft and adds the resulting tracker.
func (s *TrackerService) CreateTracker(ctx context.Context, data domain.TrackerData) (*domain.Tracker, error) {
	tracker, err := domain.NewTracker(data)
	if err != nil {
		return nil, err
	}
	if err := s.AddTracker(ctx, tracker, tracker.Category); err != nil {
		return nil, err
	}
	return s.withCount(tracker), nil
}

// AddTracker persists tracker under category, creating the category on first use.
func (s *TrackerService) AddTracker(ctx context.Context, tracker *domain.Tracker, category domain.Category) error {
	category = domain.NewCategory(category.Label)
	tracker.Category = category
	if err := tracker.Data().Validate(); err != nil {
		return err
	}

	if err := s.store.EnsureCategory(ctx, category); err != nil {
		return fmt.Errorf("ensure category %q: %w", category.Label, err)
	}
	if err := s.store.Create(ctx, tracker); err != nil {
		return err
	}

	metrics.TrackerMutations.WithLabelValues("create").Inc()
	s.log.Info("tracker created",
		zap.String("tracker_id", tracker.ID),
		zap.String("category", category.Label),
		zap.Bool("habit", tracker.IsHabit()),
	)

	s.changed(ctx, ChangeCreated, tracker.ID)
	return nil
}

func (s *TrackerService) UpdateTracker(ctx context.Context, id string, data domain.TrackerData) (*domain.Tracker, error) {
	tracker, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := tracker.Apply(data); err != nil {
		return nil, err
	}

	if err := s.store.EnsureCategory(ctx, tracker.Category); err != nil {
		return nil, fmt.Errorf("ensure category %q: %w", tracker.Category.Label, err)
	}
	if err := s.store.Update(ctx, tracker); err != nil {
		return nil, err
	}

	metrics.TrackerMutations.WithLabelValues("update").Inc()
	s.log.Info("tracker updated", zap.String("tracker_id", id))

	s.changed(ctx, ChangeUpdated, id)
	return s.withCount(tracker), nil
}

// DeleteTracker removes the tracker and all of its completions. Deleting a
// tracker that is already gone is a no-op.
func (s *TrackerService) DeleteTracker(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, domain.ErrTrackerNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	purged, err := s.ledger.Purge(ctx, id)
	if err != nil {
		return fmt.Errorf("purge completions of %s: %w", id, err)
	}

	metrics.TrackerMutations.WithLabelValues("delete").Inc()
	s.log.Info("tracker deleted", zap.String("tracker_id", id), zap.Int("completions_purged", purged))

	s.changed(ctx, ChangeDeleted, id)
	return nil
}

func (s *TrackerService) TogglePin(ctx context.Context, id string) (*domain.Tracker, error) {
	tracker, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	tracker.IsPinned = !tracker.IsPinned
	tracker.UpdatedAt = time.Now().UTC()

	if err := s.store.Update(ctx, tracker); err != nil {
		return nil, err
	}

	metrics.TrackerMutations.WithLabelValues("pin").Inc()
	s.log.Info("tracker pin toggled", zap.String("tracker_id", id), zap.Bool("pinned", tracker.IsPinned))

	s.changed(ctx, ChangePinned, id)
	return s.withCount(tracker), nil
}

// ToggleCompletion flips the completion of an existing tracker on a day and
// returns the new state.
func (s *TrackerService) ToggleCompletion(ctx context.Context, id string, date time.Time) (bool, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return false, err
	}
	return s.ledger.Toggle(ctx, id, date)
}

// AddCompletion marks an existing tracker as completed on a day.
func (s *TrackerService) AddCompletion(ctx context.Context, id string, date time.Time) error {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return err
	}
	return s.ledger.Add(ctx, domain.NewCompletionRecord(id, date))
}

func (s *TrackerService) RemoveCompletion(ctx context.Context, id string, date time.Time) error {
	return s.ledger.Remove(ctx, domain.NewCompletionRecord(id, date))
}

func (s *TrackerService) IsCompleted(ctx context.Context, id string, date time.Time) (bool, error) {
	return s.ledger.IsCompleted(ctx, id, date)
}

func (s *TrackerService) Tracker(ctx context.Context, id string) (*domain.Tracker, error) {
	tracker, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCount(tracker), nil
}

// Trackers returns every tracker in insertion order.
func (s *TrackerService) Trackers(ctx context.Context) ([]*domain.Tracker, error) {
	trackers, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for i, t := range trackers {
		trackers[i] = s.withCount(t)
	}
	return trackers, nil
}

func (s *TrackerService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.store.ListCategories(ctx)
}

// LoadFilteredTrackers recomputes the projection for date and search. It does
// not touch persisted data.
func (s *TrackerService) LoadFilteredTrackers(ctx context.Context, date time.Time, search string) error {
	f := domain.Filter{Date: date, Search: search}
	if err := s.recompute(ctx, f); err != nil {
		return err
	}
	s.events.Publish(TrackerChange{Kind: ChangeProjection, Shape: s.engine.Shape()})
	return nil
}

// SetDate moves the projection to another day and reloads the completions
// visible from it.
func (s *TrackerService) SetDate(ctx context.Context, date time.Time) error {
	if err := s.ledger.LoadRecordsUpTo(ctx, date); err != nil {
		return err
	}
	return s.LoadFilteredTrackers(ctx, date, s.engine.Filter().Search)
}

// ApplyFilter moves the projection to date and search in one recomputation,
// reloading the ledger only when the day actually changes.
func (s *TrackerService) ApplyFilter(ctx context.Context, date time.Time, search string) error {
	if !domain.DayOf(date).Equal(s.engine.Filter().Date) {
		if err := s.ledger.LoadRecordsUpTo(ctx, date); err != nil {
			return err
		}
	}
	return s.LoadFilteredTrackers(ctx, date, search)
}

func (s *TrackerService) SetSearch(ctx context.Context, search string) error {
	return s.LoadFilteredTrackers(ctx, s.engine.Filter().Date, search)
}

func (s *TrackerService) Filter() domain.Filter {
	return s.engine.Filter()
}

func (s *TrackerService) NumberOfSections() int {
	return s.engine.NumberOfSections()
}

func (s *TrackerService) NumberOfRows(section int) (int, error) {
	return s.engine.NumberOfRows(section)
}

func (s *TrackerService) TrackerAt(section, row int) (*domain.Tracker, error) {
	return s.engine.TrackerAt(section, row)
}

func (s *TrackerService) HeaderLabel(section int) (string, error) {
	return s.engine.HeaderLabel(section)
}

func (s *TrackerService) NumberOfTrackers() int {
	return s.engine.NumberOfTrackers()
}

func (s *TrackerService) Shape() domain.Shape {
	return s.engine.Shape()
}

func (s *TrackerService) Projection() domain.Projection {
	return s.engine.Projection()
}

func (s *TrackerService) recompute(ctx context.Context, f domain.Filter) error {
	trackers, err := s.store.List(ctx)
	if err != nil {
		s.engine.Reset(f)
		return err
	}
	s.engine.Recompute(trackers, f)
	return nil
}

// changed refreshes the projection with the current filter and notifies
// subscribers. The mutation is already durable, so a failed refresh only
// leaves an empty board behind.
func (s *TrackerService) changed(ctx context.Context, kind ChangeKind, id string) {
	if err := s.recompute(ctx, s.engine.Filter()); err != nil {
		s.log.Warn("projection refresh failed", zap.String("change", string(kind)), zap.Error(err))
	}
	s.events.Publish(TrackerChange{Kind: kind, TrackerID: id, Shape: s.engine.Shape()})
}

func (s *TrackerService) withCount(t *domain.Tracker) *domain.Tracker {
	t.CompletedDaysCount = s.ledger.CompletionCount(t.ID)
	return t
}
