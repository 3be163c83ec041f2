package domain

import (
	"context"
	"time"
)

type TrackerStore interface {
	// Create persists a new tracker and assigns its Position.
	// Returns ErrDuplicateID when the id is taken.
	Create(ctx context.Context, tracker *Tracker) error

	// GetByID retrieves a tracker by its unique identifier.
	GetByID(ctx context.Context, id string) (*Tracker, error)

	// List returns every tracker in insertion order.
	List(ctx context.Context) ([]*Tracker, error)

	// Update overwrites the stored state of an existing tracker.
	Update(ctx context.Context, tracker *Tracker) error

	// Delete permanently removes a tracker. Returns ErrTrackerNotFound when absent.
	Delete(ctx context.Context, id string) error

	// EnsureCategory creates the category if no category has this label yet.
	EnsureCategory(ctx context.Context, category Category) error

	// ListCategories returns every known category ordered by label.
	ListCategories(ctx context.Context) ([]Category, error)
}

type RecordStore interface {
	// Create persists a completion. Returns ErrDuplicateCompletion when the
	// (tracker, day) key already exists.
	Create(ctx context.Context, record CompletionRecord) error

	// Delete removes the completion with this key. Returns ErrRecordNotFound when absent.
	Delete(ctx context.Context, key RecordKey) error

	// DeleteByTracker removes every completion of a tracker and reports how many went away.
	DeleteByTracker(ctx context.Context, trackerID string) (int, error)

	// List returns all completions ordered by day.
	List(ctx context.Context) ([]CompletionRecord, error)

	// Exists reports whether a completion with this key is stored.
	Exists(ctx context.Context, key RecordKey) (bool, error)

	// ListUpTo returns the completions on or before the given day.
	ListUpTo(ctx context.Context, day time.Time) ([]CompletionRecord, error)

	// CountByTracker returns the number of completions of every tracker that has any.
	CountByTracker(ctx context.Context) (map[string]int, error)
}
