package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

func newTestTracker(t *testing.T, label, category string, schedule *domain.Schedule) *domain.Tracker {
	t.Helper()

	tracker, err := domain.NewTracker(domain.TrackerData{
		Label:    label,
		Emoji:    "🌱",
		Color:    "#22AA88",
		Category: &domain.Category{Label: category},
		Schedule: schedule,
	})
	require.NoError(t, err)
	return tracker
}

func createTracker(t *testing.T, store domain.TrackerStore, tracker *domain.Tracker) {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, store.EnsureCategory(ctx, tracker.Category))
	require.NoError(t, store.Create(ctx, tracker))
}

// runTrackerStoreSuite checks the behavior every TrackerStore must share.
func runTrackerStoreSuite(t *testing.T, store domain.TrackerStore) {
	ctx := context.Background()

	habit := newTestTracker(t, "Swim", "Sport", domain.MustSchedule(time.Monday, time.Friday))
	event := newTestTracker(t, "Dentist", "Health", nil)

	t.Run("Success: Create assigns increasing positions", func(t *testing.T) {
		createTracker(t, store, habit)
		createTracker(t, store, event)

		assert.Equal(t, int64(1), habit.Position)
		assert.Equal(t, int64(2), event.Position)
	})

	t.Run("Success: GetByID round trips every field", func(t *testing.T) {
		got, err := store.GetByID(ctx, habit.ID)
		require.NoError(t, err)

		assert.Equal(t, habit.ID, got.ID)
		assert.Equal(t, "Swim", got.Label)
		assert.Equal(t, habit.Emoji, got.Emoji)
		assert.Equal(t, habit.Color, got.Color)
		assert.Equal(t, domain.Category{Label: "Sport"}, got.Category)
		assert.True(t, habit.Schedule.Equal(got.Schedule))
		assert.False(t, got.IsPinned)
		assert.Equal(t, habit.Position, got.Position)
		assert.WithinDuration(t, habit.CreatedAt, got.CreatedAt, time.Microsecond)

		ev, err := store.GetByID(ctx, event.ID)
		require.NoError(t, err)
		assert.Nil(t, ev.Schedule)
		assert.False(t, ev.IsHabit())
	})

	t.Run("Fail: Duplicate id", func(t *testing.T) {
		dup := habit.Clone()

		err := store.Create(ctx, dup)

		assert.ErrorIs(t, err, domain.ErrDuplicateID)
	})

	t.Run("Success: List keeps insertion order", func(t *testing.T) {
		list, err := store.List(ctx)
		require.NoError(t, err)

		require.Len(t, list, 2)
		assert.Equal(t, habit.ID, list[0].ID)
		assert.Equal(t, event.ID, list[1].ID)
	})

	t.Run("Success: Update keeps position", func(t *testing.T) {
		changed := habit.Clone()
		changed.Label = "Swim long"
		changed.IsPinned = true
		changed.Schedule = domain.EveryDay()

		require.NoError(t, store.Update(ctx, changed))

		got, err := store.GetByID(ctx, habit.ID)
		require.NoError(t, err)
		assert.Equal(t, "Swim long", got.Label)
		assert.True(t, got.IsPinned)
		assert.Len(t, got.Schedule.Days(), 7)
		assert.Equal(t, habit.Position, got.Position)
	})

	t.Run("Fail: Update unknown tracker", func(t *testing.T) {
		ghost := newTestTracker(t, "Ghost", "Sport", nil)

		err := store.Update(ctx, ghost)

		assert.ErrorIs(t, err, domain.ErrTrackerNotFound)
	})

	t.Run("Success: Categories are unique and sorted", func(t *testing.T) {
		require.NoError(t, store.EnsureCategory(ctx, domain.Category{Label: "Sport"}))

		categories, err := store.ListCategories(ctx)
		require.NoError(t, err)
		assert.Equal(t, []domain.Category{{Label: "Health"}, {Label: "Sport"}}, categories)
	})

	t.Run("Success: Delete then not found", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, event.ID))

		_, err := store.GetByID(ctx, event.ID)
		assert.ErrorIs(t, err, domain.ErrTrackerNotFound)

		err = store.Delete(ctx, event.ID)
		assert.ErrorIs(t, err, domain.ErrTrackerNotFound)
	})

	t.Run("Success: Positions are not reused after delete", func(t *testing.T) {
		later := newTestTracker(t, "Read", "Mind", nil)
		createTracker(t, store, later)

		assert.Greater(t, later.Position, habit.Position)
	})
}

// runRecordStoreSuite needs trackers "t1" and "t2" to exist in the backing store.
func runRecordStoreSuite(t *testing.T, store domain.RecordStore, t1, t2 string) {
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }

	t.Run("Success: Create and list in day order", func(t *testing.T) {
		require.NoError(t, store.Create(ctx, domain.NewCompletionRecord(t1, day(3))))
		require.NoError(t, store.Create(ctx, domain.NewCompletionRecord(t1, day(1))))
		require.NoError(t, store.Create(ctx, domain.NewCompletionRecord(t2, day(2))))

		list, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, domain.CompletionRecord{TrackerID: t1, Date: day(1)}, list[0])
		assert.Equal(t, domain.CompletionRecord{TrackerID: t2, Date: day(2)}, list[1])
		assert.Equal(t, domain.CompletionRecord{TrackerID: t1, Date: day(3)}, list[2])
	})

	t.Run("Fail: Same tracker and day", func(t *testing.T) {
		err := store.Create(ctx, domain.NewCompletionRecord(t1, day(3).Add(5*time.Hour)))

		assert.ErrorIs(t, err, domain.ErrDuplicateCompletion)
	})

	t.Run("Success: ListUpTo includes the day itself", func(t *testing.T) {
		list, err := store.ListUpTo(ctx, day(2))
		require.NoError(t, err)

		assert.Len(t, list, 2)
	})

	t.Run("Success: Exists matches the day key", func(t *testing.T) {
		ok, err := store.Exists(ctx, domain.RecordKey{TrackerID: t1, Day: "2024-05-03"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Exists(ctx, domain.RecordKey{TrackerID: t2, Day: "2024-05-03"})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Success: CountByTracker", func(t *testing.T) {
		counts, err := store.CountByTracker(ctx)
		require.NoError(t, err)

		assert.Equal(t, map[string]int{t1: 2, t2: 1}, counts)
	})

	t.Run("Success: Delete by key", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, domain.RecordKey{TrackerID: t2, Day: "2024-05-02"}))

		err := store.Delete(ctx, domain.RecordKey{TrackerID: t2, Day: "2024-05-02"})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("Success: DeleteByTracker reports the count", func(t *testing.T) {
		n, err := store.DeleteByTracker(ctx, t1)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
