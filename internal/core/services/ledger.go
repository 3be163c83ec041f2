package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/metrics"
)

// CompletionLedger is the authoritative set of completed (tracker, day)
// pairs. It keeps an in-memory working set in front of the record store so
// that completion checks for the displayed day never hit storage. Days past
// the loaded window are answered by the store.
//
// Not safe for concurrent use; run it on the workers.Loop.
type CompletionLedger struct {
	store  domain.RecordStore
	log    *zap.Logger
	now    func() time.Time
	events Broadcaster[[]domain.CompletionRecord]

	working map[domain.RecordKey]domain.CompletionRecord
	counts  map[string]int

	// window is the last day the working set covers. It is zero until the
	// first load; full marks a load of the whole history.
	window time.Time
	full   bool
}

type LedgerOption func(*CompletionLedger)

func WithLedgerClock(now func() time.Time) LedgerOption {
	return func(l *CompletionLedger) { l.now = now }
}

func WithLedgerLogger(log *zap.Logger) LedgerOption {
	return func(l *CompletionLedger) { l.log = log }
}

func NewCompletionLedger(store domain.RecordStore, opts ...LedgerOption) *CompletionLedger {
	l := &CompletionLedger{
		store:   store,
		log:     zap.NewNop(),
		now:     time.Now,
		working: make(map[domain.RecordKey]domain.CompletionRecord),
		counts:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers fn to receive the full record set after every committed
// mutation or reload.
func (l *CompletionLedger) Subscribe(fn func([]domain.CompletionRecord)) (unsubscribe func()) {
	return l.events.Subscribe(fn)
}

func (l *CompletionLedger) Add(ctx context.Context, record domain.CompletionRecord) error {
	record = domain.NewCompletionRecord(record.TrackerID, record.Date)
	if err := record.Validate(); err != nil {
		return err
	}
	if record.Date.After(domain.DayOf(l.now())) {
		return domain.ErrFutureCompletion
	}

	key := record.Key()
	if _, exists := l.working[key]; exists {
		return domain.ErrDuplicateCompletion
	}

	if err := l.store.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrDuplicateCompletion) {
			// completed outside the loaded window
			l.working[key] = record
		}
		return err
	}

	l.working[key] = record
	l.counts[record.TrackerID]++
	metrics.CompletionsAdded.Inc()

	l.log.Debug("completion added", zap.String("tracker_id", record.TrackerID), zap.String("day", key.Day))
	l.publish()
	return nil
}

func (l *CompletionLedger) Remove(ctx context.Context, record domain.CompletionRecord) error {
	record = domain.NewCompletionRecord(record.TrackerID, record.Date)
	key := record.Key()

	if err := l.store.Delete(ctx, key); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			// the store is the authority; drop any stale working copy
			l.forget(key)
		}
		return err
	}

	l.forget(key)
	if l.counts[record.TrackerID] > 0 {
		l.counts[record.TrackerID]--
	}
	if l.counts[record.TrackerID] == 0 {
		delete(l.counts, record.TrackerID)
	}
	metrics.CompletionsRemoved.Inc()

	l.log.Debug("completion removed", zap.String("tracker_id", record.TrackerID), zap.String("day", key.Day))
	l.publish()
	return nil
}

// Toggle completes the tracker on the day, or clears the completion when it is
// already there. It returns the resulting state.
func (l *CompletionLedger) Toggle(ctx context.Context, trackerID string, date time.Time) (bool, error) {
	record := domain.NewCompletionRecord(trackerID, date)
	done, err := l.IsCompleted(ctx, trackerID, date)
	if err != nil {
		return false, err
	}
	if done {
		if err := l.Remove(ctx, record); err != nil {
			return true, err
		}
		return false, nil
	}
	err = l.Add(ctx, record)
	if errors.Is(err, domain.ErrDuplicateCompletion) {
		if err := l.Remove(ctx, record); err != nil {
			return true, err
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Purge deletes every completion of a tracker.
func (l *CompletionLedger) Purge(ctx context.Context, trackerID string) (int, error) {
	n, err := l.store.DeleteByTracker(ctx, trackerID)
	if err != nil {
		return 0, err
	}

	dropped := 0
	for key := range l.working {
		if key.TrackerID == trackerID {
			delete(l.working, key)
			dropped++
		}
	}
	_, counted := l.counts[trackerID]
	delete(l.counts, trackerID)

	if n > 0 {
		metrics.CompletionsRemoved.Add(float64(n))
	}
	if n > 0 || dropped > 0 || counted {
		l.log.Debug("completions purged", zap.String("tracker_id", trackerID), zap.Int("count", n))
		l.publish()
	}
	return n, nil
}

func (l *CompletionLedger) CompletionCount(trackerID string) int {
	return l.counts[trackerID]
}

// IsCompleted reports whether the tracker was completed on the day of date.
// Days inside the loaded window never touch the store.
func (l *CompletionLedger) IsCompleted(ctx context.Context, trackerID string, date time.Time) (bool, error) {
	key := domain.RecordKey{TrackerID: trackerID, Day: domain.DayKey(date)}
	if _, ok := l.working[key]; ok {
		return true, nil
	}
	if l.covers(domain.DayOf(date)) {
		return false, nil
	}
	return l.store.Exists(ctx, key)
}

// Window returns the last day held by the working set and whether the whole
// history is loaded.
func (l *CompletionLedger) Window() (time.Time, bool) {
	return l.window, l.full
}

func (l *CompletionLedger) covers(day time.Time) bool {
	if l.full {
		return true
	}
	return !l.window.IsZero() && !day.After(l.window)
}

// LoadRecords replaces the working set with the full history.
func (l *CompletionLedger) LoadRecords(ctx context.Context) error {
	records, err := l.store.List(ctx)
	if err != nil {
		return err
	}
	return l.reset(ctx, records, time.Time{})
}

// LoadRecordsUpTo replaces the working set with the completions on or before
// date. Counts keep covering the full history.
func (l *CompletionLedger) LoadRecordsUpTo(ctx context.Context, date time.Time) error {
	day := domain.DayOf(date)
	records, err := l.store.ListUpTo(ctx, day)
	if err != nil {
		return err
	}
	return l.reset(ctx, records, day)
}

// reset installs a freshly loaded working set. A zero window means the whole
// history was loaded.
func (l *CompletionLedger) reset(ctx context.Context, records []domain.CompletionRecord, window time.Time) error {
	counts, err := l.store.CountByTracker(ctx)
	if err != nil {
		return err
	}

	working := make(map[domain.RecordKey]domain.CompletionRecord, len(records))
	for _, r := range records {
		working[r.Key()] = r
	}

	l.working = working
	l.window = window
	l.full = window.IsZero()
	l.counts = counts
	if l.counts == nil {
		l.counts = make(map[string]int)
	}

	l.publish()
	return nil
}

// Records returns the working set ordered by day, then tracker id.
func (l *CompletionLedger) Records() []domain.CompletionRecord {
	out := make([]domain.CompletionRecord, 0, len(l.working))
	for _, r := range l.working {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TrackerID < out[j].TrackerID
	})
	return out
}

func (l *CompletionLedger) forget(key domain.RecordKey) {
	delete(l.working, key)
}

func (l *CompletionLedger) publish() {
	l.events.Publish(l.Records())
}
