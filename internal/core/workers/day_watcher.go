package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

// DayWatcher posts onChange to the loop when the calendar day changes, so that
// the board and the ledger follow midnight without a client request.
type DayWatcher struct {
	loop     *Loop
	interval time.Duration
	now      func() time.Time
	onChange func(ctx context.Context, day time.Time) error
	log      *zap.Logger

	last time.Time
}

func NewDayWatcher(loop *Loop, interval time.Duration, now func() time.Time, onChange func(ctx context.Context, day time.Time) error, log *zap.Logger) *DayWatcher {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DayWatcher{
		loop:     loop,
		interval: interval,
		now:      now,
		onChange: onChange,
		log:      log,
		last:     domain.DayOf(now()),
	}
}

func (w *DayWatcher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.check()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *DayWatcher) check() bool {
	today := domain.DayOf(w.now())
	if today.Equal(w.last) {
		return false
	}

	w.log.Info("calendar day changed", zap.String("day", today.Format(domain.DayLayout)))
	if !w.loop.Post(func(ctx context.Context) error { return w.onChange(ctx, today) }) {
		return false
	}
	w.last = today
	return true
}
