package services

import (
	"context"
	"sort"
	"time"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
)

type StatsService struct {
	trackers domain.TrackerStore
	records  domain.RecordStore
	now      func() time.Time
}

func NewStatsService(trackers domain.TrackerStore, records domain.RecordStore) *StatsService {
	return &StatsService{
		trackers: trackers,
		records:  records,
		now:      time.Now,
	}
}

func (s *StatsService) WithClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

func (s *StatsService) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	trackers, err := s.trackers.List(ctx)
	if err != nil {
		return nil, err
	}

	records, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}

	today := domain.DayOf(s.now())

	daysByTracker := make(map[string][]time.Time)
	completedOn := make(map[string]map[string]bool)
	var activeDays []time.Time
	seenDay := make(map[string]bool)

	for _, r := range records {
		day := domain.DayOf(r.Date)
		key := day.Format(domain.DayLayout)

		daysByTracker[r.TrackerID] = append(daysByTracker[r.TrackerID], day)

		if completedOn[key] == nil {
			completedOn[key] = make(map[string]bool)
		}
		completedOn[key][r.TrackerID] = true

		if !seenDay[key] {
			seenDay[key] = true
			activeDays = append(activeDays, day)
		}
	}

	stats := &domain.Statistics{
		TotalCompletions: len(records),
		Trackers:         make([]domain.TrackerStats, 0, len(trackers)),
	}

	_, stats.BestPeriod = calculateStreaks(activeDays, today, nil)

	for _, day := range activeDays {
		if isPerfectDay(day, trackers, completedOn[day.Format(domain.DayLayout)]) {
			stats.PerfectDays++
		}
	}

	if len(activeDays) > 0 {
		stats.AveragePerDay = float64(len(records)) / float64(len(activeDays))
	}

	for _, t := range trackers {
		current, longest := calculateStreaks(daysByTracker[t.ID], today, t.IsDueOn)
		stats.Trackers = append(stats.Trackers, domain.TrackerStats{
			TrackerID:     t.ID,
			Label:         t.Label,
			Emoji:         t.Emoji,
			Color:         t.Color,
			Completions:   len(daysByTracker[t.ID]),
			CurrentStreak: current,
			LongestStreak: longest,
		})
	}

	return stats, nil
}

// isPerfectDay holds when at least one habit was due on day and every habit
// due on day, and already created by then, was completed.
func isPerfectDay(day time.Time, trackers []*domain.Tracker, completed map[string]bool) bool {
	due := 0
	for _, t := range trackers {
		if !t.IsHabit() || !t.IsDueOn(day) {
			continue
		}
		if domain.DayOf(t.CreatedAt).After(day) {
			continue
		}
		due++
		if !completed[t.ID] {
			return false
		}
	}
	return due > 0
}

// calculateStreaks returns the current and the longest run of completions
// with no due day missed in between. due reports the days the tracker is
// scheduled on; nil means every day. The current run survives until a due day
// after its last completion has fully passed.
func calculateStreaks(days []time.Time, today time.Time, due func(time.Time) bool) (int, int) {
	if len(days) == 0 {
		return 0, 0
	}
	if due == nil {
		due = func(time.Time) bool { return true }
	}

	unique := make(map[string]bool)
	var sorted []time.Time
	for _, d := range days {
		d = domain.DayOf(d)
		key := d.Format(domain.DayLayout)
		if !unique[key] {
			unique[key] = true
			sorted = append(sorted, d)
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].After(sorted[j])
	})

	// unbroken holds when no due day lies strictly between earlier and later.
	unbroken := func(later, earlier time.Time) bool {
		for d := earlier.AddDate(0, 0, 1); d.Before(later); d = d.AddDate(0, 0, 1) {
			if due(d) {
				return false
			}
		}
		return true
	}

	current := 0
	today = domain.DayOf(today)
	if last := sorted[0]; !last.After(today) && unbroken(today, last) {
		current = 1
		for i := 0; i < len(sorted)-1; i++ {
			if !unbroken(sorted[i], sorted[i+1]) {
				break
			}
			current++
		}
	}

	longest := 0
	run := 1
	for i := 0; i < len(sorted)-1; i++ {
		if unbroken(sorted[i], sorted[i+1]) {
			run++
			continue
		}
		if run > longest {
			longest = run
		}
		run = 1
	}
	if run > longest {
		longest = run
	}

	return current, longest
}
