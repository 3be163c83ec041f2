package services

import (
	"fmt"
	"sort"

	"github.com/comitanigiacomo/kanso-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-tracker/internal/metrics"
	"github.com/comitanigiacomo/kanso-tracker/internal/normalize"
)

// BuildSections computes the visible projection of trackers for a filter:
//
//  1. keep trackers due on f.Date (irregular events are always due);
//  2. keep trackers whose label contains f.Search, ignoring case and diacritics;
//  3. put pinned trackers in a leading "Pinned" section, whatever their category;
//  4. group the rest by category label, categories in collation order;
//  5. order rows by insertion position.
//
// The input is not modified and the same input always yields the same output.
func BuildSections(trackers []*domain.Tracker, f domain.Filter) []domain.Section {
	visible := make([]*domain.Tracker, 0, len(trackers))
	for _, t := range trackers {
		if !t.IsDueOn(f.Date) {
			continue
		}
		if !normalize.Contains(t.Label, f.Search) {
			continue
		}
		visible = append(visible, t)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return visible[i].Position < visible[j].Position
	})

	var pinned []*domain.Tracker
	byCategory := make(map[string][]*domain.Tracker)
	var labels []string

	for _, t := range visible {
		if t.IsPinned {
			pinned = append(pinned, t)
			continue
		}
		label := t.Category.Label
		if _, seen := byCategory[label]; !seen {
			labels = append(labels, label)
		}
		byCategory[label] = append(byCategory[label], t)
	}

	collator := normalize.NewCollator()
	sort.Slice(labels, func(i, j int) bool {
		return collator.Less(labels[i], labels[j])
	})

	sections := make([]domain.Section, 0, len(labels)+1)
	if len(pinned) > 0 {
		sections = append(sections, domain.Section{
			Kind:     domain.SectionPinned,
			Header:   domain.PinnedHeader,
			Trackers: pinned,
		})
	}
	for _, label := range labels {
		sections = append(sections, domain.Section{
			Kind:     domain.SectionCategory,
			Header:   label,
			Trackers: byCategory[label],
		})
	}

	return sections
}

// VisibilityEngine caches the last projection and answers the row addressing
// queries of the presentation layer. Completion counts are read from the
// counter at query time, so they never lag behind the ledger.
type VisibilityEngine struct {
	counter  func(trackerID string) int
	filter   domain.Filter
	sections []domain.Section
}

func NewVisibilityEngine(counter func(trackerID string) int) *VisibilityEngine {
	if counter == nil {
		counter = func(string) int { return 0 }
	}
	return &VisibilityEngine{counter: counter}
}

// Recompute replaces the cached projection. Trackers are copied, callers may
// keep mutating their slice.
func (e *VisibilityEngine) Recompute(trackers []*domain.Tracker, f domain.Filter) domain.Shape {
	copies := make([]*domain.Tracker, len(trackers))
	for i, t := range trackers {
		copies[i] = t.Clone()
	}

	e.filter = domain.Filter{Date: domain.DayOf(f.Date), Search: f.Search}
	e.sections = BuildSections(copies, e.filter)

	metrics.ProjectionRecomputes.Inc()
	metrics.VisibleTrackers.Set(float64(e.NumberOfTrackers()))

	return e.Shape()
}

// Reset drops the cached projection, leaving an empty board.
func (e *VisibilityEngine) Reset(f domain.Filter) {
	e.filter = domain.Filter{Date: domain.DayOf(f.Date), Search: f.Search}
	e.sections = nil
	metrics.VisibleTrackers.Set(0)
}

func (e *VisibilityEngine) Filter() domain.Filter {
	return e.filter
}

func (e *VisibilityEngine) NumberOfSections() int {
	return len(e.sections)
}

func (e *VisibilityEngine) NumberOfRows(section int) (int, error) {
	if section < 0 || section >= len(e.sections) {
		return 0, fmt.Errorf("%w: section %d of %d", domain.ErrIndexOutOfRange, section, len(e.sections))
	}
	return len(e.sections[section].Trackers), nil
}

func (e *VisibilityEngine) TrackerAt(section, row int) (*domain.Tracker, error) {
	rows, err := e.NumberOfRows(section)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= rows {
		return nil, fmt.Errorf("%w: row %d of %d in section %d", domain.ErrIndexOutOfRange, row, rows, section)
	}
	return e.project(e.sections[section].Trackers[row]), nil
}

func (e *VisibilityEngine) HeaderLabel(section int) (string, error) {
	if section < 0 || section >= len(e.sections) {
		return "", fmt.Errorf("%w: section %d of %d", domain.ErrIndexOutOfRange, section, len(e.sections))
	}
	return e.sections[section].Header, nil
}

func (e *VisibilityEngine) NumberOfTrackers() int {
	n := 0
	for _, s := range e.sections {
		n += len(s.Trackers)
	}
	return n
}

func (e *VisibilityEngine) Shape() domain.Shape {
	rows := make([]int, len(e.sections))
	for i, s := range e.sections {
		rows[i] = len(s.Trackers)
	}
	return domain.Shape{Rows: rows}
}

// Projection returns a detached snapshot of the cached projection.
func (e *VisibilityEngine) Projection() domain.Projection {
	sections := make([]domain.Section, len(e.sections))
	for i, s := range e.sections {
		rows := make([]*domain.Tracker, len(s.Trackers))
		for j, t := range s.Trackers {
			rows[j] = e.project(t)
		}
		sections[i] = domain.Section{Kind: s.Kind, Header: s.Header, Trackers: rows}
	}

	return domain.Projection{
		Date:     e.filter.Date,
		Search:   e.filter.Search,
		Total:    e.NumberOfTrackers(),
		Sections: sections,
	}
}

func (e *VisibilityEngine) project(t *domain.Tracker) *domain.Tracker {
	c := t.Clone()
	c.CompletedDaysCount = e.counter(t.ID)
	return c
}
