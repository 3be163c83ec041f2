package domain

import "time"

const PinnedHeader = "Pinned"

type SectionKind string

const (
	SectionPinned   SectionKind = "pinned"
	SectionCategory SectionKind = "category"
)

type Section struct {
	Kind     SectionKind `json:"kind"`
	Header   string      `json:"header"`
	Trackers []*Tracker  `json:"trackers"`
}

// Filter holds the inputs of a projection besides the tracker set itself.
type Filter struct {
	Date   time.Time
	Search string
}

// Projection is a snapshot of the visible, sectioned trackers for a filter.
type Projection struct {
	Date     time.Time `json:"date"`
	Search   string    `json:"search"`
	Total    int       `json:"total"`
	Sections []Section `json:"sections"`
}

// Shape is the part of a projection the presentation layer needs to lay out
// rows: the row count of every section.
type Shape struct {
	Rows []int `json:"rows"`
}

func (s Shape) Sections() int {
	return len(s.Rows)
}

func (s Shape) Total() int {
	n := 0
	for _, r := range s.Rows {
		n += r
	}
	return n
}
