package domain

import (
	"strings"
	"time"
)

const DayLayout = "2006-01-02"

type CompletionRecord struct {
	TrackerID string    `json:"tracker_id"`
	Date      time.Time `json:"date"`
}

// RecordKey identifies a completion: one per tracker per calendar day.
type RecordKey struct {
	TrackerID string
	Day       string
}

func NewCompletionRecord(trackerID string, at time.Time) CompletionRecord {
	return CompletionRecord{
		TrackerID: trackerID,
		Date:      DayOf(at),
	}
}

func (r CompletionRecord) Key() RecordKey {
	return RecordKey{TrackerID: r.TrackerID, Day: DayKey(r.Date)}
}

func (r CompletionRecord) Validate() error {
	if strings.TrimSpace(r.TrackerID) == "" {
		return ErrInvalidTrackerID
	}
	return nil
}

// DayOf drops the time of day, keeping the calendar date the timestamp has in
// its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DayKey(t time.Time) string {
	return DayOf(t).Format(DayLayout)
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}
