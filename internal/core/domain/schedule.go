package domain

import (
	"encoding/json"
	"time"
)

// weekOrder is the display order of a schedule: Monday first.
var weekOrder = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Schedule is the set of weekdays on which a habit is due.
// A nil *Schedule on a Tracker marks an irregular event.
type Schedule struct {
	days uint8
}

func NewSchedule(days ...time.Weekday) (*Schedule, error) {
	s := &Schedule{}
	for _, d := range days {
		if d < time.Sunday || d > time.Saturday {
			return nil, ErrInvalidWeekday
		}
		s.days |= 1 << uint(d)
	}
	return s, nil
}

// MustSchedule is NewSchedule for literal weekdays.
func MustSchedule(days ...time.Weekday) *Schedule {
	s, err := NewSchedule(days...)
	if err != nil {
		panic(err)
	}
	return s
}

func EveryDay() *Schedule {
	return MustSchedule(weekOrder[:]...)
}

func (s *Schedule) Contains(d time.Weekday) bool {
	if s == nil || d < time.Sunday || d > time.Saturday {
		return false
	}
	return s.days&(1<<uint(d)) != 0
}

func (s *Schedule) Days() []time.Weekday {
	if s == nil {
		return nil
	}
	days := make([]time.Weekday, 0, 7)
	for _, d := range weekOrder {
		if s.Contains(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s *Schedule) IsEmpty() bool {
	return s == nil || s.days == 0
}

func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *Schedule) Equal(other *Schedule) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.days == other.days
}

func (s Schedule) MarshalJSON() ([]byte, error) {
	days := s.Days()
	out := make([]int, len(days))
	for i, d := range days {
		out[i] = int(d)
	}
	return json.Marshal(out)
}

func (s *Schedule) UnmarshalJSON(data []byte) error {
	var raw []int
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	days := make([]time.Weekday, len(raw))
	for i, d := range raw {
		days[i] = time.Weekday(d)
	}
	parsed, err := NewSchedule(days...)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}
