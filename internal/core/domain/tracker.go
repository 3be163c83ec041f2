package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxLabelLen = 38
)

type Category struct {
	Label string `json:"label" db:"label"`
}

func NewCategory(label string) Category {
	return Category{Label: strings.TrimSpace(label)}
}

type Tracker struct {
	ID                 string    `json:"id"`
	Label              string    `json:"label"`
	Emoji              string    `json:"emoji"`
	Color              string    `json:"color"`
	Category           Category  `json:"category"`
	Schedule           *Schedule `json:"schedule"`
	IsPinned           bool      `json:"is_pinned"`
	CompletedDaysCount int       `json:"completed_days_count"`
	Position           int64     `json:"position"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// TrackerData is the draft edited by the create/edit form. It never reaches
// a store directly.
type TrackerData struct {
	Label    string    `json:"label"`
	Emoji    string    `json:"emoji"`
	Color    string    `json:"color"`
	Category *Category `json:"category,omitempty"`
	Schedule *Schedule `json:"schedule"`
}

func (d TrackerData) Validate() error {
	label := strings.TrimSpace(d.Label)
	if label == "" {
		return ErrLabelEmpty
	}
	if utf8.RuneCountInString(label) > MaxLabelLen {
		return ErrLabelTooLong
	}
	if strings.TrimSpace(d.Emoji) == "" {
		return ErrEmojiMissing
	}
	if strings.TrimSpace(d.Color) == "" {
		return ErrColorMissing
	}
	if d.Category == nil || strings.TrimSpace(d.Category.Label) == "" {
		return ErrCategoryMissing
	}
	if d.Schedule != nil && d.Schedule.IsEmpty() {
		return ErrScheduleEmpty
	}
	return nil
}

func NewTracker(data TrackerData) (*Tracker, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Tracker{
		ID:        uuid.NewString(),
		Label:     strings.TrimSpace(data.Label),
		Emoji:     data.Emoji,
		Color:     data.Color,
		Category:  NewCategory(data.Category.Label),
		Schedule:  data.Schedule.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Apply replaces the editable fields with the draft. ID, pin state, position
// and completions are left alone.
func (t *Tracker) Apply(data TrackerData) error {
	if err := data.Validate(); err != nil {
		return err
	}
	if (t.Schedule == nil) != (data.Schedule == nil) {
		return ErrScheduleKindChanged
	}

	t.Label = strings.TrimSpace(data.Label)
	t.Emoji = data.Emoji
	t.Color = data.Color
	t.Category = NewCategory(data.Category.Label)
	t.Schedule = data.Schedule.Clone()
	t.UpdatedAt = time.Now().UTC()

	return nil
}

func (t *Tracker) Data() TrackerData {
	category := t.Category
	return TrackerData{
		Label:    t.Label,
		Emoji:    t.Emoji,
		Color:    t.Color,
		Category: &category,
		Schedule: t.Schedule.Clone(),
	}
}

func (t *Tracker) IsHabit() bool {
	return t.Schedule != nil
}

// IsDueOn reports whether the tracker shows up on the given day. Irregular
// events are due every day.
func (t *Tracker) IsDueOn(date time.Time) bool {
	if t.Schedule == nil {
		return true
	}
	return t.Schedule.Contains(date.Weekday())
}

func (t *Tracker) Clone() *Tracker {
	c := *t
	c.Schedule = t.Schedule.Clone()
	return &c
}
