package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DayMillis is the length of one reminder day in milliseconds
	DayMillis int64 = 86_400_000

	// MaxFrequencyDays bounds FrequencyDays at roughly one hundred years
	MaxFrequencyDays = 36_500
)

type ReminderID string

// NewReminderID generates a new unique ReminderID
func NewReminderID() ReminderID {
	return ReminderID(uuid.New().String())
}

type ReminderType string

const (
	ReminderWatering    ReminderType = "watering"
	ReminderFertilizing ReminderType = "fertilizing"
	ReminderPruning     ReminderType = "pruning"
	ReminderOther       ReminderType = "other"
)

// ReminderTypes lists every valid ReminderType
var ReminderTypes = []ReminderType{
	ReminderWatering,
	ReminderFertilizing,
	ReminderPruning,
	ReminderOther,
}

// Validate checks if the reminder type is valid
func (t ReminderType) Validate() error {
	switch t {
	case ReminderWatering, ReminderFertilizing, ReminderPruning, ReminderOther:
		return nil
	default:
		return goerr.Wrap(ErrValidation, "invalid reminder type", goerr.V("type", t))
	}
}

// Reminder is a recurring care task attached to one SavedPlant. All
// timestamps are epoch milliseconds and NextDue is always
// LastCompleted + FrequencyDays days.
type Reminder struct {
	ID            ReminderID   `json:"id" yaml:"id"`
	Type          ReminderType `json:"type" yaml:"type"`
	FrequencyDays int          `json:"frequencyDays" yaml:"frequencyDays"`
	LastCompleted int64        `json:"lastCompleted" yaml:"lastCompleted"`
	NextDue       int64        `json:"nextDue" yaml:"nextDue"`
}

// NewReminder creates a reminder whose first occurrence is frequencyDays from now
func NewReminder(t ReminderType, frequencyDays int, now time.Time) (*Reminder, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if frequencyDays < 1 {
		return nil, goerr.Wrap(ErrValidation, "frequency must be at least one day", goerr.V("frequencyDays", frequencyDays))
	}
	if frequencyDays > MaxFrequencyDays {
		return nil, goerr.Wrap(ErrValidation, "frequency is too long",
			goerr.V("frequencyDays", frequencyDays), goerr.V("max", MaxFrequencyDays))
	}

	r := &Reminder{
		ID:            NewReminderID(),
		Type:          t,
		FrequencyDays: frequencyDays,
	}
	r.Complete(now)
	return r, nil
}

// Complete starts a new occurrence measured from now. A late completion does
// not carry the missed schedule forward.
func (r *Reminder) Complete(now time.Time) {
	r.LastCompleted = now.UnixMilli()
	r.NextDue = r.LastCompleted + int64(r.FrequencyDays)*DayMillis
}

// Validate reports whether the reminder carries every required field. The
// scheduler skips reminders that fail it.
func (r *Reminder) Validate() error {
	if r == nil {
		return goerr.Wrap(ErrValidation, "reminder is nil")
	}
	if r.ID == "" {
		return goerr.Wrap(ErrValidation, "reminder has no id")
	}
	if err := r.Type.Validate(); err != nil {
		return goerr.Wrap(err, "reminder has invalid type", goerr.V("id", r.ID))
	}
	if r.FrequencyDays < 1 || r.FrequencyDays > MaxFrequencyDays {
		return goerr.Wrap(ErrValidation, "reminder has invalid frequency", goerr.V("id", r.ID))
	}
	if r.NextDue <= 0 {
		return goerr.Wrap(ErrValidation, "reminder has no due time", goerr.V("id", r.ID))
	}
	return nil
}

// IsDue reports whether the current occurrence is due at now
func (r *Reminder) IsDue(now time.Time) bool {
	return now.UnixMilli() >= r.NextDue
}

// DueAt returns NextDue as time.Time
func (r *Reminder) DueAt() time.Time {
	return time.UnixMilli(r.NextDue)
}

// OccurrenceKey identifies the current due event of this reminder. It changes
// every time the reminder is completed.
func (r *Reminder) OccurrenceKey() string {
	return fmt.Sprintf("notified_%s_%d", r.ID, r.NextDue)
}
