package model

import (
	"time"

	"github.com/google/uuid"
)

type PlantID string

// NewPlantID generates a new unique PlantID
func NewPlantID() PlantID {
	return PlantID(uuid.New().String())
}

// SavedPlant is a care guide the user keeps in their garden. The embedded
// CareInfo is flattened into the same JSON object.
type SavedPlant struct {
	CareInfo `yaml:",inline"`

	ID        PlantID     `json:"id" yaml:"id"`
	SavedAt   int64       `json:"savedAt" yaml:"savedAt"`
	Reminders []*Reminder `json:"reminders,omitempty" yaml:"reminders,omitempty"`
}

// NewSavedPlant creates a SavedPlant from a care guide with no reminders
func NewSavedPlant(info CareInfo, now time.Time) *SavedPlant {
	return &SavedPlant{
		CareInfo: info,
		ID:       NewPlantID(),
		SavedAt:  now.UnixMilli(),
	}
}

// FindReminder returns the reminder with the given ID, or nil
func (p *SavedPlant) FindReminder(id ReminderID) *Reminder {
	for _, r := range p.Reminders {
		if r != nil && r.ID == id {
			return r
		}
	}
	return nil
}
