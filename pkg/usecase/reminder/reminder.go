package reminder

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/interfaces"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/store"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
)

// DefaultPollInterval is the longest the scheduler sleeps between checks
const DefaultPollInterval = 60 * time.Second

// UseCase manages reminders stored inside saved plants and decides which of
// them need a notification
type UseCase struct {
	plants      *repository.Plants
	store       *store.Store
	notifier    interfaces.Notifier
	now         func() time.Time
	markerScope store.Scope
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// WithMarkerScope sets where notification markers are kept. With
// store.ScopeSession (default) a new session notifies once more for a
// reminder that is still due; with store.ScopeDurable it does not.
func WithMarkerScope(scope store.Scope) Option {
	return func(uc *UseCase) {
		uc.markerScope = scope
	}
}

// New creates a new reminder UseCase instance. notifier may be nil, in which
// case poll cycles find due reminders but send nothing.
func New(plants *repository.Plants, s *store.Store, notifier interfaces.Notifier, opts ...Option) *UseCase {
	uc := &UseCase{
		plants:      plants,
		store:       s,
		notifier:    notifier,
		now:         time.Now,
		markerScope: store.ScopeSession,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Entry is a reminder together with the plant that owns it
type Entry struct {
	Plant    *model.SavedPlant
	Reminder *model.Reminder
}

// Create adds a reminder to a saved plant. The first occurrence is
// frequencyDays from now. A non-positive frequency is rejected and nothing is
// written.
func (uc *UseCase) Create(ctx context.Context, plantID model.PlantID, t model.ReminderType, frequencyDays int) (*model.Reminder, error) {
	r, err := model.NewReminder(t, frequencyDays, uc.now())
	if err != nil {
		return nil, err
	}

	err = uc.plants.Update(ctx, func(plants []*model.SavedPlant) ([]*model.SavedPlant, error) {
		for _, p := range plants {
			if p.ID == plantID {
				p.Reminders = append(p.Reminders, r)
				return plants, nil
			}
		}
		return nil, goerr.Wrap(model.ErrNotFound, "plant not found", goerr.V("plant_id", plantID))
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Complete marks the current occurrence done. The next occurrence is measured
// from now, however late the completion is.
func (uc *UseCase) Complete(ctx context.Context, id model.ReminderID) (*model.Reminder, error) {
	var completed model.Reminder
	err := uc.plants.Update(ctx, func(plants []*model.SavedPlant) ([]*model.SavedPlant, error) {
		for _, p := range plants {
			if r := p.FindReminder(id); r != nil {
				if err := r.Validate(); err != nil {
					return nil, goerr.Wrap(err, "reminder is malformed")
				}
				r.Complete(uc.now())
				completed = *r
				return plants, nil
			}
		}
		return nil, goerr.Wrap(model.ErrNotFound, "reminder not found", goerr.V("reminder_id", id))
	})
	if err != nil {
		return nil, err
	}

	return &completed, nil
}

// Remove deletes a reminder from whichever plant owns it
func (uc *UseCase) Remove(ctx context.Context, id model.ReminderID) error {
	return uc.plants.Update(ctx, func(plants []*model.SavedPlant) ([]*model.SavedPlant, error) {
		for _, p := range plants {
			if p.FindReminder(id) == nil {
				continue
			}
			p.Reminders = slices.DeleteFunc(p.Reminders, func(r *model.Reminder) bool {
				return r == nil || r.ID == id
			})
			return plants, nil
		}
		return nil, goerr.Wrap(model.ErrNotFound, "reminder not found", goerr.V("reminder_id", id))
	})
}

// List returns every valid reminder across the garden, soonest due first
func (uc *UseCase) List(ctx context.Context) []*Entry {
	entries := uc.entries(ctx)
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		switch {
		case a.Reminder.NextDue < b.Reminder.NextDue:
			return -1
		case a.Reminder.NextDue > b.Reminder.NextDue:
			return 1
		default:
			return 0
		}
	})
	return entries
}

// IsDue reports whether the entry's current occurrence is due
func (uc *UseCase) IsDue(e *Entry) bool {
	return e.Reminder.IsDue(uc.now())
}

// entries loads the garden and drops malformed reminders
func (uc *UseCase) entries(ctx context.Context) []*Entry {
	var entries []*Entry
	for _, p := range uc.plants.LoadAll(ctx) {
		for _, r := range p.Reminders {
			if err := r.Validate(); err != nil {
				logging.From(ctx).Warn("skipping malformed reminder", "plant_id", p.ID, "error", err)
				continue
			}
			entries = append(entries, &Entry{Plant: p, Reminder: r})
		}
	}
	return entries
}

// NotificationTitle returns the title of the notification for e
func NotificationTitle(e *Entry) string {
	return "SproutSage: Care needed for " + e.Plant.CommonName
}

// NotificationBody returns the body of the notification for e
func NotificationBody(e *Entry) string {
	return fmt.Sprintf("It's time for %s! (Scheduled every %d days)", e.Reminder.Type, e.Reminder.FrequencyDays)
}
