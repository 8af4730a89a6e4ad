package repository

import (
	"context"
	"encoding/json"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

// Plants is the user's garden. Plants are matched by common and scientific
// name, not by ID, when deciding whether a care guide is already saved.
type Plants struct {
	store *store.Store
	opts  options
}

func NewPlants(s *store.Store, opts ...Option) *Plants {
	return &Plants{store: s, opts: newOptions(opts)}
}

func decodePlants(ctx context.Context, raws []json.RawMessage) []*model.SavedPlant {
	return decodeRecords(ctx, "saved plant", raws, func(p *model.SavedPlant) bool { return p.ID != "" })
}

func encodePlants(plants []*model.SavedPlant) ([]json.RawMessage, error) {
	return encodeRecords("saved plant", plants)
}

// LoadAll returns the garden in stored order
func (p *Plants) LoadAll(ctx context.Context) []*model.SavedPlant {
	raws := store.Load(ctx, p.store, store.ScopeDurable, KeySavedPlants, []json.RawMessage{})
	return decodePlants(ctx, raws)
}

// List returns the garden, most recently saved first
func (p *Plants) List(ctx context.Context) []*model.SavedPlant {
	plants := p.LoadAll(ctx)
	slices.SortStableFunc(plants, func(a, b *model.SavedPlant) int {
		switch {
		case a.SavedAt > b.SavedAt:
			return -1
		case a.SavedAt < b.SavedAt:
			return 1
		default:
			return 0
		}
	})
	return plants
}

// SaveAll overwrites the whole garden
func (p *Plants) SaveAll(ctx context.Context, plants []*model.SavedPlant) error {
	raws, err := encodePlants(plants)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, p.store, store.ScopeDurable, KeySavedPlants, raws); err != nil {
		return goerr.Wrap(err, "failed to save plants")
	}
	return nil
}

// Update reloads the garden, applies fn and writes the result back. Writers
// in this process are serialized; a concurrent writer in another process can
// still overwrite the result.
func (p *Plants) Update(ctx context.Context, fn func([]*model.SavedPlant) ([]*model.SavedPlant, error)) error {
	_, err := store.Update(ctx, p.store, store.ScopeDurable, KeySavedPlants, []json.RawMessage{},
		func(raws []json.RawMessage) ([]json.RawMessage, error) {
			next, err := fn(decodePlants(ctx, raws))
			if err != nil {
				return nil, err
			}
			return encodePlants(next)
		})
	if err != nil {
		return goerr.Wrap(err, "failed to update plants")
	}
	return nil
}

// Get returns the plant with id
func (p *Plants) Get(ctx context.Context, id model.PlantID) (*model.SavedPlant, error) {
	for _, plant := range p.LoadAll(ctx) {
		if plant.ID == id {
			return plant, nil
		}
	}
	return nil, goerr.Wrap(model.ErrNotFound, "plant not found", goerr.V("id", id))
}

// IsSaved reports whether a plant with the same names is in the garden
func (p *Plants) IsSaved(ctx context.Context, info *model.CareInfo) bool {
	for _, plant := range p.LoadAll(ctx) {
		if plant.SameSpecies(info) {
			return true
		}
	}
	return false
}

// ToggleSave adds info to the garden if absent and returns the new record.
// If a plant with the same names exists it is removed and nil is returned.
func (p *Plants) ToggleSave(ctx context.Context, info *model.CareInfo) (*model.SavedPlant, error) {
	if info == nil {
		return nil, goerr.Wrap(model.ErrValidation, "care info is nil")
	}

	var added *model.SavedPlant
	err := p.Update(ctx, func(plants []*model.SavedPlant) ([]*model.SavedPlant, error) {
		added = nil
		filtered := make([]*model.SavedPlant, 0, len(plants))
		for _, plant := range plants {
			if !plant.SameSpecies(info) {
				filtered = append(filtered, plant)
			}
		}
		if len(filtered) < len(plants) {
			return filtered, nil
		}

		added = model.NewSavedPlant(*info, p.opts.now())
		return append(plants, added), nil
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// Remove deletes the plant and its reminders. Removing an unknown id is a no-op.
func (p *Plants) Remove(ctx context.Context, id model.PlantID) error {
	return p.Update(ctx, func(plants []*model.SavedPlant) ([]*model.SavedPlant, error) {
		return slices.DeleteFunc(plants, func(plant *model.SavedPlant) bool {
			return plant.ID == id
		}), nil
	})
}

// UpdateReminders replaces the reminder list of one plant. Other fields and
// other plants are written back as freshly loaded.
func (p *Plants) UpdateReminders(ctx context.Context, id model.PlantID, reminders []*model.Reminder) error {
	return p.Update(ctx, func(plants []*model.SavedPlant) ([]*model.SavedPlant, error) {
		for _, plant := range plants {
			if plant.ID == id {
				plant.Reminders = reminders
				return plants, nil
			}
		}
		return nil, goerr.Wrap(model.ErrNotFound, "plant not found", goerr.V("id", id))
	})
}

// OnChange calls fn whenever the garden is written from this process
func (p *Plants) OnChange(fn func(ctx context.Context)) func() {
	return p.store.Subscribe(func(ctx context.Context, c store.Change) {
		if c.Scope == store.ScopeDurable && c.Key == KeySavedPlants {
			fn(ctx)
		}
	})
}
