package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

func TestToggleSave(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	plants := repository.NewPlants(newStore(), repository.WithClock(clock.Now))

	fern := careInfo("Fern", "Nephrolepis exaltata")
	pothos := careInfo("Pothos", "Epipremnum aureum")

	_, err := plants.ToggleSave(ctx, &pothos)
	gt.NoError(t, err)
	before := plants.LoadAll(ctx)

	gt.False(t, plants.IsSaved(ctx, &fern))
	added, err := plants.ToggleSave(ctx, &fern)
	gt.NoError(t, err)
	gt.V(t, added).NotNil()
	gt.Equal(t, added.CommonName, "Fern")
	gt.Equal(t, added.SavedAt, clock.now.UnixMilli())
	gt.True(t, plants.IsSaved(ctx, &fern))
	gt.A(t, plants.LoadAll(ctx)).Length(2)

	// a different description with the same names is the same plant
	variant := fern
	variant.Description = "Another description"
	gt.True(t, plants.IsSaved(ctx, &variant))

	removed, err := plants.ToggleSave(ctx, &variant)
	gt.NoError(t, err)
	gt.V(t, removed).Nil()
	gt.False(t, plants.IsSaved(ctx, &fern))
	gt.Equal(t, plants.LoadAll(ctx), before)
}

func TestToggleSaveNeverDuplicates(t *testing.T) {
	ctx := context.Background()
	plants := repository.NewPlants(newStore())
	fern := careInfo("Fern", "Nephrolepis exaltata")

	for i := 0; i < 5; i++ {
		_, err := plants.ToggleSave(ctx, &fern)
		gt.NoError(t, err)

		count := 0
		for _, p := range plants.LoadAll(ctx) {
			if p.SameSpecies(&fern) {
				count++
			}
		}
		gt.True(t, count <= 1)
	}
}

func TestPlantsListNewestFirst(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	plants := repository.NewPlants(newStore(), repository.WithClock(clock.Now))

	for _, name := range []string{"A", "B", "C"} {
		info := careInfo(name, name+" sp.")
		_, err := plants.ToggleSave(ctx, &info)
		gt.NoError(t, err)
		clock.Advance(time.Hour)
	}

	stored := plants.LoadAll(ctx)
	gt.Equal(t, stored[0].CommonName, "A")

	listed := plants.List(ctx)
	gt.A(t, listed).Length(3)
	gt.Equal(t, listed[0].CommonName, "C")
	gt.Equal(t, listed[2].CommonName, "A")
}

func TestPlantsRemoveAndGet(t *testing.T) {
	ctx := context.Background()
	plants := repository.NewPlants(newStore())

	fern := careInfo("Fern", "Nephrolepis exaltata")
	added, err := plants.ToggleSave(ctx, &fern)
	gt.NoError(t, err)

	got, err := plants.Get(ctx, added.ID)
	gt.NoError(t, err)
	gt.Equal(t, got.ScientificName, "Nephrolepis exaltata")

	gt.NoError(t, plants.Remove(ctx, added.ID))
	_, err = plants.Get(ctx, added.ID)
	gt.True(t, errors.Is(err, model.ErrNotFound))
	gt.A(t, plants.LoadAll(ctx)).Length(0)
}

func TestUpdateReminders(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	plants := repository.NewPlants(newStore(), repository.WithClock(clock.Now))

	fern := careInfo("Fern", "Nephrolepis exaltata")
	pothos := careInfo("Pothos", "Epipremnum aureum")
	a, err := plants.ToggleSave(ctx, &fern)
	gt.NoError(t, err)
	b, err := plants.ToggleSave(ctx, &pothos)
	gt.NoError(t, err)

	r, err := model.NewReminder(model.ReminderWatering, 7, clock.now)
	gt.NoError(t, err)
	gt.NoError(t, plants.UpdateReminders(ctx, a.ID, []*model.Reminder{r}))

	got, err := plants.Get(ctx, a.ID)
	gt.NoError(t, err)
	gt.A(t, got.Reminders).Length(1)
	gt.Equal(t, got.Reminders[0].ID, r.ID)
	gt.Equal(t, got.CommonName, "Fern")

	other, err := plants.Get(ctx, b.ID)
	gt.NoError(t, err)
	gt.A(t, other.Reminders).Length(0)
	gt.Equal(t, other.SavedAt, b.SavedAt)

	err = plants.UpdateReminders(ctx, model.PlantID("missing"), nil)
	gt.True(t, errors.Is(err, model.ErrNotFound))
}

func TestPlantsCorruptedValue(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	gt.NoError(t, s.Set(ctx, store.ScopeDurable, repository.KeySavedPlants, "this is not json"))

	plants := repository.NewPlants(s)
	loaded := plants.LoadAll(ctx)
	gt.V(t, loaded).NotNil()
	gt.A(t, loaded).Length(0)
}

func TestPlantsSkipsCorruptedRecord(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	raw := `[
		{"id":"p1","commonName":"Fern","scientificName":"N. exaltata","savedAt":1},
		{"id":42,"commonName":{}},
		null,
		{"commonName":"No id"},
		{"id":"p2","commonName":"Pothos","scientificName":"E. aureum","savedAt":2}
	]`
	gt.NoError(t, s.Set(ctx, store.ScopeDurable, repository.KeySavedPlants, raw))

	plants := repository.NewPlants(s)
	loaded := plants.LoadAll(ctx)
	gt.A(t, loaded).Length(2)
	gt.Equal(t, loaded[0].ID, model.PlantID("p1"))
	gt.Equal(t, loaded[1].ID, model.PlantID("p2"))
}

func TestPlantsOnChange(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	plants := repository.NewPlants(s)

	calls := 0
	unsubscribe := plants.OnChange(func(ctx context.Context) { calls++ })
	defer unsubscribe()

	fern := careInfo("Fern", "Nephrolepis exaltata")
	_, err := plants.ToggleSave(ctx, &fern)
	gt.NoError(t, err)
	gt.Equal(t, calls, 1)

	// writes to other keys are ignored
	gt.NoError(t, s.Set(ctx, store.ScopeDurable, repository.KeyScanHistory, "[]"))
	gt.Equal(t, calls, 1)
}
