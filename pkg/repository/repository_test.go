package repository_test

import (
	"time"

	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func newStore() *store.Store {
	return store.New(adapter.NewMemoryKV(), adapter.NewMemoryKV())
}

func careInfo(common, scientific string) model.CareInfo {
	return model.CareInfo{
		CommonName:        common,
		ScientificName:    scientific,
		Description:       "A leafy plant",
		Watering:          "Weekly",
		Light:             "Bright indirect",
		Soil:              "Well-draining",
		Temperature:       "18-27°C",
		Humidity:          "Medium",
		PotentialProblems: []string{"Root rot"},
	}
}
