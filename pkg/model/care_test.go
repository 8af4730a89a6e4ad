package model_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sproutsage/pkg/model"
)

func newCareInfo() model.CareInfo {
	return model.CareInfo{
		CommonName:        "Snake Plant",
		ScientificName:    "Dracaena trifasciata",
		Description:       "A hardy succulent with upright leaves.",
		Watering:          "Every 2-3 weeks",
		Light:             "Low to bright indirect",
		Soil:              "Cactus mix",
		Temperature:       "15-29°C",
		Humidity:          "Low",
		PotentialProblems: []string{"Overwatering", "Cold damage"},
	}
}

func TestCareInfoValidate(t *testing.T) {
	info := newCareInfo()
	gt.NoError(t, info.Validate())

	noName := newCareInfo()
	noName.CommonName = " "
	gt.True(t, errors.Is(noName.Validate(), model.ErrValidation))

	noProblems := newCareInfo()
	noProblems.PotentialProblems = nil
	gt.True(t, errors.Is(noProblems.Validate(), model.ErrValidation))

	emptyProblem := newCareInfo()
	emptyProblem.PotentialProblems = []string{"Pests", ""}
	gt.True(t, errors.Is(emptyProblem.Validate(), model.ErrValidation))
}

func TestSameSpecies(t *testing.T) {
	a := newCareInfo()
	b := newCareInfo()
	b.Description = "Different text"
	gt.True(t, a.SameSpecies(&b))

	c := newCareInfo()
	c.ScientificName = "Sansevieria trifasciata"
	gt.False(t, a.SameSpecies(&c))
	gt.False(t, a.SameSpecies(nil))
}

func TestShareText(t *testing.T) {
	info := newCareInfo()
	text := info.ShareText()

	gt.S(t, text).Contains("Care Guide: Snake Plant")
	gt.S(t, text).Contains("(Dracaena trifasciata)")
	gt.S(t, text).Contains("Watering: Every 2-3 weeks")
	gt.S(t, text).Contains("Light: Low to bright indirect")
	gt.S(t, text).Contains("Shared via SproutSage")
	gt.S(t, text).NotContains("Cactus mix")
}
