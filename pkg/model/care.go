package model

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// CareInfo is the identification and care guide produced by the AI gateway.
// It is treated as a value and never mutated after construction.
type CareInfo struct {
	CommonName        string   `json:"commonName" yaml:"commonName"`
	ScientificName    string   `json:"scientificName" yaml:"scientificName"`
	Description       string   `json:"description" yaml:"description"`
	Watering          string   `json:"watering" yaml:"watering"`
	Light             string   `json:"light" yaml:"light"`
	Soil              string   `json:"soil" yaml:"soil"`
	Temperature       string   `json:"temperature" yaml:"temperature"`
	Humidity          string   `json:"humidity" yaml:"humidity"`
	PotentialProblems []string `json:"potentialProblems" yaml:"potentialProblems"`
}

// Validate checks that every field is populated
func (c *CareInfo) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"commonName", c.CommonName},
		{"scientificName", c.ScientificName},
		{"description", c.Description},
		{"watering", c.Watering},
		{"light", c.Light},
		{"soil", c.Soil},
		{"temperature", c.Temperature},
		{"humidity", c.Humidity},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return goerr.Wrap(ErrValidation, "care info field is empty", goerr.V("field", f.name))
		}
	}

	if len(c.PotentialProblems) == 0 {
		return goerr.Wrap(ErrValidation, "care info has no potential problems")
	}
	for i, p := range c.PotentialProblems {
		if strings.TrimSpace(p) == "" {
			return goerr.Wrap(ErrValidation, "potential problem is empty", goerr.V("index", i))
		}
	}

	return nil
}

// SameSpecies reports whether two care guides describe the same plant. The
// pair of common and scientific name is the identity, not any record ID.
func (c *CareInfo) SameSpecies(other *CareInfo) bool {
	if c == nil || other == nil {
		return false
	}
	return c.CommonName == other.CommonName && c.ScientificName == other.ScientificName
}

// ShareTitle returns the title used when sharing a care guide
func (c *CareInfo) ShareTitle() string {
	return "Care Guide: " + c.CommonName
}

// ShareText returns a plain-text summary suitable for clipboards and messages
func (c *CareInfo) ShareText() string {
	var b strings.Builder
	b.WriteString(c.ShareTitle())
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Check out this SproutSage care guide for %s (%s):\n\n", c.CommonName, c.ScientificName)
	b.WriteString(c.Description)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Watering: %s\n", c.Watering)
	fmt.Fprintf(&b, "Light: %s\n", c.Light)
	b.WriteString("\nShared via SproutSage")
	return b.String()
}
