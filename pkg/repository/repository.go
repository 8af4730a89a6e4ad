// Package repository holds the collections persisted through the store. Every
// operation reloads the collection from storage before use, since another
// process may have written it.
package repository

import (
	"time"
)

// Storage keys. Durable scope holds the user's data; session scope holds the
// in-progress identification and notification markers.
const (
	KeyProfile      = "sproutsage_user_profile"
	KeySavedPlants  = "sproutsage_saved_plants"
	KeyScanHistory  = "sproutsage_scan_history"
	KeyCurrentImage = "sproutsage_current_image"
	KeyCurrentScan  = "sproutsage_current_result"
)

// Option configures repositories
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
