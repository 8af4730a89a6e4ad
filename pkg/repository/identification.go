package repository

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

// Identification holds the photo and result currently on screen. It lives
// in the session scope; an empty value removes the key instead of storing a
// placeholder.
type Identification struct {
	store *store.Store
}

func NewIdentification(s *store.Store) *Identification {
	return &Identification{store: s}
}

// Image returns the current photo, or "" if none
func (i *Identification) Image(ctx context.Context) string {
	v, ok, err := i.store.Get(ctx, store.ScopeSession, KeyCurrentImage)
	if err != nil || !ok {
		return ""
	}
	return v
}

// Result returns the current care guide, or nil if none
func (i *Identification) Result(ctx context.Context) *model.CareInfo {
	return store.Load[*model.CareInfo](ctx, i.store, store.ScopeSession, KeyCurrentScan, nil)
}

// Set replaces the current photo and result. Empty values clear them.
func (i *Identification) Set(ctx context.Context, image string, result *model.CareInfo) error {
	if image == "" {
		if err := i.store.Remove(ctx, store.ScopeSession, KeyCurrentImage); err != nil {
			return goerr.Wrap(err, "failed to clear current image")
		}
	} else if err := i.store.Set(ctx, store.ScopeSession, KeyCurrentImage, image); err != nil {
		return goerr.Wrap(err, "failed to store current image")
	}

	if result == nil {
		if err := i.store.Remove(ctx, store.ScopeSession, KeyCurrentScan); err != nil {
			return goerr.Wrap(err, "failed to clear current result")
		}
	} else if err := store.Save(ctx, i.store, store.ScopeSession, KeyCurrentScan, result); err != nil {
		return goerr.Wrap(err, "failed to store current result")
	}

	return nil
}

// Clear removes the current photo and result
func (i *Identification) Clear(ctx context.Context) error {
	return i.Set(ctx, "", nil)
}
