package repository

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

// Profile is the single user record. Saving it notifies every OnChange
// listener so other views can reload it.
type Profile struct {
	store *store.Store
}

func NewProfile(s *store.Store) *Profile {
	return &Profile{store: s}
}

// Load returns the saved profile or the default one
func (p *Profile) Load(ctx context.Context) *model.UserProfile {
	profile := store.Load(ctx, p.store, store.ScopeDurable, KeyProfile, model.DefaultProfile())
	if profile == nil {
		return model.DefaultProfile()
	}
	return profile
}

// Save overwrites the profile. An empty name is rejected.
func (p *Profile) Save(ctx context.Context, profile *model.UserProfile) error {
	if profile == nil || strings.TrimSpace(profile.Name) == "" {
		return goerr.Wrap(model.ErrValidation, "profile name is required")
	}
	if err := store.Save(ctx, p.store, store.ScopeDurable, KeyProfile, profile); err != nil {
		return goerr.Wrap(err, "failed to save profile")
	}
	return nil
}

// OnChange calls fn with the freshly loaded profile after every save
func (p *Profile) OnChange(fn func(ctx context.Context, profile *model.UserProfile)) func() {
	return p.store.Subscribe(func(ctx context.Context, c store.Change) {
		if c.Scope == store.ScopeDurable && c.Key == KeyProfile {
			fn(ctx, p.Load(ctx))
		}
	})
}
