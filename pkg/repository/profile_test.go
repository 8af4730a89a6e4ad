package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/store"
)

func TestProfileDefault(t *testing.T) {
	ctx := context.Background()
	p := repository.NewProfile(newStore())

	profile := p.Load(ctx)
	gt.Equal(t, profile.Name, "Gardener")
	gt.V(t, profile.Avatar).Nil()
}

func TestProfileCorruptedFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	s := newStore()
	gt.NoError(t, s.Set(ctx, store.ScopeDurable, repository.KeyProfile, "{oops"))

	gt.Equal(t, repository.NewProfile(s).Load(ctx).Name, model.DefaultProfileName)
}

func TestProfileSaveBroadcasts(t *testing.T) {
	ctx := context.Background()
	s := newStore()

	// two independent views sharing the same storage
	header := repository.NewProfile(s)
	chat := repository.NewProfile(s)

	var headerName, chatName string
	defer header.OnChange(func(ctx context.Context, p *model.UserProfile) { headerName = p.Name })()
	defer chat.OnChange(func(ctx context.Context, p *model.UserProfile) { chatName = p.Name })()

	avatar := "data:image/jpeg;base64,/9j/"
	gt.NoError(t, header.Save(ctx, &model.UserProfile{Name: "Rosa", Avatar: &avatar}))

	gt.Equal(t, headerName, "Rosa")
	gt.Equal(t, chatName, "Rosa")

	loaded := chat.Load(ctx)
	gt.Equal(t, loaded.Name, "Rosa")
	gt.Equal(t, *loaded.Avatar, avatar)
}

func TestProfileRejectsEmptyName(t *testing.T) {
	ctx := context.Background()
	p := repository.NewProfile(newStore())

	err := p.Save(ctx, &model.UserProfile{Name: "  "})
	gt.True(t, errors.Is(err, model.ErrValidation))
	gt.Equal(t, p.Load(ctx).Name, model.DefaultProfileName)
}
