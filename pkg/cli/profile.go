package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/usecase/identify"
	"github.com/urfave/cli/v3"
)

func profileCommand() *cli.Command {
	var (
		cfg          config
		name         string
		avatarPath   string
		removeAvatar bool
	)

	withProfile := func(fn func(ctx context.Context, c *cli.Command, p *repository.Profile) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			s, cleanup, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(ctx, c, repository.NewProfile(s))
		}
	}

	return &cli.Command{
		Name:  "profile",
		Usage: "Your gardener profile",
		Flags: globalFlags(&cfg),
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the profile",
				Action: withProfile(func(ctx context.Context, c *cli.Command, p *repository.Profile) error {
					profile := p.Load(ctx)
					avatar := "none"
					if profile.Avatar != nil {
						avatar = "set"
					}
					fmt.Fprintf(c.Root().Writer, "name: %s\navatar: %s\n", profile.Name, avatar)
					return nil
				}),
			},
			{
				Name:  "set",
				Usage: "Update the profile",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "name",
						Aliases:     []string{"n"},
						Usage:       "Display name",
						Destination: &name,
					},
					&cli.StringFlag{
						Name:        "avatar",
						Usage:       "Image file used as avatar",
						Destination: &avatarPath,
					},
					&cli.BoolFlag{
						Name:        "remove-avatar",
						Usage:       "Remove the avatar",
						Destination: &removeAvatar,
					},
				},
				Action: withProfile(func(ctx context.Context, c *cli.Command, p *repository.Profile) error {
					profile := p.Load(ctx)
					if name != "" {
						profile.Name = name
					}
					switch {
					case removeAvatar:
						profile.Avatar = nil
					case avatarPath != "":
						img, err := identify.LoadImage(avatarPath)
						if err != nil {
							return err
						}
						uri := img.DataURI()
						profile.Avatar = &uri
					}

					if err := p.Save(ctx, profile); err != nil {
						return goerr.Wrap(err, "failed to save profile")
					}
					fmt.Fprintf(c.Root().Writer, "Profile saved for %s\n", profile.Name)
					return nil
				}),
			},
		},
	}
}

