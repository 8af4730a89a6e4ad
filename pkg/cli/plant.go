package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/urfave/cli/v3"
)

func plantCommand() *cli.Command {
	var cfg config

	withPlants := func(fn func(ctx context.Context, c *cli.Command, plants *repository.Plants) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			s, cleanup, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(ctx, c, repository.NewPlants(s))
		}
	}

	getPlant := func(ctx context.Context, c *cli.Command, plants *repository.Plants) (*model.SavedPlant, error) {
		id, err := requireArg(c, 0, "plant-id")
		if err != nil {
			return nil, err
		}
		return plants.Get(ctx, model.PlantID(id))
	}

	return &cli.Command{
		Name:  "plant",
		Usage: "Plants saved in your garden",
		Flags: globalFlags(&cfg),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List saved plants, most recently saved first",
				Action: withPlants(func(ctx context.Context, c *cli.Command, plants *repository.Plants) error {
					w := c.Root().Writer
					list := plants.List(ctx)
					if len(list) == 0 {
						fmt.Fprintf(w, "Your garden is empty. Identify plants and save them to start it.\n")
						return nil
					}
					for _, p := range list {
						fmt.Fprintf(w, "%s  %-24s %s  (saved %s, %d reminders)\n",
							p.ID, p.CommonName, p.ScientificName,
							time.UnixMilli(p.SavedAt).Local().Format(time.DateOnly), len(p.Reminders))
					}
					return nil
				}),
			},
			{
				Name:      "show",
				Usage:     "Show the care guide and reminders of a saved plant",
				ArgsUsage: "<plant-id>",
				Action: withPlants(func(ctx context.Context, c *cli.Command, plants *repository.Plants) error {
					p, err := getPlant(ctx, c, plants)
					if err != nil {
						return err
					}
					return printYAML(c.Root().Writer, p)
				}),
			},
			{
				Name:      "share",
				Usage:     "Print a shareable summary of a saved plant",
				ArgsUsage: "<plant-id>",
				Action: withPlants(func(ctx context.Context, c *cli.Command, plants *repository.Plants) error {
					p, err := getPlant(ctx, c, plants)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.Root().Writer, p.ShareText())
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove a plant and its reminders from the garden",
				ArgsUsage: "<plant-id>",
				Action: withPlants(func(ctx context.Context, c *cli.Command, plants *repository.Plants) error {
					p, err := getPlant(ctx, c, plants)
					if err != nil {
						return err
					}
					if err := plants.Remove(ctx, p.ID); err != nil {
						return goerr.Wrap(err, "failed to remove plant")
					}
					fmt.Fprintf(c.Root().Writer, "Removed %s from your garden\n", p.CommonName)
					return nil
				}),
			},
		},
	}
}
