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

func historyCommand() *cli.Command {
	var cfg config

	// withHistory opens the store for one subcommand
	withHistory := func(fn func(ctx context.Context, c *cli.Command, h *repository.History, plants *repository.Plants) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			s, cleanup, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(ctx, c, repository.NewHistory(s), repository.NewPlants(s))
		}
	}

	var yes bool

	return &cli.Command{
		Name:  "history",
		Usage: "Past identifications (the latest 20 are kept)",
		Flags: globalFlags(&cfg),
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List past identifications, newest first",
				Action: withHistory(func(ctx context.Context, c *cli.Command, h *repository.History, plants *repository.Plants) error {
					w := c.Root().Writer
					items := h.LoadAll(ctx)
					if len(items) == 0 {
						fmt.Fprintf(w, "No identifications yet\n")
						return nil
					}
					for _, item := range items {
						mark := " "
						if plants.IsSaved(ctx, &item.Plant) {
							mark = "*"
						}
						fmt.Fprintf(w, "%s %s  %-24s %s  (%s)\n",
							mark, item.ID, item.Plant.CommonName, item.Plant.ScientificName,
							item.Time().Local().Format(time.DateTime))
					}
					return nil
				}),
			},
			{
				Name:      "show",
				Usage:     "Show the care guide of a past identification",
				ArgsUsage: "<history-id>",
				Action: withHistory(func(ctx context.Context, c *cli.Command, h *repository.History, _ *repository.Plants) error {
					id, err := requireArg(c, 0, "history-id")
					if err != nil {
						return err
					}
					item, err := h.Get(ctx, model.HistoryID(id))
					if err != nil {
						return err
					}
					return printYAML(c.Root().Writer, item)
				}),
			},
			{
				Name:      "save",
				Usage:     "Save or unsave the plant of a past identification",
				ArgsUsage: "<history-id>",
				Action: withHistory(func(ctx context.Context, c *cli.Command, h *repository.History, plants *repository.Plants) error {
					id, err := requireArg(c, 0, "history-id")
					if err != nil {
						return err
					}
					item, err := h.Get(ctx, model.HistoryID(id))
					if err != nil {
						return err
					}
					p, err := plants.ToggleSave(ctx, &item.Plant)
					if err != nil {
						return goerr.Wrap(err, "failed to toggle saved plant")
					}
					if p == nil {
						fmt.Fprintf(c.Root().Writer, "Removed %s from your garden\n", item.Plant.CommonName)
					} else {
						fmt.Fprintf(c.Root().Writer, "Saved %s to your garden (id: %s)\n", p.CommonName, p.ID)
					}
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Remove one past identification",
				ArgsUsage: "<history-id>",
				Action: withHistory(func(ctx context.Context, c *cli.Command, h *repository.History, _ *repository.Plants) error {
					id, err := requireArg(c, 0, "history-id")
					if err != nil {
						return err
					}
					if err := h.Remove(ctx, model.HistoryID(id)); err != nil {
						return goerr.Wrap(err, "failed to remove history item")
					}
					fmt.Fprintf(c.Root().Writer, "Removed %s\n", id)
					return nil
				}),
			},
			{
				Name:  "clear",
				Usage: "Delete all past identifications (cannot be undone)",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "yes",
						Aliases:     []string{"y"},
						Usage:       "Confirm deleting every history item",
						Destination: &yes,
					},
				},
				Action: withHistory(func(ctx context.Context, c *cli.Command, h *repository.History, _ *repository.Plants) error {
					if !yes {
						return goerr.Wrap(model.ErrValidation, "clearing history cannot be undone, pass --yes to confirm")
					}
					if err := h.Clear(ctx); err != nil {
						return goerr.Wrap(err, "failed to clear history")
					}
					fmt.Fprintf(c.Root().Writer, "History cleared\n")
					return nil
				}),
			},
		},
	}
}
