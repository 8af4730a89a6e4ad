package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/usecase/reminder"
	"github.com/urfave/cli/v3"
)

// newReminderUseCase opens the store and builds the reminder usecase
func (cfg *config) newReminderUseCase(ctx context.Context, c *cli.Command) (*reminder.UseCase, func(), error) {
	scope, err := cfg.markerScope()
	if err != nil {
		return nil, nil, err
	}

	s, cleanup, err := cfg.newStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	uc := reminder.New(repository.NewPlants(s), s, cfg.newNotifier(c.Root().Writer),
		reminder.WithMarkerScope(scope))
	return uc, cleanup, nil
}

func reminderCommand() *cli.Command {
	var (
		cfg           config
		reminderType  string
		frequencyDays int64
	)

	withReminders := func(fn func(ctx context.Context, c *cli.Command, uc *reminder.UseCase) error) cli.ActionFunc {
		return func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			uc, cleanup, err := cfg.newReminderUseCase(ctx, c)
			if err != nil {
				return err
			}
			defer cleanup()
			return fn(ctx, c, uc)
		}
	}

	types := make([]string, len(model.ReminderTypes))
	for i, t := range model.ReminderTypes {
		types[i] = string(t)
	}

	flags := append(globalFlags(&cfg), reminderFlags(&cfg)...)

	return &cli.Command{
		Name:  "reminder",
		Usage: "Recurring care reminders for saved plants",
		Flags: flags,
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List reminders, soonest due first",
				Action: withReminders(func(ctx context.Context, c *cli.Command, uc *reminder.UseCase) error {
					w := c.Root().Writer
					entries := uc.List(ctx)
					if len(entries) == 0 {
						fmt.Fprintf(w, "No reminders set\n")
						return nil
					}
					for _, e := range entries {
						status := "scheduled"
						if uc.IsDue(e) {
							status = "DUE"
						}
						fmt.Fprintf(w, "%s  %-9s %-12s every %2d days  next %s  %s\n",
							e.Reminder.ID, status, e.Reminder.Type, e.Reminder.FrequencyDays,
							e.Reminder.DueAt().Local().Format(time.DateTime), e.Plant.CommonName)
					}
					return nil
				}),
			},
			{
				Name:      "add",
				Usage:     "Add a reminder to a saved plant",
				ArgsUsage: "<plant-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "type",
						Aliases:     []string{"t"},
						Usage:       "Reminder type (" + strings.Join(types, ", ") + ")",
						Value:       string(model.ReminderWatering),
						Destination: &reminderType,
					},
					&cli.IntFlag{
						Name:        "every",
						Aliases:     []string{"e"},
						Usage:       fmt.Sprintf("Frequency in days (1-%d)", model.MaxFrequencyDays),
						Value:       7,
						Destination: &frequencyDays,
					},
				},
				Action: withReminders(func(ctx context.Context, c *cli.Command, uc *reminder.UseCase) error {
					id, err := requireArg(c, 0, "plant-id")
					if err != nil {
						return err
					}
					r, err := uc.Create(ctx, model.PlantID(id), model.ReminderType(reminderType), int(frequencyDays))
					if err != nil {
						return goerr.Wrap(err, "failed to add reminder")
					}
					fmt.Fprintf(c.Root().Writer, "Added %s reminder %s, next due %s\n",
						r.Type, r.ID, r.DueAt().Local().Format(time.DateTime))
					return nil
				}),
			},
			{
				Name:      "complete",
				Usage:     "Mark a reminder done; the next one is scheduled from now",
				ArgsUsage: "<reminder-id>",
				Action: withReminders(func(ctx context.Context, c *cli.Command, uc *reminder.UseCase) error {
					id, err := requireArg(c, 0, "reminder-id")
					if err != nil {
						return err
					}
					r, err := uc.Complete(ctx, model.ReminderID(id))
					if err != nil {
						return goerr.Wrap(err, "failed to complete reminder")
					}
					fmt.Fprintf(c.Root().Writer, "Done! Next %s due %s\n",
						r.Type, r.DueAt().Local().Format(time.DateTime))
					return nil
				}),
			},
			{
				Name:      "remove",
				Usage:     "Delete a reminder",
				ArgsUsage: "<reminder-id>",
				Action: withReminders(func(ctx context.Context, c *cli.Command, uc *reminder.UseCase) error {
					id, err := requireArg(c, 0, "reminder-id")
					if err != nil {
						return err
					}
					if err := uc.Remove(ctx, model.ReminderID(id)); err != nil {
						return goerr.Wrap(err, "failed to remove reminder")
					}
					fmt.Fprintf(c.Root().Writer, "Removed reminder %s\n", id)
					return nil
				}),
			},
			{
				Name:  "check",
				Usage: "Run one reminder check and send notifications for due reminders",
				Action: withReminders(func(ctx context.Context, c *cli.Command, uc *reminder.UseCase) error {
					sent := uc.Tick(ctx)
					fmt.Fprintf(c.Root().Writer, "%d notification(s) sent\n", sent)
					return nil
				}),
			},
		},
	}
}

func watchCommand() *cli.Command {
	var cfg config

	flags := append(globalFlags(&cfg), reminderFlags(&cfg)...)

	return &cli.Command{
		Name:  "watch",
		Usage: "Keep running and notify when reminders are due",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			uc, cleanup, err := cfg.newReminderUseCase(ctx, c)
			if err != nil {
				return err
			}
			defer cleanup()

			scheduler := reminder.NewScheduler(uc, cfg.pollInterval)
			scheduler.Start(ctx)
			defer scheduler.Stop()

			fmt.Fprintf(c.Root().Writer, "Watching reminders (checking at least every %s). Press Ctrl+C to stop.\n", cfg.pollInterval)
			<-ctx.Done()
			return nil
		},
	}
}
