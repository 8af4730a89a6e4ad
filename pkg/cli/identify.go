package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/usecase/identify"
	"github.com/urfave/cli/v3"
)

func identifyCommand() *cli.Command {
	var (
		cfg  config
		save bool
	)

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "save",
			Aliases:     []string{"s"},
			Usage:       "Save the identified plant to the garden",
			Destination: &save,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "identify",
		Usage:     "Identify a plant from a photo and show its care guide",
		ArgsUsage: "<image-file | - (base64 or data URI on stdin)>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)

			src, err := requireArg(c, 0, "image")
			if err != nil {
				return err
			}
			img, err := readImage(src)
			if err != nil {
				return err
			}

			s, cleanup, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			uc, err := identify.New(gemini, repository.NewHistory(s), repository.NewIdentification(s))
			if err != nil {
				return goerr.Wrap(err, "failed to create identify usecase")
			}

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
			sp.Suffix = " Identifying plant..."
			sp.Start()
			info, err := uc.Identify(ctx, img)
			sp.Stop()
			if err != nil {
				return err
			}

			w := c.Root().Writer
			if err := printYAML(w, info); err != nil {
				return goerr.Wrap(err, "failed to print care guide")
			}

			if save {
				plants := repository.NewPlants(s)
				if plants.IsSaved(ctx, info) {
					fmt.Fprintf(w, "\n%s is already in your garden\n", info.CommonName)
					return nil
				}
				p, err := plants.ToggleSave(ctx, info)
				if err != nil {
					return goerr.Wrap(err, "failed to save plant")
				}
				fmt.Fprintf(w, "\nSaved %s to your garden (id: %s)\n", p.CommonName, p.ID)
			}

			return nil
		},
	}
}

// readImage loads a photo from a file, or reads base64 or a data URI from
// stdin when src is "-"
func readImage(src string) (*identify.Image, error) {
	if src != "-" {
		return identify.LoadImage(src)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read image from stdin")
	}
	return identify.ParseImage(string(data))
}
