package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "sproutsage",
		Usage: "Plant identification, care reminders and gardening chat",
		Commands: []*cli.Command{
			identifyCommand(),
			historyCommand(),
			plantCommand(),
			reminderCommand(),
			watchCommand(),
			chatCommand(),
			profileCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		logging.Default().Debug("command failed", "error", err)
		msg := errorMessage(err)
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
		return &Error{
			Code:    1,
			Message: msg,
		}
	}

	return nil
}

// printYAML writes v as a YAML document
func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// requireArg returns the n-th positional argument or a validation error
func requireArg(c *cli.Command, n int, name string) (string, error) {
	if c.Args().Len() <= n {
		return "", missingArg(name)
	}
	return c.Args().Get(n), nil
}
