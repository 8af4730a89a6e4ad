package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/model"
	"github.com/m-mizutani/sproutsage/pkg/repository"
	"github.com/m-mizutani/sproutsage/pkg/usecase/chat"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const chatHelp = `Commands:
  /search <text>  show only messages containing text
  /search         clear the search
  /history        show the whole conversation
  /name <name>    change your display name
  /exit           quit`

func chatCommand() *cli.Command {
	var cfg config

	flags := append(globalFlags(&cfg), llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Ask SproutSage about pests, diseases and plant care",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setupLogger(ctx)
			w := c.Root().Writer

			s, cleanup, err := cfg.newStore(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}

			profiles := repository.NewProfile(s)
			profile := profiles.Load(ctx)
			session := chat.Start(gemini)

			// stream reply fragments as they arrive
			printed := map[model.MessageID]int{}
			unsubscribe := session.Subscribe(func(ev chat.Event) {
				if ev.Message.Role != model.RoleModel || !session.AutoScroll() {
					return
				}
				text := ev.Message.Text
				if n := printed[ev.Message.ID]; n < len(text) {
					fmt.Fprint(w, text[n:])
					printed[ev.Message.ID] = len(text)
				}
			})
			defer unsubscribe()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          profile.Name + " > ",
				InterruptPrompt: "^C",
				EOFPrompt:       "/exit",
				Stdout:          w,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start prompt")
			}
			defer rl.Close()

			defer profiles.OnChange(func(ctx context.Context, p *model.UserProfile) {
				rl.SetPrompt(p.Name + " > ")
			})()

			printMessages(w, session.Messages())
			fmt.Fprintf(w, "(type /help for commands)\n\n")

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						break
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				line = strings.TrimSpace(line)
				switch {
				case line == "":
					continue
				case line == "/exit" || line == "exit":
					return nil
				case line == "/help":
					fmt.Fprintln(w, chatHelp)
					continue
				case line == "/history":
					printMessages(w, session.Messages())
					continue
				case strings.HasPrefix(line, "/name "):
					p := profiles.Load(ctx)
					p.Name = strings.TrimSpace(strings.TrimPrefix(line, "/name "))
					if err := profiles.Save(ctx, p); err != nil {
						fmt.Fprintln(w, errorMessage(err))
					}
					continue
				case line == "/search" || strings.HasPrefix(line, "/search "):
					query := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
					session.SetQuery(query)
					view := session.View()
					if query != "" && len(view) == 0 {
						fmt.Fprintf(w, "No messages found matching %q\n", query)
						continue
					}
					printMessages(w, view)
					continue
				}

				fmt.Fprintf(w, "\n🌱 ")
				if err := session.Send(ctx, line); err != nil {
					logging.From(ctx).Debug("chat send failed", "error", err)
					if errors.Is(err, model.ErrBusy) || errors.Is(err, model.ErrValidation) {
						fmt.Fprintln(w, errorMessage(err))
						continue
					}
				}
				fmt.Fprintf(w, "\n\n")
			}

			return nil
		},
	}
}

func printMessages(w io.Writer, msgs []model.ChatMessage) {
	for _, m := range msgs {
		who := "🌱 SproutSage"
		if m.Role == model.RoleUser {
			who = "🧑 You"
		}
		fmt.Fprintf(w, "%s:\n%s\n\n", who, m.Text)
	}
}
