package adapter

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/interfaces"
	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ShoutrrrNotifier delivers notifications to shoutrrr service URLs
// (ntfy, pushover, slack, ...). Permission is granted only when at least one
// URL is configured and every URL is valid.
type ShoutrrrNotifier struct {
	urls    []string
	timeout time.Duration

	once    sync.Once
	sender  *router.ServiceRouter
	initErr error
}

// NewShoutrrrNotifier creates a notifier for urls. Nothing is validated until
// RequestPermission or Notify is called.
func NewShoutrrrNotifier(urls []string, timeout time.Duration) *ShoutrrrNotifier {
	return &ShoutrrrNotifier{
		urls:    slices.Clone(urls),
		timeout: timeout,
	}
}

func (s *ShoutrrrNotifier) init() error {
	s.once.Do(func() {
		if len(s.urls) == 0 {
			s.initErr = goerr.New("no notification url configured")
			return
		}

		sender, err := shoutrrr.CreateSender(s.urls...)
		if err != nil {
			// the raw error may echo tokens embedded in the URL
			s.initErr = goerr.New("invalid notification url", goerr.V("count", len(s.urls)))
			return
		}
		if s.timeout > 0 {
			sender.Timeout = s.timeout
		}
		sender.SetLogger(log.New(io.Discard, "", 0))
		s.sender = sender
	})
	return s.initErr
}

func (s *ShoutrrrNotifier) RequestPermission(ctx context.Context) interfaces.Permission {
	if err := s.init(); err != nil {
		return interfaces.PermissionDenied
	}
	return interfaces.PermissionGranted
}

func (s *ShoutrrrNotifier) Notify(ctx context.Context, title, body string) error {
	if err := s.init(); err != nil {
		return err
	}

	params := stypes.Params{}
	if title != "" {
		params.SetTitle(title)
	}

	for _, err := range s.sender.Send(body, &params) {
		if err != nil {
			return goerr.Wrap(err, "failed to send notification")
		}
	}
	return nil
}

// ConsoleNotifier prints notifications to a writer, typically the terminal
// running the watch command.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

func (c *ConsoleNotifier) RequestPermission(ctx context.Context) interfaces.Permission {
	if c.w == nil {
		return interfaces.PermissionDenied
	}
	return interfaces.PermissionGranted
}

func (c *ConsoleNotifier) Notify(ctx context.Context, title, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.w, "🔔 %s\n   %s\n", title, body); err != nil {
		return goerr.Wrap(err, "failed to print notification")
	}
	return nil
}

// MultiNotifier fans out to every notifier that grants permission
type MultiNotifier []interfaces.Notifier

func (m MultiNotifier) RequestPermission(ctx context.Context) interfaces.Permission {
	for _, n := range m {
		if n.RequestPermission(ctx) == interfaces.PermissionGranted {
			return interfaces.PermissionGranted
		}
	}
	return interfaces.PermissionDenied
}

func (m MultiNotifier) Notify(ctx context.Context, title, body string) error {
	var errs []error
	for _, n := range m {
		if n.RequestPermission(ctx) != interfaces.PermissionGranted {
			continue
		}
		if err := n.Notify(ctx, title, body); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return goerr.Wrap(errs[0], "notification delivery failed", goerr.V("failures", len(errs)))
	}
	return nil
}
