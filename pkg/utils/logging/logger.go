package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/m-mizutani/clog"
	"github.com/m-mizutani/goerr/v2"
)

type ctxLoggerKey struct{}

var defaultLogger atomic.Pointer[slog.Logger]

// LevelNames lists accepted values of the --log-level flag
var LevelNames = []string{"debug", "info", "warn", "error"}

func init() {
	defaultLogger.Store(New("info", os.Stderr))
}

// ParseLevel converts a level name into slog.Level (case-insensitive).
// "warning" is accepted as an alias of "warn".
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, goerr.New("invalid log level", goerr.V("level", level))
	}
}

// New creates a console logger writing to w. Unknown level names fall back
// to info.
func New(level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}

	lv, err := ParseLevel(level)

	handler := clog.New(
		clog.WithWriter(w),
		clog.WithLevel(lv),
		clog.WithTimeFmt("15:04:05"),
		clog.WithSource(false),
		clog.WithAttrHook(clog.GoerrHook),
	)
	logger := slog.New(handler)

	if err != nil {
		logger.Warn("unknown log level, using info", "level", level)
	}
	return logger
}

// Default returns the process-wide logger
func Default() *slog.Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the process-wide logger
func SetDefault(logger *slog.Logger) {
	if logger == nil {
		return
	}
	defaultLogger.Store(logger)
}

// With returns a copy of ctx carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey{}, logger)
}

// From returns the logger carried by ctx, or the default logger
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(ctxLoggerKey{}).(*slog.Logger); ok {
			return logger
		}
	}
	return Default()
}

// Component tags the logger in ctx with a component name
func Component(ctx context.Context, name string) (context.Context, *slog.Logger) {
	logger := From(ctx).With("component", name)
	return With(ctx, logger), logger
}
