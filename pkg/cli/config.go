package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/sproutsage/pkg/adapter"
	"github.com/m-mizutani/sproutsage/pkg/interfaces"
	"github.com/m-mizutani/sproutsage/pkg/store"
	"github.com/m-mizutani/sproutsage/pkg/usecase/reminder"
	"github.com/m-mizutani/sproutsage/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"google.golang.org/api/option"
)

// Durable storage backends
const (
	backendSQLite    = "sqlite"
	backendFirestore = "firestore"
	backendGCS       = "gcs"
	backendMemory    = "memory"
)

// config holds configuration values
type config struct {
	logLevel string

	// Storage
	backend     string
	dbPath      string
	project     string
	database    string
	bucket      string
	credentials string

	// Adapters
	geminiAPIKey   string
	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Reminders
	notifyURLs   []string
	pollInterval time.Duration
	notifyMarker string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (" + strings.Join(logging.LevelNames, ", ") + ")",
			Value:       "info",
			Sources:     cli.EnvVars("SPROUTSAGE_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Durable storage backend (sqlite, firestore, gcs, memory)",
			Value:       backendSQLite,
			Sources:     cli.EnvVars("SPROUTSAGE_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "SQLite database file (default: ~/.local/share/sproutsage/sproutsage.db)",
			Sources:     cli.EnvVars("SPROUTSAGE_DB_PATH"),
			Destination: &cfg.dbPath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for Firestore",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "bucket",
			Usage:       "Cloud Storage bucket for the gcs backend",
			Sources:     cli.EnvVars("SPROUTSAGE_BUCKET"),
			Destination: &cfg.bucket,
		},
		&cli.StringFlag{
			Name:        "credentials",
			Usage:       "Google Cloud credentials file",
			Sources:     cli.EnvVars("GOOGLE_APPLICATION_CREDENTIALS"),
			Destination: &cfg.credentials,
		},
	}
}

// llmFlags returns flags for LLM-related configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (Vertex AI is used when empty)",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model name",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// reminderFlags returns flags for notification delivery with destination config
func reminderFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "notify-url",
			Usage:       "Notification service URL, e.g. ntfy://ntfy.sh/my-garden (repeatable)",
			Sources:     cli.EnvVars("SPROUTSAGE_NOTIFY_URL"),
			Destination: &cfg.notifyURLs,
		},
		&cli.DurationFlag{
			Name:        "poll-interval",
			Usage:       "Longest wait between reminder checks",
			Value:       reminder.DefaultPollInterval,
			Sources:     cli.EnvVars("SPROUTSAGE_POLL_INTERVAL"),
			Destination: &cfg.pollInterval,
		},
		&cli.StringFlag{
			Name:        "notify-marker",
			Usage:       "Where sent notifications are remembered: session (notify again after restart) or durable",
			Value:       string(store.ScopeSession),
			Sources:     cli.EnvVars("SPROUTSAGE_NOTIFY_MARKER"),
			Destination: &cfg.notifyMarker,
		},
	}
}

// setupLogger configures the default logger and returns ctx carrying it
func (cfg *config) setupLogger(ctx context.Context) context.Context {
	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger)
}

func (cfg *config) clientOptions() []option.ClientOption {
	if cfg.credentials == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(cfg.credentials)}
}

// defaultDBPath returns the SQLite file under the user's data directory
func defaultDBPath() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "sproutsage", "sproutsage.db"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", goerr.Wrap(err, "failed to resolve home directory")
	}
	return filepath.Join(home, ".local", "share", "sproutsage", "sproutsage.db"), nil
}

// newDurableKV creates the backend of the durable scope. The returned
// function releases it.
func (cfg *config) newDurableKV(ctx context.Context) (interfaces.KV, func(), error) {
	switch cfg.backend {
	case backendSQLite, "":
		path := cfg.dbPath
		if path == "" {
			p, err := defaultDBPath()
			if err != nil {
				return nil, nil, err
			}
			path = p
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create data directory", goerr.V("path", path))
		}

		kv, err := adapter.NewSQLiteKV(ctx, path)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open sqlite storage")
		}
		return kv, closer(ctx, kv.Close), nil

	case backendFirestore:
		if cfg.project == "" {
			return nil, nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, nil, goerr.New("database is required")
		}

		kv, err := adapter.NewFirestoreKV(ctx, cfg.project, cfg.database, cfg.clientOptions())
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create firestore storage")
		}
		return kv, closer(ctx, kv.Close), nil

	case backendGCS:
		if cfg.bucket == "" {
			return nil, nil, goerr.New("bucket is required")
		}

		storage, err := adapter.NewStorage(ctx, cfg.bucket, cfg.clientOptions()...)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create storage")
		}
		return adapter.NewObjectKV(storage, "sproutsage"), func() {}, nil

	case backendMemory:
		return adapter.NewMemoryKV(), func() {}, nil

	default:
		return nil, nil, goerr.New("unknown storage backend", goerr.V("backend", cfg.backend))
	}
}

func closer(ctx context.Context, fn func() error) func() {
	return func() {
		if err := fn(); err != nil {
			logging.From(ctx).Warn("failed to close storage", "error", err)
		}
	}
}

// newStore creates a Store with an in-process session scope and the
// configured durable scope
func (cfg *config) newStore(ctx context.Context) (*store.Store, func(), error) {
	durable, cleanup, err := cfg.newDurableKV(ctx)
	if err != nil {
		return nil, nil, err
	}
	return store.New(adapter.NewMemoryKV(), durable), cleanup, nil
}

// newGemini creates a new Gemini adapter instance
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-api-key or gemini-project is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
	}

	gemini, err := adapter.NewGemini(ctx, adapter.GeminiConfig{
		APIKey:   cfg.geminiAPIKey,
		Project:  cfg.geminiProject,
		Location: cfg.geminiLocation,
	}, adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini client")
	}
	return gemini, nil
}

// newNotifier prints notifications to w and also sends them to every
// configured service URL
func (cfg *config) newNotifier(w io.Writer) interfaces.Notifier {
	console := adapter.NewConsoleNotifier(w)
	if len(cfg.notifyURLs) == 0 {
		return console
	}
	return adapter.MultiNotifier{console, adapter.NewShoutrrrNotifier(cfg.notifyURLs, 10*time.Second)}
}

// markerScope returns the storage scope of notification markers
func (cfg *config) markerScope() (store.Scope, error) {
	switch store.Scope(cfg.notifyMarker) {
	case store.ScopeSession, "":
		return store.ScopeSession, nil
	case store.ScopeDurable:
		return store.ScopeDurable, nil
	default:
		return "", goerr.New("invalid notify-marker, use session or durable", goerr.V("value", cfg.notifyMarker))
	}
}
