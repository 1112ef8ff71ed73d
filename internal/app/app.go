package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"futures-six/internal/config"
	"futures-six/internal/warehouse"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*warehouse.Store, func(), error) {
	store, err := warehouse.Open(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func (a *App) openStoreReadOnly(ctx context.Context) (*warehouse.Store, func(), error) {
	store, err := warehouse.OpenReadOnly(ctx, a.Config.Database, a.Logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

// IngestOptions configure a one-shot batch ingest.
type IngestOptions struct {
	Dir   string
	Dedup bool
}

// BuildOptions select which continuous series to (re)build over which window.
type BuildOptions struct {
	Series string
	Root   string
	Rank   int
	Rule   string
	From   time.Time
	To     time.Time
}

// GoldOptions configure a gold aggregation pass.
type GoldOptions struct {
	Bucket string
	From   time.Time
	To     time.Time
}

// RollsOptions configure the roll-event listing.
type RollsOptions struct {
	Series string
}

// ShowOptions configure the show command. An empty Series shows the canonical
// view across roots.
type ShowOptions struct {
	Series string
	Limit  int
}

// ExportOptions hold parameters for exporting continuous bars.
type ExportOptions struct {
	Series    string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// CanonicalSetOptions designate one series as a root's canonical.
type CanonicalSetOptions struct {
	Root        string
	Series      string
	Description string
	Optional    bool
}
