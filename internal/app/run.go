package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"futures-six/internal/scheduler"
	"futures-six/internal/warehouse"
)

// Run executes the long-running ingest watcher: every interval it scans the
// raw directory for batch subdirectories and merges each into the warehouse.
// The merge layer makes re-scanning already loaded batches harmless.
func (a *App) Run(ctx context.Context) error {
	if a.Config.Ingest.RawDir == "" {
		return errors.New("ingest.raw_dir not configured")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Ingest.WatchInterval,
		AlignToStart: a.Config.Ingest.AlignToInterval,
		StartupDelay: a.Config.Ingest.StartupDelay,
	}, a.Logger)

	a.Logger.Info().Str("raw_dir", a.Config.Ingest.RawDir).Msg("starting ingest watcher")
	err = sched.Run(ctx, func(ctx context.Context, at time.Time) error {
		return a.scanRawDir(ctx, store)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("ingest watcher terminated with error")
		return err
	}

	a.Logger.Info().Msg("ingest watcher stopped")
	return nil
}

func (a *App) scanRawDir(ctx context.Context, store *warehouse.Store) error {
	entries, err := os.ReadDir(a.Config.Ingest.RawDir)
	if err != nil {
		return err
	}

	batches := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			batches = append(batches, entry.Name())
		}
	}
	sort.Strings(batches)

	if len(batches) == 0 {
		a.Logger.Debug().Msg("no batch directories found")
		return nil
	}

	for _, name := range batches {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dir := filepath.Join(a.Config.Ingest.RawDir, name)
		result, err := store.IngestBatchDir(ctx, dir)
		if err != nil {
			a.Logger.Error().Err(err).Str("batch", name).Msg("batch ingest failed")
			continue
		}
		if len(result.Loaded) > 0 {
			a.Logger.Info().Str("batch", name).Strs("loaded", result.Loaded).Msg("batch scanned")
		}
	}

	if _, err := store.SyncSessions(ctx); err != nil {
		return err
	}
	return nil
}
