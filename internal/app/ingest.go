package app

import (
	"context"
	"errors"
)

// Ingest loads one raw batch directory into the warehouse. Re-running over the
// same batch is a no-op beyond replacing identical rows.
func (a *App) Ingest(ctx context.Context, opts IngestOptions) error {
	if opts.Dir == "" {
		return errors.New("--dir is required")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	result, err := store.IngestBatchDir(ctx, opts.Dir)
	if err != nil {
		return err
	}

	synced, err := store.SyncSessions(ctx)
	if err != nil {
		return err
	}

	if opts.Dedup {
		removed, err := store.DedupExisting(ctx)
		if err != nil {
			return err
		}
		total := int64(0)
		for _, n := range removed {
			total += n
		}
		a.Logger.Info().Int64("removed", total).Msg("dedup pass complete")
	}

	a.Logger.Info().
		Str("dir", opts.Dir).
		Strs("loaded", result.Loaded).
		Strs("skipped", result.Skipped).
		Int64("sessions_synced", synced).
		Msg("batch ingest complete")
	return nil
}
