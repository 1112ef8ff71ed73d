package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"futures-six/internal/catalog"
	"futures-six/internal/series"
	"futures-six/internal/warehouse"
)

// Build constructs continuous bars and roll events for the selected series
// over [From, To], merging results chunk by chunk so a failed month leaves
// earlier months committed.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	targets, err := a.buildTargets(opts)
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return errors.New("no series selected; check universe config or --series")
	}

	if opts.From.IsZero() || opts.To.IsZero() {
		return errors.New("--from and --to are required")
	}
	from, to := catalog.Day(opts.From), catalog.Day(opts.To)
	if to.Before(from) {
		return errors.New("--to must not precede --from")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	cal, err := a.loadCalendar(ctx, store)
	if err != nil {
		return err
	}

	byRoot := groupByRoot(targets)
	roots := sortedRoots(byRoot)

	var totals series.BuildStats
	eventCount := 0

	for _, root := range roots {
		list := byRoot[root]
		snapshot, err := store.LoadSnapshot(ctx, root, from, to)
		if err != nil {
			return err
		}

		resolver := series.NewResolver(snapshot, cal, a.Logger)
		builder := series.NewBuilder(resolver, snapshot, a.Logger)

		for _, cs := range list {
			if err := store.EnsureContract(ctx, cs, a.Config.Builder.AdjustmentMethod); err != nil {
				return err
			}

			events, stats, err := a.buildSeries(ctx, store, builder, cs, cal, from, to)
			if err != nil {
				return err
			}
			totals.Emitted += stats.Emitted
			totals.NotActive += stats.NotActive
			totals.NoData += stats.NoData
			totals.Stale += stats.Stale
			eventCount += events
		}
	}

	if _, err := store.SyncSessions(ctx); err != nil {
		return err
	}

	a.Logger.Info().
		Int("series", len(targets)).
		Int("bars", totals.Emitted).
		Int("roll_events", eventCount).
		Int("not_active", totals.NotActive).
		Int("no_data", totals.NoData).
		Int("stale", totals.Stale).
		Msg("build complete")
	return nil
}

// buildSeries walks the window in month-sized chunks so each merge transaction
// stays bounded.
func (a *App) buildSeries(ctx context.Context, store *warehouse.Store, builder *series.Builder, cs series.ContractSeries, cal catalog.Calendar, from, to time.Time) (int, series.BuildStats, error) {
	chunk := a.Config.Builder.ChunkMonths
	if chunk <= 0 {
		chunk = 1
	}

	var totals series.BuildStats
	eventCount := 0

	for start := from; !start.After(to); start = start.AddDate(0, chunk, 0) {
		end := start.AddDate(0, chunk, 0).AddDate(0, 0, -1)
		if end.After(to) {
			end = to
		}

		dates := cal.Between(start, end)
		if len(dates) == 0 {
			continue
		}

		bars, events, stats, err := builder.Build(cs, dates)
		if err != nil {
			return eventCount, totals, fmt.Errorf("build %s %s..%s: %w",
				cs.String(), start.Format("2006-01-02"), end.Format("2006-01-02"), err)
		}

		result, err := store.MergeContinuousBars(ctx, bars)
		if err != nil {
			var rejected *series.BatchRejectedError
			if errors.As(err, &rejected) {
				a.Logger.Error().
					Str("series", cs.String()).
					Str("reason", rejected.Reason).
					Strs("keys", rejected.Keys).
					Msg("merge batch rejected")
			}
			return eventCount, totals, err
		}

		if err := store.UpsertRollEvents(ctx, events); err != nil {
			return eventCount, totals, err
		}

		totals.Emitted += stats.Emitted
		totals.NotActive += stats.NotActive
		totals.NoData += stats.NoData
		totals.Stale += stats.Stale
		eventCount += len(events)

		a.Logger.Debug().
			Str("series", cs.String()).
			Time("chunk_start", start).
			Int("inserted", result.Inserted).
			Int("replaced", result.Replaced).
			Int("roll_events", len(events)).
			Msg("chunk merged")
	}

	return eventCount, totals, nil
}

// buildTargets resolves the command selection to concrete series keys. An
// explicit --series wins; otherwise the configured universe applies, narrowed
// by --root and --rank.
func (a *App) buildTargets(opts BuildOptions) ([]series.ContractSeries, error) {
	if opts.Series != "" {
		cs, err := series.ParseSeries(opts.Series)
		if err != nil {
			return nil, err
		}
		return []series.ContractSeries{cs}, nil
	}

	var list []series.ContractSeries
	var err error
	if opts.Root != "" {
		list, err = a.Config.Universe.SeriesFor(opts.Root)
	} else {
		list, err = a.Config.Universe.Series()
	}
	if err != nil {
		return nil, err
	}

	if opts.Rule != "" {
		rule, err := series.ParseRuleSlug(opts.Rule)
		if err != nil {
			return nil, err
		}
		kept := list[:0]
		for _, cs := range list {
			if cs.Rule == rule {
				kept = append(kept, cs)
			}
		}
		list = kept
	}

	if opts.Rank < 0 {
		return list, nil
	}
	filtered := list[:0]
	for _, cs := range list {
		if cs.Rank == opts.Rank {
			filtered = append(filtered, cs)
		}
	}
	return filtered, nil
}

// loadCalendar prefers the session calendar derived from ingested data and
// falls back to plain weekdays on an empty warehouse.
func (a *App) loadCalendar(ctx context.Context, store *warehouse.Store) (catalog.Calendar, error) {
	cal, ok, err := store.LoadCalendar(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		a.Logger.Warn().Msg("no sessions recorded; using weekday calendar")
		return catalog.WeekdayCalendar{}, nil
	}
	return cal, nil
}

func groupByRoot(list []series.ContractSeries) map[string][]series.ContractSeries {
	out := make(map[string][]series.ContractSeries)
	for _, cs := range list {
		out[cs.Root] = append(out[cs.Root], cs)
	}
	return out
}

// sortedRoots fixes the processing order so multi-root builds log and fail
// deterministically.
func sortedRoots(byRoot map[string][]series.ContractSeries) []string {
	roots := make([]string, 0, len(byRoot))
	for root := range byRoot {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}
