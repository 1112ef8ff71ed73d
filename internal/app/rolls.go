package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"futures-six/internal/series"
)

// Rolls prints the roll audit log of one series, oldest first.
func (a *App) Rolls(ctx context.Context, opts RollsOptions) error {
	if opts.Series == "" {
		return errors.New("--series is required")
	}
	if _, err := series.ParseSeries(opts.Series); err != nil {
		return err
	}

	store, closeStore, err := a.openStoreReadOnly(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	events, err := store.ListRollEvents(ctx, opts.Series)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "no roll events recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Series\tRoll Date\tFrom Instrument\tTo Instrument")
	for _, ev := range events {
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d\n",
			ev.Series.String(), ev.RollDate.Format("2006-01-02"),
			ev.OldInstrumentID, ev.NewInstrumentID,
		)
	}
	return writer.Flush()
}
