package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"futures-six/internal/warehouse"
)

// Show prints recent bars, newest first: either one series or, by default, the
// canonical continuous view across roots.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStoreReadOnly(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if opts.Series != "" {
		return a.showSeries(ctx, store, opts)
	}

	bars, err := store.ListCanonicalBars(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		fmt.Fprintln(os.Stdout, "no canonical bars found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tRoot\tSeries\tUnderlying\tOpen\tHigh\tLow\tClose\tVolume")
	for _, bar := range bars {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\t%d\n",
			bar.TradingDate.Format("2006-01-02"),
			bar.Root,
			bar.Series,
			bar.UnderlyingID,
			formatDecimal(bar.Open, 2),
			formatDecimal(bar.High, 2),
			formatDecimal(bar.Low, 2),
			formatDecimal(bar.Close, 2),
			bar.Volume,
		)
	}
	return writer.Flush()
}

func (a *App) showSeries(ctx context.Context, store *warehouse.Store, opts ShowOptions) error {
	to := time.Now().UTC()
	from := to.AddDate(-50, 0, 0)
	bars, err := store.ListSeriesBars(ctx, opts.Series, from, to)
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		fmt.Fprintln(os.Stdout, "no bars found")
		return nil
	}
	if opts.Limit > 0 && len(bars) > opts.Limit {
		bars = bars[len(bars)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tSeries\tUnderlying\tOpen\tHigh\tLow\tClose\tVolume")
	for i := len(bars) - 1; i >= 0; i-- {
		bar := bars[i]
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d\t%s\t%s\t%s\t%s\t%d\n",
			bar.TradingDate.Format("2006-01-02"),
			bar.Series.String(),
			bar.UnderlyingID,
			formatDecimal(bar.Open, 2),
			formatDecimal(bar.High, 2),
			formatDecimal(bar.Low, 2),
			formatDecimal(bar.Close, 2),
			bar.Volume,
		)
	}
	return writer.Flush()
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
