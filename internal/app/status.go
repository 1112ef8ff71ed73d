package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
)

// Status prints row counts and date spans per warehouse table.
func (a *App) Status(ctx context.Context) error {
	store, closeStore, err := a.openStoreReadOnly(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	summaries, err := store.Summary(ctx)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Table\tRows\tFrom\tTo")
	for _, summary := range summaries {
		fmt.Fprintf(writer, "%s\t%d\t%s\t%s\n",
			summary.Table, summary.RowCount, summary.MinDate, summary.MaxDate)
	}
	return writer.Flush()
}
