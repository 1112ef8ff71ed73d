package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var (
	ingestDir   string
	ingestDedup bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load one raw Parquet batch directory into the warehouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Ingest(cmd.Context(), app.IngestOptions{
			Dir:   ingestDir,
			Dedup: ingestDedup,
		})
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "Batch directory containing per-table Parquet subdirectories")
	ingestCmd.Flags().BoolVar(&ingestDedup, "dedup", false, "Collapse pre-existing duplicate fact rows after loading")
}
