package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var (
	exportSeries    string
	exportFrom      string
	exportTo        string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export continuous series bars as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.ExportOptions{
			Series:    exportSeries,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		if exportFrom != "" {
			from, err := parseTimeFlag("from", exportFrom)
			if err != nil {
				return err
			}
			opts.From = &from
		}
		if exportTo != "" {
			to, err := parseTimeFlag("to", exportTo)
			if err != nil {
				return err
			}
			opts.To = &to
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportSeries, "series", "", "Contract series key to export")
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "Start trading date (inclusive)")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "End trading date (exclusive)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
