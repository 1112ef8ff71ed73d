package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var (
	showSeries string
	showLimit  int
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print recent continuous bars (canonical view by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{Series: showSeries, Limit: showLimit})
	},
}

func init() {
	showCmd.Flags().StringVar(&showSeries, "series", "", "Show one series instead of the canonical view")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Maximum rows to print")
}
