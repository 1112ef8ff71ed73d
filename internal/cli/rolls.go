package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var rollsSeries string

var rollsCmd = &cobra.Command{
	Use:   "rolls",
	Short: "Print the roll audit log of one series",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Rolls(cmd.Context(), app.RollsOptions{Series: rollsSeries})
	},
}

func init() {
	rollsCmd.Flags().StringVar(&rollsSeries, "series", "", "Contract series key, e.g. ES_FRONT_CALENDAR_2D")
}
