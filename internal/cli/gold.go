package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var (
	goldBucket string
	goldFrom   string
	goldTo     string
)

var goldCmd = &cobra.Command{
	Use:   "gold",
	Short: "Aggregate continuous quotes into bucketed gold bars",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.GoldOptions{Bucket: goldBucket}

		if goldFrom != "" {
			from, err := parseTimeFlag("from", goldFrom)
			if err != nil {
				return err
			}
			opts.From = from
		}
		if goldTo != "" {
			to, err := parseTimeFlag("to", goldTo)
			if err != nil {
				return err
			}
			opts.To = to
		}

		return getApp().Gold(cmd.Context(), opts)
	},
}

func init() {
	goldCmd.Flags().StringVar(&goldBucket, "bucket", "1m", "Aggregation bucket (1m or 1d)")
	goldCmd.Flags().StringVar(&goldFrom, "from", "", "Start timestamp (inclusive)")
	goldCmd.Flags().StringVar(&goldTo, "to", "", "End timestamp (inclusive)")
}
