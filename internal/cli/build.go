package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var (
	buildSeries string
	buildRoot   string
	buildRank   int
	buildRule   string
	buildFrom   string
	buildTo     string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build continuous contract bars and roll events",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.BuildOptions{
			Series: buildSeries,
			Root:   buildRoot,
			Rank:   buildRank,
			Rule:   buildRule,
		}

		if buildFrom != "" {
			from, err := parseTimeFlag("from", buildFrom)
			if err != nil {
				return err
			}
			opts.From = from
		}
		if buildTo != "" {
			to, err := parseTimeFlag("to", buildTo)
			if err != nil {
				return err
			}
			opts.To = to
		}

		return getApp().Build(cmd.Context(), opts)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildSeries, "series", "", "Build one exact series key (overrides universe config)")
	buildCmd.Flags().StringVar(&buildRoot, "root", "", "Restrict the configured universe to one root")
	buildCmd.Flags().IntVar(&buildRank, "rank", -1, "Restrict the configured universe to one rank")
	buildCmd.Flags().StringVar(&buildRule, "rule", "", "Restrict the configured universe to one roll rule (calendar-2d, volume)")
	buildCmd.Flags().StringVar(&buildFrom, "from", "", "Start trading date (inclusive)")
	buildCmd.Flags().StringVar(&buildTo, "to", "", "End trading date (inclusive)")
}
