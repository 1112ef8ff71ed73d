package cli

import (
	"github.com/spf13/cobra"

	"futures-six/internal/app"
)

var (
	canonicalRoot        string
	canonicalSeries      string
	canonicalDescription string
	canonicalOptional    bool
)

var canonicalCmd = &cobra.Command{
	Use:   "canonical",
	Short: "Manage per-root canonical series designations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CanonicalList(cmd.Context())
	},
}

var canonicalSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Designate one series as a root's canonical continuous contract",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CanonicalSet(cmd.Context(), app.CanonicalSetOptions{
			Root:        canonicalRoot,
			Series:      canonicalSeries,
			Description: canonicalDescription,
			Optional:    canonicalOptional,
		})
	},
}

var canonicalSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Apply the configured canonical mapping to the warehouse",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CanonicalSync(cmd.Context())
	},
}

var canonicalAuditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Report per-series coverage and recommended canonicals",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().CanonicalAudit(cmd.Context())
	},
}

func init() {
	canonicalSetCmd.Flags().StringVar(&canonicalRoot, "root", "", "Root symbol")
	canonicalSetCmd.Flags().StringVar(&canonicalSeries, "series", "", "Contract series key")
	canonicalSetCmd.Flags().StringVar(&canonicalDescription, "description", "", "Free-form designation note")
	canonicalSetCmd.Flags().BoolVar(&canonicalOptional, "optional", false, "Mark the root as best-effort in coverage checks")

	canonicalCmd.AddCommand(canonicalSetCmd)
	canonicalCmd.AddCommand(canonicalSyncCmd)
	canonicalCmd.AddCommand(canonicalAuditCmd)
}
