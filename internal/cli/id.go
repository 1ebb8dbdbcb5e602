package cli

import (
	"github.com/spf13/cobra"

	"github.com/gts-labs/gts/internal/ops"
)

// newIDCommand groups the identifier-level operations that never
// touch the store.
func newIDCommand(opsRef func() *ops.Ops) *cobra.Command {
	idCmd := &cobra.Command{
		Use:   "id",
		Short: "Work with GTS identifiers",
	}

	var gtsID string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a GTS identifier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().ValidateID(gtsID))
		},
	}
	validateCmd.Flags().StringVar(&gtsID, "gts-id", "", "identifier to validate")
	_ = validateCmd.MarkFlagRequired("gts-id")

	var parseID string
	parseCmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse a GTS identifier into its segments",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().ParseID(parseID))
		},
	}
	parseCmd.Flags().StringVar(&parseID, "gts-id", "", "identifier to parse")
	_ = parseCmd.MarkFlagRequired("gts-id")

	var pattern, candidate string
	matchCmd := &cobra.Command{
		Use:   "match",
		Short: "Match an identifier against a wildcard pattern",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), opsRef().MatchIDPattern(candidate, pattern))
		},
	}
	matchCmd.Flags().StringVar(&pattern, "pattern", "", "wildcard pattern")
	matchCmd.Flags().StringVar(&candidate, "candidate", "", "identifier to test")
	_ = matchCmd.MarkFlagRequired("pattern")
	_ = matchCmd.MarkFlagRequired("candidate")

	var uuidID string
	uuidCmd := &cobra.Command{
		Use:   "uuid",
		Short: "Derive the deterministic UUID of an identifier",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := opsRef().UUID(uuidID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	uuidCmd.Flags().StringVar(&uuidID, "gts-id", "", "identifier to hash")
	_ = uuidCmd.MarkFlagRequired("gts-id")

	idCmd.AddCommand(validateCmd, parseCmd, matchCmd, uuidCmd)
	return idCmd
}
