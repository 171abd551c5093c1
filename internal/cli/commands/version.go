package commands

import (
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/dbalint/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display dbalint version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			version.Write(cmd.OutOrStdout())
		},
	}
}
