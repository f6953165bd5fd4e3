package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tumbuhctl %s\n", version)
			return nil
		},
	}
}
