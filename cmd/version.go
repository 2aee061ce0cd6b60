package cmd

import (
	"fmt"

	"github.com/VoxDroid/mstpkit/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mstpkit %s\n", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
