package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/install"
)

var postinstallCmd = &cobra.Command{
	Use:   "postinstall",
	Short: "Seed the snap's active configuration with the bundled defaults",
	Long: "Copies the bundled bc.ini and bacnet_defines.json into " +
		"$SNAP_COMMON/solutions/activeConfiguration/BACnet when they are missing. " +
		"Existing files are never overwritten, so the hook is safe to run on every refresh.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc, _ := cmd.Flags().GetString("snap-common")
		dry, _ := cmd.Flags().GetBool("dry-run")
		opts := install.Options{SnapCommon: sc, DryRun: dry, Log: &cliLog}

		out := cmd.OutOrStdout()
		if dry {
			actions, err := install.PlanInstall(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(out, "Planned actions:")
			for _, a := range actions {
				_, _ = fmt.Fprintf(out, "- %s\n", a)
			}
			return nil
		}

		outcomes, err := install.ExecuteInstall(opts)
		for _, o := range outcomes {
			if o.Copied {
				cliLog.Info().Str("target", o.Target).Str("source", o.Source).Msg("copied default")
			} else {
				cliLog.Info().Str("target", o.Target).Msg("already present, keeping")
			}
		}
		return err
	},
}

func init() {
	postinstallCmd.Flags().String("snap-common", "", "Writable snap directory (default $SNAP_COMMON)")
	postinstallCmd.Flags().Bool("dry-run", false, "Show what would be copied")
	rootCmd.AddCommand(postinstallCmd)
}
