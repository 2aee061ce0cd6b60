package cmd

import (
	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/pipeline"
)

var snapCmd = &cobra.Command{
	Use:   "snap",
	Short: "Clean the snapcraft workspace and build the snap for one architecture",
	Long:  "Runs 'snapcraft clean' and then 'snapcraft --build-for=<arch>', stopping at the first failure.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		arch, _ := cmd.Flags().GetString("arch")
		dir, _ := cmd.Flags().GetString("dir")
		dry, _ := cmd.Flags().GetBool("dry-run")
		if arch == "" {
			arch = project.Snap.Arch
		}
		if dir == "" {
			dir = project.Snap.Dir
		}
		p := pipeline.Snap(arch, dir)
		p.Env = stepEnv(project)
		return runPipeline(cmd, p, dry, false)
	},
}

func init() {
	snapCmd.Flags().String("arch", "", "Target architecture (default from project, arm64)")
	snapCmd.Flags().String("dir", "", "Snapcraft project directory")
	snapCmd.Flags().Bool("dry-run", false, "Print the steps without running them")
	rootCmd.AddCommand(snapCmd)
}
