package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/pipeline"
	"github.com/VoxDroid/mstpkit/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run <pipeline>",
	Short: "Run a pipeline declared in the project file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		dry, _ := cmd.Flags().GetBool("dry-run")
		confirmFlag, _ := cmd.Flags().GetBool("confirm")
		force, _ := cmd.Flags().GetBool("force")

		p, err := pipeline.FromProject(project, name, stepEnv(project))
		if err != nil {
			return err
		}
		if confirmFlag {
			if !utils.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Run '%s' now?", name)) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}
		}
		return runPipeline(cmd, p, dry, !force)
	},
}

func init() {
	runCmd.Flags().Bool("dry-run", false, "Do not actually execute commands")
	runCmd.Flags().Bool("confirm", false, "Ask for confirmation before running")
	runCmd.Flags().Bool("force", false, "Override safety checks and force execution")
	rootCmd.AddCommand(runCmd)
}
