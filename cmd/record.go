package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/config"
	"github.com/VoxDroid/mstpkit/internal/recorder"
)

var recordCmd = &cobra.Command{
	Use:   "record <pipeline>",
	Short: "Record commands from stdin as a new project pipeline",
	Long: "Reads one command per line from stdin until EOF, Ctrl+Z or a line with :end, :save or :quit, " +
		"and appends them as a pipeline to the project file.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		desc, _ := cmd.Flags().GetString("description")
		path, _ := cmd.Flags().GetString("project")
		if path == "" {
			path = os.Getenv(config.EnvConfig)
		}
		if path == "" {
			path = config.DefaultProjectFile
		}

		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Enter commands, one per line. Finish with :end or Ctrl+D.")
		cmds, err := recorder.RecordCommands(cmd.InOrStdin())
		if err != nil {
			return err
		}
		pc, err := recorder.SaveRecorded(path, name, desc, cmds)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "recorded pipeline %s (%d steps) in %s\n", pc.Name, len(pc.Steps), path)
		return nil
	},
}

func init() {
	recordCmd.Flags().StringP("description", "d", "", "Pipeline description")
	rootCmd.AddCommand(recordCmd)
}
