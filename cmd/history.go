package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/registry"
	"github.com/VoxDroid/mstpkit/internal/utils"
)

var historyCmd = &cobra.Command{
	Use:   "history [pipeline]",
	Short: "Show recorded pipeline runs",
	Long:  "Lists recorded runs newest first, optionally for one pipeline. --run shows the steps of one run.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		runID, _ := cmd.Flags().GetString("run")
		prune, _ := cmd.Flags().GetDuration("prune")
		yes, _ := cmd.Flags().GetBool("yes")

		r, err := registry.Open()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		out := cmd.OutOrStdout()

		if prune > 0 {
			cutoff := time.Now().Add(-prune)
			if !yes && !utils.Confirm(cmd.InOrStdin(), out, fmt.Sprintf("Delete runs started before %s?", cutoff.Format(time.RFC3339))) {
				_, _ = fmt.Fprintln(out, "aborted")
				return nil
			}
			n, err := r.DeleteRunsBefore(cutoff)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "deleted %d runs\n", n)
			return nil
		}

		if runID != "" {
			run, err := r.GetRun(runID)
			if err != nil {
				return err
			}
			if run == nil {
				return fmt.Errorf("run not found: %s", runID)
			}
			printRun(cmd, run)
			return nil
		}

		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		runs, err := r.ListRuns(name, limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			_, _ = fmt.Fprintln(out, "no runs recorded")
			return nil
		}
		for _, run := range runs {
			failed := ""
			if run.FailedStep.Valid {
				failed = fmt.Sprintf("step %d", run.FailedStep.Int64)
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", run.ID, run.StartedAt, run.Pipeline, run.Status, failed)
		}
		return nil
	},
}

func printRun(cmd *cobra.Command, run *registry.Run) {
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "%s %s (%s, %s - %s)\n", run.Pipeline, run.Status, run.ID, run.StartedAt, run.FinishedAt)
	for _, s := range run.Steps {
		_, _ = fmt.Fprintf(out, "%d\t%s\t%s\texit %d\t%dms\t%s\n", s.Position, s.Status, s.Command, s.ExitCode, s.DurationMS, s.Error.String)
	}
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")
	historyCmd.Flags().String("run", "", "Show the steps of one run")
	historyCmd.Flags().Duration("prune", 0, "Delete runs older than this, e.g. 720h")
	historyCmd.Flags().BoolP("yes", "y", false, "Do not ask before pruning")
	rootCmd.AddCommand(historyCmd)
}
