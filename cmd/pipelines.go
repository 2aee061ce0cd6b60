package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/executor"
	"github.com/VoxDroid/mstpkit/internal/pipeline"
	"github.com/VoxDroid/mstpkit/internal/registry"
	"github.com/VoxDroid/mstpkit/internal/security"
)

// newExecutor is swapped out in tests.
var newExecutor = func(verbose bool) executor.Runner { return executor.New(false, verbose) }

// runPipeline runs p with the shell executor, records it in the history
// database and prints a per-step summary.
func runPipeline(cmd *cobra.Command, p pipeline.Pipeline, dry, guarded bool) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	runner := pipeline.NewRunner(cmd.OutOrStdout(), cmd.ErrOrStderr())
	runner.DryRun = dry
	runner.Exec = newExecutor(verbose)
	if guarded {
		runner.Guard = security.CheckAllowed
	}
	if !dry {
		repo, err := registry.Open()
		if err != nil {
			cliLog.Warn().Err(err).Msg("run history unavailable")
		} else {
			defer func() { _ = repo.Close() }()
			runner.Recorder = repo
		}
	}

	res, err := runner.Run(cmd.Context(), p)
	if res != nil {
		printSummary(cmd.OutOrStdout(), res)
	}
	return err
}

func printSummary(w io.Writer, res *pipeline.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "\n%s run %s\n", res.Pipeline, res.RunID)
	for i, st := range res.Steps {
		line := fmt.Sprintf("%d\t%s\t%s", i+1, st.Name, st.Status)
		if st.Status == pipeline.StatusFailed {
			line += fmt.Sprintf("\texit %d", st.ExitCode)
		} else if st.Status == pipeline.StatusOK && !res.DryRun {
			line += "\t" + st.Duration.Round(time.Millisecond).String()
		}
		_, _ = fmt.Fprintln(tw, line)
	}
	_ = tw.Flush()
}
