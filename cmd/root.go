package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/config"
	"github.com/VoxDroid/mstpkit/internal/logging"
	"github.com/VoxDroid/mstpkit/internal/pipeline"
)

var (
	project   *config.Project
	cliLog    zerolog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "mstpkit",
	Short: "mstpkit runs the build, bootstrap and install glue of the BACnet MS/TP provider snap",
	Long: "mstpkit exports the MS/TP environment, runs the fail-fast snap and venv pipelines, " +
		"seeds the snap's configuration on install and probes the serial interface.",
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this rotating file")
	rootCmd.PersistentFlags().String("project", "", "Project file (default ./mstpkit.yaml or $"+config.EnvConfig+")")
}

func setup(cmd *cobra.Command, _ []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logFile, _ := cmd.Flags().GetString("log-file")
	projectPath, _ := cmd.Flags().GetString("project")

	cfg, err := config.LoadProject(projectPath)
	if err != nil {
		return err
	}
	project = cfg
	if logFile == "" {
		logFile = cfg.Log.File
	}

	cliLog, logCloser = logging.New(logging.Options{
		Verbose:    verbose,
		Level:      cfg.Log.Level,
		File:       logFile,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cmd.ErrOrStderr(),
	})
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.WithLogger(ctx, &cliLog))
	return nil
}

// exitCode passes a failing tool's status through, like a shell with set -e.
func exitCode(err error) int {
	var se *pipeline.StepError
	if errors.As(err, &se) && se.ExitCode > 0 {
		return se.ExitCode
	}
	return 1
}

// Execute executes the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if logCloser == nil {
			cliLog, _ = logging.New(logging.Options{})
		}
		cliLog.Error().Err(err).Msg("command failed")
		os.Exit(exitCode(err))
	}
}
