package cmd

import (
	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/pipeline"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the Python virtualenv and install the provider packages",
	Long: "Creates a virtualenv, installs the local provider package in editable mode and then " +
		"the package that compiles the native MS/TP library. The MS/TP variables are exported to every step.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		dry, _ := cmd.Flags().GetBool("dry-run")
		opts := pipeline.BootstrapOptions{
			Venv:    flagOr(cmd, "venv", project.Bootstrap.Venv),
			Python:  flagOr(cmd, "python", project.Bootstrap.Python),
			Package: flagOr(cmd, "package", project.Bootstrap.Package),
			Native:  flagOr(cmd, "native", project.Bootstrap.Native),
		}
		return runPipeline(cmd, pipeline.Bootstrap(opts, stepEnv(project)), dry, false)
	},
}

func flagOr(cmd *cobra.Command, name, def string) string {
	if v, _ := cmd.Flags().GetString(name); v != "" {
		return v
	}
	return def
}

func init() {
	bootstrapCmd.Flags().String("venv", "", "Virtualenv directory (default venv)")
	bootstrapCmd.Flags().String("python", "", "Python interpreter (default python3)")
	bootstrapCmd.Flags().String("package", "", "Local package installed with -e (default provider-source)")
	bootstrapCmd.Flags().String("native", "", "Package building the native library (default misty)")
	bootstrapCmd.Flags().Bool("dry-run", false, "Print the steps without running them")
	rootCmd.AddCommand(bootstrapCmd)
}
