package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/config"
	"github.com/VoxDroid/mstpkit/internal/mstpenv"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the MS/TP environment as shell export lines",
	Long: "Print export lines for BACNET_IFACE, BACNET_MSTP_BAUD, BACNET_MSTP_MAC, " +
		"BACNET_MAX_INFO_FRAMES and BACNET_MAX_MASTER. Without flags the literal defaults " +
		"are printed regardless of the current environment; use with eval \"$(mstpkit env)\".",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		iniPath, _ := cmd.Flags().GetString("ini")
		fromEnv, _ := cmd.Flags().GetBool("from-env")
		jsonPath, _ := cmd.Flags().GetString("json")
		save, _ := cmd.Flags().GetString("save")
		check, _ := cmd.Flags().GetBool("check")

		e, err := resolveEnv(iniPath, jsonPath, fromEnv)
		if err != nil {
			return err
		}
		if check {
			if err := e.Validate(); err != nil {
				return err
			}
		}
		if save != "" {
			if err := e.SaveJSON(save); err != nil {
				return err
			}
			cliLog.Info().Str("path", save).Msg("saved env.json")
		}
		return e.Export(cmd.OutOrStdout())
	},
}

// resolveEnv layers the literal defaults, then bc.ini, then env.json, then
// the process environment, each only when requested.
func resolveEnv(iniPath, jsonPath string, fromEnv bool) (mstpenv.Env, error) {
	e := mstpenv.Defaults()
	if iniPath != "" {
		cfg, err := mstpenv.LoadINI(iniPath)
		if err != nil {
			return e, err
		}
		e = cfg.Env
	}
	if jsonPath != "" {
		m, err := mstpenv.ReadJSON(jsonPath)
		if err != nil {
			return e, err
		}
		if e, err = e.Overlay(mstpenv.MapLookup(m)); err != nil {
			return e, err
		}
	}
	if fromEnv {
		var err error
		if e, err = e.Overlay(os.LookupEnv); err != nil {
			return e, err
		}
	}
	return e, nil
}

// stepEnv is the environment of every pipeline step: the process
// environment, the MS/TP defaults and the project's extra variables.
func stepEnv(p *config.Project) []string {
	env := mstpenv.Defaults().Environ(os.Environ())
	if p == nil {
		return env
	}
	for k, v := range p.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

func init() {
	envCmd.Flags().String("ini", "", "Read values from a bc.ini file")
	envCmd.Flags().Bool("from-env", false, "Keep BACNET_* values already set in the environment")
	envCmd.Flags().String("json", "", "Overlay values from an env.json file")
	envCmd.Flags().String("save", "", "Write the resolved values to an env.json file")
	envCmd.Flags().Bool("check", false, "Validate the values before printing")
	rootCmd.AddCommand(envCmd)
}
