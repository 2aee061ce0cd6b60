package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/install"
	"github.com/VoxDroid/mstpkit/internal/registry"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active configuration and the last pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sc, _ := cmd.Flags().GetString("snap-common")
		st, err := install.GetStatus(install.Options{SnapCommon: sc})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "mstpkit status:\n")
		_, _ = fmt.Fprintf(out, "- Active configuration: %s\n", st.StorageDir)
		targets := make([]string, 0, len(st.Targets))
		for t := range st.Targets {
			targets = append(targets, t)
		}
		sort.Strings(targets)
		for _, t := range targets {
			state := "missing (run 'mstpkit postinstall')"
			if st.Targets[t] {
				state = "present"
			}
			_, _ = fmt.Fprintf(out, "  - %s: %s\n", t, state)
		}
		if st.MetadataFound {
			_, _ = fmt.Fprintf(out, "- Last postinstall: %s\n", st.LastRun.RanAt.Format("2006-01-02 15:04:05"))
		} else {
			_, _ = fmt.Fprintf(out, "- Last postinstall: never\n")
		}

		r, err := registry.Open()
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()
		for _, name := range []string{"snap", "bootstrap"} {
			run, err := r.LastRun(name)
			if err != nil {
				return err
			}
			if run == nil {
				_, _ = fmt.Fprintf(out, "- Last %s run: never\n", name)
				continue
			}
			_, _ = fmt.Fprintf(out, "- Last %s run: %s at %s\n", name, run.Status, run.StartedAt)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().String("snap-common", "", "Writable snap directory (default $SNAP_COMMON)")
	rootCmd.AddCommand(statusCmd)
}
