package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/config"
	"github.com/VoxDroid/mstpkit/internal/install"
	"github.com/VoxDroid/mstpkit/internal/objects"
)

var accessCmd = &cobra.Command{
	Use:   "access [object-type] [property]",
	Short: "Show whether BACnet object properties are read-only or writable",
	Long: "Looks up the access (R or R/W) of a property in the standard table, overlaid with " +
		"bacnet_defines.json from the active configuration. With only an object type all of its " +
		"properties are listed; without arguments the known object types are listed.",
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defines, _ := cmd.Flags().GetString("defines")
		if defines == "" {
			defines = filepath.Join(config.ActiveConfigDir(""), install.DefinesFile)
		}
		tbl, err := objects.LoadTable(defines)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch len(args) {
		case 0:
			for _, t := range tbl.Types() {
				_, _ = fmt.Fprintln(out, t)
			}
			return nil
		case 1:
			props, ok := tbl.Properties(args[0])
			if !ok {
				return fmt.Errorf("unknown object type: %s", args[0])
			}
			names := make([]string, 0, len(props))
			for p := range props {
				names = append(names, p)
			}
			sort.Strings(names)
			for _, p := range names {
				_, _ = fmt.Fprintf(out, "%-20s %s\n", p, props[p])
			}
			return nil
		}

		a, ok := tbl.Lookup(args[0], args[1])
		if !ok {
			return fmt.Errorf("no access entry for %s.%s", args[0], args[1])
		}
		_, _ = fmt.Fprintln(out, a)
		return nil
	},
}

func init() {
	accessCmd.Flags().String("defines", "", "bacnet_defines.json overlay (default from the active configuration)")
	rootCmd.AddCommand(accessCmd)
}
