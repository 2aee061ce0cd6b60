package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/VoxDroid/mstpkit/internal/mstpenv"
	"github.com/VoxDroid/mstpkit/internal/serialport"
)

// openPort is swapped out in tests.
var openPort serialport.Opener = serialport.OpenSerial

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check that the MS/TP serial interface can be opened",
	Long: "Opens the configured interface at the configured baud rate and closes it again. " +
		"With --listen the port is read for a while and MS/TP frame preambles are counted.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		if list, _ := cmd.Flags().GetBool("list"); list {
			ports, err := serialport.ListPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				_, _ = fmt.Fprintln(out, "no serial ports found")
			}
			for _, p := range ports {
				_, _ = fmt.Fprintln(out, p)
			}
			return nil
		}

		env, err := mstpenv.FromLookup(os.LookupEnv)
		if err != nil {
			return err
		}
		iface, _ := cmd.Flags().GetString("iface")
		if iface == "" {
			iface = env.Iface
		}
		baud, _ := cmd.Flags().GetInt("baud")
		if baud == 0 {
			baud = env.Baud
		}
		parity, _ := cmd.Flags().GetString("parity")
		listen, _ := cmd.Flags().GetDuration("listen")

		res, err := serialport.Probe(openPort, iface, serialport.PortOptions{BaudRate: baud, Parity: parity}, listen)
		if err != nil {
			return err
		}
		o := res.Options
		_, _ = fmt.Fprintf(out, "%s: ok (%d %d%s%d)\n", res.Iface, o.BaudRate, o.DataBits, o.Parity, o.StopBits)
		if listen > 0 {
			_, _ = fmt.Fprintf(out, "listened %s: %d bytes, %d frame preambles\n", res.Listened.Round(time.Millisecond), res.BytesRead, res.Preambles)
		}
		return nil
	},
}

func init() {
	probeCmd.Flags().String("iface", "", "Serial device (default $BACNET_IFACE or /dev/ttyUSB0)")
	probeCmd.Flags().Int("baud", 0, "Baud rate (default $BACNET_MSTP_BAUD or 38400)")
	probeCmd.Flags().String("parity", "N", "Parity: N, E or O")
	probeCmd.Flags().Duration("listen", 0, "Listen for traffic this long, e.g. 2s")
	probeCmd.Flags().Bool("list", false, "List available serial ports and exit")
	rootCmd.AddCommand(probeCmd)
}
