package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/keyseq/pkg/adapters/evdev"
	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List input devices and whether they look like gamepads",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := evdev.List()
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, devices)
		}
		if len(devices) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No readable input devices. Is your user in the 'input' group?")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tGAMEPAD\tVIRTUAL\tNAME")
		for _, d := range devices {
			fmt.Fprintf(w, "%s\t%t\t%t\t%s\n", d.Path, d.Gamepad, d.Virtual, d.Name)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.Flags().Bool("json", false, "Print JSON")
}
