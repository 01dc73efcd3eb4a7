package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/keyseq"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of keyseq",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "keyseq version %s\n", strings.TrimSpace(keyseq.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
