package main

import (
	"github.com/aretw0/keyseq/internal/cli"
	"github.com/spf13/cobra"
)

var recordCmd = &cobra.Command{
	Use:   "record <name>",
	Short: "Record a new sequence from the keyboard",
	Long:  `Captures key presses until Ctrl+D and saves them to the sequence store.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		description, _ := cmd.Flags().GetString("description")
		_, err = cli.RunRecord(ctx, cli.RecordOptions{
			Name:        args[0],
			Description: description,
			Registry:    reg,
			Output:      cmd.OutOrStdout(),
			Logger:      logger,
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringP("description", "d", "", "Short description stored with the sequence")
}
