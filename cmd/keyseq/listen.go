package main

import (
	"fmt"

	"github.com/aretw0/keyseq/internal/cli"
	"github.com/aretw0/keyseq/pkg/observability"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen [sequence]",
	Short: "Listen for a sequence on this terminal",
	Long: `Puts the terminal in raw mode and reports progress through the sequence.
Without an argument the sequence comes from the config (default: konami).
With --exec (or exec.command in the config) a command runs after every
match; KEYSEQ_SEQUENCE, KEYSEQ_KEYS, KEYSEQ_MATCH_COUNT and KEYSEQ_MATCHED_AT
describe the match.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyListenFlags(cmd)
		if cmd.Flags().Changed("exec") {
			cfg.Exec.Command, _ = cmd.Flags().GetString("exec")
			cfg.Exec.Args = nil
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		def, err := cli.ResolveDefinition(ctx, reg, cfg, name)
		if err != nil {
			return err
		}

		quiet, _ := cmd.Flags().GetBool("quiet")
		matches, err := cli.RunListen(ctx, cli.ListenOptions{
			Definition: def,
			Config:     cfg,
			Output:     cmd.OutOrStdout(),
			Logger:     logger,
			Hooks:      observability.LoggingHooks(logger),
			Quiet:      quiet,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\r\n%d match(es)\r\n", matches)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	addListenFlags(listenCmd)
	listenCmd.Flags().BoolP("quiet", "q", false, "Only report matches")
	listenCmd.Flags().String("exec", "", "Command to run on every match (match details in KEYSEQ_* env vars)")
}
