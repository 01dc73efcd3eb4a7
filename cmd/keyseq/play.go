package main

import (
	"github.com/aretw0/keyseq/internal/cli"
	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/internal/presentation/tui"
	"github.com/aretw0/keyseq/pkg/domain"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:   "play [sequence]",
	Short: "Open the interactive playground",
	Long: `Shows progress through the sequence as you type, logs listener events and
records replacements with ctrl+r. With --save, recordings are stored under
that name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		applyListenFlags(cmd)
		ctx := cmd.Context()

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

		// The playground owns the screen; logs would tear it.
		lopts, release := cli.ListenerOptions(cfg, logging.NewNop())
		defer release()
		opts := []tui.PlaygroundOption{tui.WithListenerOptions(lopts...)}

		if saveAs, _ := cmd.Flags().GetString("save"); saveAs != "" {
			opts = append(opts, tui.WithSave(func(seq domain.Sequence) error {
				return reg.Save(ctx, domain.Definition{Name: saveAs, Description: "Recorded in the playground", Keys: seq})
			}))
		}

		p, err := tui.NewPlayground(def, opts...)
		if err != nil {
			return err
		}
		return p.Run(tea.WithAltScreen())
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	addListenFlags(playCmd)
	playCmd.Flags().String("save", "", "Store recorded sequences under this name")
}
