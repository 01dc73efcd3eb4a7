package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aretw0/keyseq/internal/cli"
	"github.com/aretw0/keyseq/internal/presentation/graph"
	"github.com/aretw0/keyseq/internal/presentation/tui"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/input"
	"github.com/spf13/cobra"
)

var sequencesCmd = &cobra.Command{
	Use:     "sequences",
	Aliases: []string{"seq"},
	Short:   "Manage stored sequences",
	Long:    `List, inspect, add and remove sequences in the configured store.`,
}

var sequencesLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List built-in and stored sequences",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := reg.List(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd, entries)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tORIGIN\tKEYS\tDESCRIPTION")
		for _, e := range entries {
			origin := "stored"
			if e.Builtin {
				origin = "built-in"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Name, origin, len(e.Keys), e.Description)
		}
		return w.Flush()
	},
}

var sequencesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		entries, err := reg.List(cmd.Context())
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.Name != args[0] {
				continue
			}
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd, e)
			}
			if mermaid, _ := cmd.Flags().GetBool("mermaid"); mermaid {
				fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(e.Definition, graph.Options{
					Timeout:         cfg.Timeout,
					ResetOnMismatch: cfg.ResetOnMismatch,
				}, nil))
				return nil
			}
			out, err := tui.NewRenderer()(tui.SequenceMarkdown(e))
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		}
		return fmt.Errorf("%q: %w", args[0], domain.ErrSequenceNotFound)
	},
}

var sequencesAddCmd = &cobra.Command{
	Use:   "add <name> <key>...",
	Short: "Store a sequence given as key names",
	Long: `Stores a sequence without recording it. Keys are codes or aliases:
keyseq sequences add hello KeyH KeyE KeyL KeyL KeyO
keyseq sequences add dash up up enter`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		keys := make(domain.Sequence, 0, len(args)-1)
		for _, name := range args[1:] {
			ev, ok := input.KeyEventForName(name)
			if !ok {
				return fmt.Errorf("unknown key %q", name)
			}
			// Store the physical code, as recordings do.
			tok := input.NormalizeKey(ev)
			sym := tok.Alt
			if sym == "" {
				sym = tok.Symbol
			}
			keys = append(keys, sym)
		}
		description, _ := cmd.Flags().GetString("description")
		def := domain.Definition{Name: args[0], Description: description, Keys: keys}
		if err := reg.Save(cmd.Context(), def); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s: %s\n", def.Name, def.Keys)
		return nil
	},
}

var sequencesRmCmd = &cobra.Command{
	Use:     "rm <name>...",
	Aliases: []string{"delete"},
	Short:   "Remove one or more stored sequences",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		hasError := false
		for _, name := range args {
			if err := reg.Delete(cmd.Context(), name); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing '%s': %v\n", name, err)
				hasError = true
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed sequence '%s'\n", name)
			}
		}
		if hasError {
			os.Exit(1)
		}
		return nil
	},
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.AddCommand(sequencesCmd)
	sequencesCmd.AddCommand(sequencesLsCmd, sequencesShowCmd, sequencesAddCmd, sequencesRmCmd)
	sequencesLsCmd.Flags().Bool("json", false, "Print JSON")
	sequencesShowCmd.Flags().Bool("json", false, "Print JSON")
	sequencesShowCmd.Flags().Bool("mermaid", false, "Print the matcher as a Mermaid flowchart")
	sequencesAddCmd.Flags().StringP("description", "d", "", "Short description stored with the sequence")
}
