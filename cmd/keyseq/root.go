package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/keyseq/internal/cli"
	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfg    = config.Default()
	logger = logging.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "keyseq",
	Short: "keyseq listens for secret key sequences",
	Long: `keyseq detects key sequences such as the Konami code from the keyboard
and gamepads, records new ones and serves them over HTTP and MCP.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "keyseq.yaml", "Config file (YAML, TOML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		loaded.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("log-format") {
		loaded.Log.Format, _ = cmd.Flags().GetString("log-format")
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, err := cli.NewLogger(os.Stderr, loaded.Log)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	slog.SetDefault(logger)
	logger.Debug("Config loaded", "path", path, "store", cfg.Store.Driver)
	return nil
}

// applyListenFlags lets the listen-style commands override the config.
func applyListenFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("once") {
		cfg.Once, _ = flags.GetBool("once")
	}
	if flags.Changed("gamepad") {
		cfg.Gamepad.Enabled, _ = flags.GetBool("gamepad")
	}
	if flags.Changed("keys") {
		cfg.Keys, _ = flags.GetStringSlice("keys")
	}
}

func addListenFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("timeout", 0, "Window between correct keys, 0 disables it (default from config)")
	cmd.Flags().Bool("once", false, "Stop after the first match")
	cmd.Flags().Bool("gamepad", false, "Also poll gamepads")
	cmd.Flags().StringSlice("keys", nil, "Explicit key codes instead of a named sequence")
}
