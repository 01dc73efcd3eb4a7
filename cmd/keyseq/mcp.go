package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/cli"
	"github.com/aretw0/keyseq/pkg/adapters/mcp"
	"github.com/aretw0/keyseq/pkg/observability"
	"github.com/aretw0/keyseq/pkg/session"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the sequence catalog and listener sessions as MCP tools, so agents can
create sessions and press keys.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		sessions := session.NewManager(
			session.WithLogger(logger),
			session.WithLifecycleHooks(observability.LoggingHooks(logger)),
			session.WithListenerOptions(
				keyseq.WithTimeout(cfg.Timeout),
				keyseq.WithResetOnMismatch(cfg.ResetOnMismatch),
			),
		)
		defer sessions.Close()

		srv := mcp.NewServer(reg, sessions)

		switch transport {
		case "stdio":
			// Ensure logs don't corrupt JSON-RPC on Stdout
			log.SetOutput(os.Stderr)
			logger.Info("Starting keyseq MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			addr := fmt.Sprintf(":%d", port)
			if err := srv.ServeSSE(ctx, addr, fmt.Sprintf("http://localhost:%d", port)); err != nil {
				return err
			}
			logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
