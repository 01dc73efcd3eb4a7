package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/keyseq"
	"github.com/aretw0/keyseq/internal/cli"
	httpAdapter "github.com/aretw0/keyseq/pkg/adapters/http"
	"github.com/aretw0/keyseq/pkg/observability"
	"github.com/aretw0/keyseq/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the sequence catalog and in-memory listener sessions as a JSON API,
with server-sent events per session and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		reg, closeStore, err := cli.OpenRegistry(cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		hooks := observability.LoggingHooks(logger)
		var handlerOpts []httpAdapter.Option
		if cfg.Server.Metrics {
			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics, err := observability.NewMetrics(promReg)
			if err != nil {
				return err
			}
			hooks = observability.Chain(hooks, metrics.Hooks())
			handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(promReg))
		}
		handlerOpts = append(handlerOpts, httpAdapter.WithLogger(logger))

		sessions := session.NewManager(
			session.WithLogger(logger),
			session.WithLifecycleHooks(hooks),
			session.WithListenerOptions(
				keyseq.WithTimeout(cfg.Timeout),
				keyseq.WithResetOnMismatch(cfg.ResetOnMismatch),
			),
		)
		defer sessions.Close()

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           httpAdapter.NewHandler(reg, sessions, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting keyseq server", "addr", srv.Addr, "store", cfg.Store.Driver, "metrics", cfg.Server.Metrics)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			logger.Info("Shutting down", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			// Event streams only end with their sessions.
			sessions.Close()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			logger.Info("Server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
}
