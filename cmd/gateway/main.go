// Package main provides the CLI entry point for the AI agent
// orchestration gateway: a single HTTP surface that drives a bounded
// tool-calling loop against a configurable set of model vendors.
//
// # Basic Usage
//
// Start the server:
//
//	gateway serve --config gateway.yaml
//
// Check a configuration file without starting a server:
//
//	gateway validate-config --config gateway.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/agentgateway/internal/authn"
	"github.com/haasonsaas/agentgateway/internal/config"
	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/httpapi"
	"github.com/haasonsaas/agentgateway/internal/logging"
	"github.com/haasonsaas/agentgateway/internal/ratelimit"
	"github.com/haasonsaas/agentgateway/internal/telemetry"
)

// Build information, populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "gateway",
		Short:        "AI agent orchestration gateway",
		Long:         "A single HTTP surface that drives a bounded, tool-calling agent loop across configurable model vendors and tool services.",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.AddCommand(buildServeCmd(), buildValidateConfigCmd(), buildVersionCmd())
	return rootCmd
}

func buildServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway HTTP server",
		Long: `Start the gateway HTTP server.

The server will:
1. Load and validate configuration from the given file
2. Build the configured model providers and tool registry
3. Start the HTTP surface (/chat, /chat/stream, /enhance-prompt, /services, /health)
4. Optionally watch the config file for hot-reloadable changes

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "gateway.yaml", "Path to YAML configuration file")
	return cmd
}

func buildValidateConfigCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Load and validate a configuration file without starting a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "gateway.yaml", "Path to YAML configuration file")
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "gateway %s (commit: %s, built: %s)\n", version, commit, date)
			return nil
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	initial, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(logging.Config{
		Level:  initial.Server.LogLevel,
		Format: initial.Server.LogFormat,
	})

	watcher, err := config.NewWatcher(configPath, logger.Slog())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := watcher.Current()

	watchCtx, cancelWatch := context.WithCancel(ctx)
	defer cancelWatch()
	if err := watcher.Start(watchCtx); err != nil {
		logger.Warn(ctx, "config hot-reload disabled", "error", err)
	}
	defer watcher.Stop()

	providers, err := config.BuildProviders(cfg.Providers)
	if err != nil {
		return fmt.Errorf("building providers: %w", err)
	}
	reg, err := config.BuildRegistry(cfg.Tools)
	if err != nil {
		return fmt.Errorf("building tool registry: %w", err)
	}

	var authService *authn.TokenService
	if cfg.Auth.JWTSecretEnv != "" {
		authService = authn.NewTokenService(os.Getenv(cfg.Auth.JWTSecretEnv), cfg.Auth.TokenExpiry)
	}

	limiter := ratelimit.NewLimiter(cfg.RateLimit.Config)
	metrics := telemetry.NewMetrics()

	srv := httpapi.NewServer(httpapi.Config{
		Providers:      providers,
		Registry:       reg,
		LoopConfig:     engine.DefaultLoopConfig(),
		Auth:           authService,
		RateLimiter:    limiter,
		Logger:         logger,
		Metrics:        metrics,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErrs := make(chan error, 1)
	go func() {
		logger.Info(ctx, "gateway server starting", "addr", addr)
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrs <- err
			return
		}
		serveErrs <- nil
	}()

	select {
	case <-signalCtx.Done():
		logger.Info(ctx, "shutdown signal received")
	case err := <-serveErrs:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn(ctx, "graceful shutdown error", "error", err)
	}

	logger.Info(ctx, "gateway server stopped")
	return nil
}
