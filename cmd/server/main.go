// Package main is the entry point for the newsroom API server.
//
// MAIN PACKAGE IN GO:
// main should stay minimal. Its job is to:
// 1. Read configuration (file + environment)
// 2. Create dependencies (logger, server)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/newsroom/internal/config"
	"github.com/sakif/newsroom/internal/logger"
	"github.com/sakif/newsroom/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "newsroom",
		Short:         "News aggregation API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default: $NEWSROOM_CONFIG)")
	return cmd
}

func run(configPath string) error {
	// === 1. READ CONFIGURATION ===
	// Defaults → YAML file → NEWSROOM_* environment variables → validation.
	// Example: NEWSROOM_JWT_SECRET=$(openssl rand -hex 32)
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	// === 2. SET UP LOGGING ===
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	if cfg.News.APIKey == "" {
		log.Warn("NEWSROOM_NEWS_API_KEY not set: news endpoints will fail")
	}

	// === 3. CREATE AND START THE SERVER ===
	// New() opens the store; failing to reach it is fatal.
	srv, err := server.New(cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		return err
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		return err
	}
	return nil
}
