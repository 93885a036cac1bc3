package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/nfrund/batepapo/internal/app"
	"github.com/nfrund/batepapo/internal/clock"
	"github.com/nfrund/batepapo/internal/config"
	"github.com/nfrund/batepapo/internal/logging"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the chat server. Configuration is read from the environment and
from a .env file in the working directory when present.

Examples:
  batepapo serve
  STORE_BACKEND=badger BADGER_PATH=./data batepapo serve
  batepapo serve --addr :8080`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.AppAddr = serveAddr
	}

	logger := logging.New(cfg.GetLogFormat(), cfg.GetLogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.New(cfg, logger, clock.Real{}).Run(ctx); err != nil {
		logger.Error("Server stopped with error", "event", "server_failure", "error", err)
		return err
	}
	logger.Info("Server stopped", "event", "server_stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "Listen address, overrides APP_ADDR")
}
