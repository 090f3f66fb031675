package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/pliu/attention-tracker/internal/app"
	"github.com/pliu/attention-tracker/internal/config"
	"github.com/pliu/attention-tracker/internal/database"
	"github.com/spf13/cobra"
)

var flagAddr string

var rootCmd = &cobra.Command{
	Use:   "attention-tracker",
	Short: "Keep track of the things that need your attention",
	Long: `attention-tracker serves a small HTTP API for items that need follow-up.

Configuration comes from the environment:
  ATTENTION_TRACKER_DB     SQLite file (default attention_tracker.db)
  DATABASE_URL             postgres connection string, overrides the file
  BASIC_AUTH_USER          basic auth is enforced when both of these are set
  BASIC_AUTH_PASSWORD
  ATTENTION_TRACKER_ADDR   listen address (default :8080)
  LOG_LEVEL                debug, info, warn, error`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize the database and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := load()
		if err != nil {
			return err
		}
		if flagAddr != "" {
			cfg.Addr = flagAddr
		}

		// Initialize Database
		if err := database.InitWith(cfg); err != nil {
			return err
		}

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return a.Serve(ctx, cfg.Addr)
	},
}

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := load()
		if err != nil {
			return err
		}
		if err := database.InitWith(cfg); err != nil {
			return err
		}
		logger.Info("database initialized", "driver", cfg.Driver())
		return nil
	},
}

func load() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := app.NewLogger(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid %s: %w", config.EnvLogLevel, err)
	}
	return cfg, logger, nil
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "http service address (overrides "+config.EnvAddr+")")
	rootCmd.AddCommand(serveCmd, initDBCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
