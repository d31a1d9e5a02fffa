/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the budget engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults, budget.yaml, BUDGET_* env, flags)
  2. Configure slog
  3. Initialize SQLite store
  4. Create API handler and start the recurring payment scheduler
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  --config   Config file (default: ./budget.yaml if present)
  --port     HTTP server port (default: 8080)
  --db       SQLite database path (default: budget.db)
             Use ":memory:" for in-memory database
  --seed     Load a demo scenario on startup (starter, household, long-history)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server --db=./data/budget.db

  # Run in memory with demo data
  ./server --db=:memory: --seed=household

  # Run on different port
  BUDGET_SERVER_PORT=3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/budget-engine/api"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/store/sqlite"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgFile string
		seed    string
	)

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Budget engine HTTP API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(cfgFile)
			if err != nil {
				return err
			}
			_ = v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
			_ = v.BindPFlag("server.db_path", cmd.Flags().Lookup("db"))
			_ = v.BindPFlag("logging.level", cmd.Flags().Lookup("log-level"))

			cfg, err := config.FromViper(v)
			if err != nil {
				return err
			}
			return run(cfg, seed)
		},
	}

	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./budget.yaml)")
	cmd.Flags().StringVar(&seed, "seed", "", "load a demo scenario on startup")
	cmd.Flags().Int("port", 8080, "HTTP server port")
	cmd.Flags().String("db", "budget.db", "SQLite database path")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

func run(cfg config.Config, seed string) error {
	logger, err := config.SetupLogger(cfg.Logging)
	if err != nil {
		return err
	}

	// Initialize store
	store, err := sqlite.New(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	// Initialize handler
	handler := api.NewHandler(store, logger)

	if seed != "" {
		if err := api.Seed(context.Background(), store, seed, time.Now()); err != nil {
			return fmt.Errorf("failed to seed scenario %q: %w", seed, err)
		}
		logger.Info("scenario loaded", "scenario", seed)
	}

	handler.Scheduler.CheckInterval = cfg.Server.SchedulerInterval
	handler.Scheduler.Enabled = cfg.Server.SchedulerEnabled
	handler.Scheduler.Start()
	defer handler.Scheduler.Stop()
	if cfg.Server.SchedulerEnabled {
		logger.Info("next recurring payment check", "at", handler.Scheduler.GetNextRunTime().Format(time.RFC3339))
	}

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", "http://localhost"+server.Addr, "db", cfg.Server.DBPath)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
