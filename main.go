package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/2ffacde/latest-code-fetcher/internal/config"
	"github.com/2ffacde/latest-code-fetcher/internal/db"
	"github.com/2ffacde/latest-code-fetcher/internal/handlers"
	"github.com/2ffacde/latest-code-fetcher/internal/mailbox"
)

func main() {
	var (
		addr      string
		logLevel  string
		auditPath string
	)

	rootCmd := &cobra.Command{
		Use:   "latest-code-fetcher",
		Short: "Serve the most recent six-digit mail code over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.ServerFromEnv()

			// Flags override the environment when set explicitly
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("audit-db") {
				cfg.AuditPath = auditPath
			}

			logger := setupLogger(cfg.LogLevel)
			slog.SetDefault(logger)

			return run(cfg, logger)
		},
	}

	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.Flags().StringVar(&auditPath, "audit-db", "", "sqlite audit journal path (empty disables auditing)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, logger *slog.Logger) error {
	// Open the audit journal when configured
	var journal *db.DB
	if cfg.AuditPath != "" {
		var err error
		journal, err = db.Open(cfg.AuditPath)
		if err != nil {
			return fmt.Errorf("open audit journal: %w", err)
		}
		defer journal.Close()
		logger.Info("audit journal opened", "path", cfg.AuditPath)
	}

	h := handlers.New(mailbox.NewDefaultDispatcher(), journal, logger)

	// Set up router
	r := chi.NewRouter()

	// Middleware
	r.Use(handlers.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Routes
	r.Get("/code", h.FetchLatestCode)
	r.Get("/healthz", h.Health)

	// Create server
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create shutdown signal channel
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupLogger(logLevel string) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)

	switch logLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
