// Package main is the entry point for the Placekit server. It loads
// configuration, establishes database connections, applies migrations,
// loads the tag rule table, wires the application and starts the HTTP
// server.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/placekit/internal/app"
	"github.com/keyxmakerx/placekit/internal/config"
	"github.com/keyxmakerx/placekit/internal/database"
	"github.com/keyxmakerx/placekit/internal/tagging"
)

func main() {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting Placekit",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// Stop on SIGINT/SIGTERM, including while still connecting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to MariaDB", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
		slog.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// --- Connect to Redis ---
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	slog.Info("connected to Redis")

	// --- Load Tag Rules ---
	rules, err := tagging.LoadRuleTableFile(cfg.Tagging.RulesPath)
	if err != nil {
		slog.Error("failed to load tag rules",
			slog.String("path", cfg.Tagging.RulesPath),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
	slog.Info("tag rules loaded",
		slog.String("path", cfg.Tagging.RulesPath),
		slog.Int("rules", len(rules.Rules())),
	)

	// --- Create Application ---
	application, err := app.New(cfg, db, rdb, rules)
	if err != nil {
		slog.Error("failed to create application", slog.Any("error", err))
		os.Exit(1)
	}
	application.RegisterRoutes()

	// --- Graceful Shutdown ---
	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")

		// Give in-flight requests 10 seconds to complete.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced shutdown", slog.Any("error", err))
		}
	}()

	// --- Start Server ---
	if err := application.Start(); err != nil {
		// Echo returns http.ErrServerClosed on graceful shutdown, which is expected.
		slog.Info("server stopped", slog.Any("reason", err))
	}
}

// setupLogging configures the global slog logger. Development uses text
// format for readability; production uses JSON for log aggregation. The
// level comes from LOG_LEVEL.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
