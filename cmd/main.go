package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "theme-ads/internal/adapter/http"
	"theme-ads/internal/adapter/notify"
	"theme-ads/internal/adapter/postgres"
	"theme-ads/internal/adapter/usecase"
	"theme-ads/internal/config"
	"theme-ads/internal/db"
)

// main is the entry point of the theme-ads service. It loads
// configuration, optionally runs database migrations, initializes the
// database pool, the points ledger and the admission engine, restores the
// engine state from storage, then starts the expiration sweeper and the
// HTTP server. On receiving a termination signal it gracefully shuts
// everything down.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := cfg.Log.Build()

	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("migrations applied successfully")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Psql.SeedDemoData {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
		}
	}

	store := postgres.NewRequestRepository(pool)
	ledger := postgres.NewPointsLedger(pool)
	notifier := notify.NewLogNotifier(logger)

	svc := usecase.NewAdmissionService(store, ledger, notifier, logger, usecase.Config{
		MaxActiveSlots:      cfg.Engine.MaxActiveSlots,
		DailyCost:           cfg.Engine.DailyCost,
		PromotionRetryLimit: cfg.Engine.PromotionRetryLimit,
	})
	if err = svc.Restore(ctx); err != nil {
		logger.Error("state restore error", slog.Any("error", err))
		os.Exit(1)
	}

	sweeper := usecase.NewExpirationSweeper(svc, cfg.Engine.SweepInterval, logger)
	go sweeper.Run(ctx)

	handler := httpadapter.NewHandler(svc, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", serveErr))
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}

	// Last flush so exposure counts recorded since the previous sweep
	// survive the restart.
	svc.FlushCounters(shutdownCtx)
}
