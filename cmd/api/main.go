package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/qrpay-backend/internal/api"
	"github.com/baharkarakas/qrpay-backend/internal/auth"
	"github.com/baharkarakas/qrpay-backend/internal/config"
	"github.com/baharkarakas/qrpay-backend/internal/db"
	"github.com/baharkarakas/qrpay-backend/internal/logger"
	"github.com/baharkarakas/qrpay-backend/internal/metrics"
	"github.com/baharkarakas/qrpay-backend/internal/notify"
	"github.com/baharkarakas/qrpay-backend/internal/repository"
	"github.com/baharkarakas/qrpay-backend/internal/repository/postgres"
	"github.com/baharkarakas/qrpay-backend/internal/repository/sqlite"
	"github.com/baharkarakas/qrpay-backend/internal/services"
	"github.com/baharkarakas/qrpay-backend/internal/telemetry"
	"github.com/baharkarakas/qrpay-backend/internal/worker"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

// openRepositories connects the configured backend and returns a closer.
func openRepositories(ctx context.Context, cfg config.Config, log *slog.Logger) (repository.Repositories, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		gdb, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		closer := func() {
			if sqlDB, err := gdb.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		log.Info("storage ready", "driver", cfg.StorageDriver, "path", cfg.SQLitePath)
		return sqlite.NewRepositories(gdb), closer, nil
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return repository.Repositories{}, nil, err
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool, log); err != nil {
				pool.Close()
				return repository.Repositories{}, nil, err
			}
		}
		log.Info("storage ready", "driver", cfg.StorageDriver)
		return postgres.NewRepositories(pool), pool.Close, nil
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Tracing, "qrpay-backend", os.Stderr)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown", "err", err)
		}
	}()

	repos, closeStore, err := openRepositories(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	tm, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		return err
	}

	hub := notify.NewHub(cfg.StreamBuffer, log)
	defer hub.Close()
	wp := worker.NewPool(cfg.Workers, 1024)
	// drain audit writes before the store closes
	defer wp.Stop()

	metrics.Init()
	r := api.NewRouter(api.RouterDeps{
		Cfg:      cfg,
		Log:      log,
		TM:       tm,
		Hub:      hub,
		Profiles: services.NewProfileService(repos, wp, log),
		TxnSvc:   services.NewTransactionService(repos, hub, wp, log),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	// streams only end once the hub closes their subscriptions
	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
