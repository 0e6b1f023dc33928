package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"fileshare/internal/config"
	"fileshare/internal/db"
	"fileshare/internal/server"
	"fileshare/internal/storage"
)

// Set via -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logger := server.NewLogger(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	// Storage directory
	disk, err := storage.NewDisk(cfg.StorageDir)
	if err != nil {
		logger.Error("storage_init_failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Database
	dbConn, err := db.OpenDB(cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_connect_failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() { _ = dbConn.Close() }()

	logger.Info("running_migrations")
	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Error("migration_failed", slog.Any("err", err))
		_ = dbConn.Close()
		os.Exit(1)
	}
	logger.Info("migrations_complete")

	build := server.BuildInfo{Version: version, Commit: commit}

	srv := server.New(server.Config{
		Addr:           cfg.Addr(),
		BaseURL:        cfg.BaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		TrustProxy:     cfg.TrustProxy,
		Build:          build,
		Logger:         logger,
		Files:          db.NewFiles(dbConn),
		Disk:           disk,
	})

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go server.StartTempSweeper(sweepCtx, server.SweepConfig{
		Interval: cfg.SweepInterval,
		MaxAge:   cfg.TempMaxAge,
		Disk:     disk,
		Logger:   logger,
	})

	// Start the HTTP server in a background goroutine.
	// This allows us to listen for OS signals while the server runs.
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting",
			slog.String("addr", cfg.Addr()),
			slog.String("base_url", cfg.BaseURL),
			slog.String("storage_dir", disk.Dir()),
			slog.String("version", build.Version),
			slog.String("commit", build.Commit),
		)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting_down", slog.String("signal", sig.String()))
		stopSweeper()
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown_error", slog.Any("err", err))
			os.Exit(1)
		}
		logger.Info("shutdown_complete")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_error", slog.Any("err", err))
			_ = dbConn.Close()
			os.Exit(1)
		}
	}
}
