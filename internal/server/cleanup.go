package server

import (
	"context"
	"log/slog"
	"time"

	"fileshare/internal/storage"
)

// SweepConfig holds configuration for the temp-file sweeper.
type SweepConfig struct {
	Interval time.Duration // 0 disables the sweeper
	MaxAge   time.Duration
	Disk     *storage.Disk
	Logger   *slog.Logger
}

// StartTempSweeper periodically deletes temporary upload files older than
// MaxAge. It blocks until ctx is cancelled.
func StartTempSweeper(ctx context.Context, cfg SweepConfig) {
	log := cfg.Logger.With(slog.String("component", "sweeper"))

	if cfg.Interval <= 0 {
		log.Info("disabled")
		return
	}

	log.Info("starting",
		slog.Duration("interval", cfg.Interval),
		slog.Duration("max_age", cfg.MaxAge))

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	// Run immediately on start
	runSweep(log, cfg)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting_down")
			return
		case <-ticker.C:
			runSweep(log, cfg)
		}
	}
}

func runSweep(log *slog.Logger, cfg SweepConfig) {
	start := time.Now()

	removed, err := cfg.Disk.SweepTemp(start.Add(-cfg.MaxAge))
	tempFilesSweptTotal.Add(float64(removed))
	if err != nil {
		log.Error("sweep_failed", slog.Int("removed", removed), slog.Any("err", err))
		return
	}
	if removed > 0 {
		log.Info("sweep_complete",
			slog.Int("removed", removed),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()))
	}
}
