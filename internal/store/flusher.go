package store

import (
	"context"
	"log/slog"
	"time"
)

// Flushable is anything holding snapshots that may need a retried write.
type Flushable interface {
	Flush(ctx context.Context) error
}

// Flusher periodically retries dirty snapshot writes.
type Flusher struct {
	target   Flushable
	logger   *slog.Logger
	interval time.Duration
}

func NewFlusher(target Flushable, interval time.Duration, logger *slog.Logger) *Flusher {
	return &Flusher{
		target:   target,
		logger:   logger.With("component", "flusher"),
		interval: interval,
	}
}

// Start flushes on every tick until ctx is cancelled.
func (f *Flusher) Start(ctx context.Context) {
	f.logger.Info("Starting snapshot flusher", "interval", f.interval.String())
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Snapshot flusher stopping due to context cancellation.")
			return
		case <-ticker.C:
			f.logger.Debug("Snapshot flusher tick")
			if err := f.target.Flush(ctx); err != nil {
				f.logger.Error("Failed to flush dirty snapshots", "error", err)
			}
		}
	}
}
