// Package worker runs periodic background maintenance: the usage
// retention sweep. It starts and stops with the server lifecycle.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/kindred-api/internal/service"
)

// Worker runs maintenance tasks on a poll loop.
type Worker struct {
	retention     *service.RetentionService
	pollInterval  time.Duration
	sweepInterval time.Duration
	stop          chan struct{}
	wg            sync.WaitGroup
	busy          atomic.Bool
	lastSweep     time.Time
	logger        *slog.Logger
	retentionOn   bool
}

// Config holds worker configuration.
type Config struct {
	PollInterval     time.Duration
	RetentionEnabled bool
	SweepInterval    time.Duration
}

// New creates a new worker.
func New(retention *service.RetentionService, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Minute
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		retention:     retention,
		pollInterval:  cfg.PollInterval,
		sweepInterval: cfg.SweepInterval,
		retentionOn:   cfg.RetentionEnabled,
		stop:          make(chan struct{}),
		logger:        logger.With("component", "worker"),
	}
}

// Start begins the poll loop.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting", "poll_interval", w.pollInterval, "retention_enabled", w.retentionOn)
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	w.logger.Info("stopping")
	close(w.stop)
	w.wg.Wait()
	w.logger.Info("stopped")
}

// Busy reports whether a maintenance task is currently running. The idle
// monitor consults this before shutting the process down.
func (w *Worker) Busy() bool {
	return w.busy.Load()
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *Worker) tick(ctx context.Context) {
	if !w.retentionOn {
		return
	}
	if time.Since(w.lastSweep) < w.sweepInterval {
		return
	}

	w.busy.Store(true)
	defer w.busy.Store(false)

	if _, err := w.retention.Sweep(ctx); err != nil {
		// Sweep logs its own error detail; retry next interval.
		return
	}
	w.lastSweep = time.Now()
}
