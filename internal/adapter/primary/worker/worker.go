package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/port/primary"
)

// Worker owns the job queue's lifetime inside the binary. It reports queue
// and upload stats at regular intervals and closes the queue on shutdown.
type Worker struct {
	jobs     primary.JobService
	uploads  primary.UploadService
	interval time.Duration
	logger   *zap.Logger
}

// NewWorker creates a Worker that logs stats at the given interval.
func NewWorker(
	jobs primary.JobService,
	uploads primary.UploadService,
	interval time.Duration,
	logger *zap.Logger,
) *Worker {
	if interval <= 0 {
		interval = domain.DefaultStatsInterval
	}
	return &Worker{
		jobs:     jobs,
		uploads:  uploads,
		interval: interval,
		logger:   logger.Named("worker"),
	}
}

// Run blocks until the context is cancelled, then closes the job queue
// and returns ctx.Err().
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		zap.Duration("stats_interval", w.interval),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down, closing job queue")
			w.jobs.Close()
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *Worker) report() {
	q := w.jobs.Stats()
	u := w.uploads.Status()

	fields := []zap.Field{
		zap.Int("queue_length", q.Length),
		zap.Bool("queue_processing", q.Processing),
		zap.Bool("queue_paused", q.Paused),
		zap.Int("uploads_active", u.Active),
		zap.Int("uploads_queued", u.Queued),
	}

	// A paused queue with a backlog needs an operator.
	if q.Paused && q.Length > 0 {
		w.logger.Warn("job queue paused with pending jobs", fields...)
		return
	}
	w.logger.Info("stats", fields...)
}
