package deferq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/domain/service"
)

// Errors returned by Deferq. Handlers may return an error wrapping
// ErrInvalidPayload to fail a job without retrying it.
var (
	ErrInvalidJob     = domain.ErrInvalidJob
	ErrInvalidPayload = domain.ErrInvalidPayload
	ErrQueueClosed    = domain.ErrQueueClosed
	ErrUploadFailed   = domain.ErrUploadFailed
)

// Handler processes the JSON payload of one job.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Task is one upload run under a concurrency slot.
type Task func(ctx context.Context) error

// Stats is a point-in-time view of the job queue.
type Stats struct {
	Length     int
	Processing bool
	Paused     bool
}

// UploadStatus is a point-in-time view of the upload coordinator.
type UploadStatus struct {
	Active        int
	MaxConcurrent int
	Queued        int
}

// Config holds configuration for Deferq.
type Config struct {
	// MaxAttempts is how often a failing job runs before it is dropped.
	MaxAttempts int

	// RetryBaseDelay and RetryMaxDelay shape the exponential backoff.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// DispatchPause is waited after every dispatched job.
	DispatchPause time.Duration

	// MaxConcurrentUploads bounds the number of running upload tasks.
	MaxConcurrentUploads int

	// UploadTimeout bounds each upload task; zero disables it.
	UploadTimeout time.Duration

	// Logger (if nil, a default logger will be created)
	Logger *zap.Logger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts:          domain.DefaultMaxAttempts,
		RetryBaseDelay:       domain.DefaultRetryBaseDelay,
		RetryMaxDelay:        domain.DefaultRetryMaxDelay,
		DispatchPause:        domain.DefaultDispatchPause,
		MaxConcurrentUploads: domain.DefaultMaxConcurrentUploads,
		UploadTimeout:        2 * time.Minute,
	}
}

// Deferq runs deferred jobs and bounded-concurrency uploads inside the host
// process. It needs no external services; jobs that fail terminally are
// logged and dropped.
type Deferq struct {
	queue   *service.JobQueue
	uploads *service.UploadCoordinator
	logger  *zap.Logger
}

// New creates a Deferq instance with the given configuration.
func New(cfg *Config) (*Deferq, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		var err error
		logger, err = zap.NewProduction()
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
	}
	logger = logger.Named("deferq")

	queue := service.NewJobQueue(nil, service.QueueOptions{
		MaxAttempts:    cfg.MaxAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
		DispatchPause:  cfg.DispatchPause,
	}, logger)

	return &Deferq{
		queue:   queue,
		uploads: service.NewUploadCoordinator(cfg.MaxConcurrentUploads, cfg.UploadTimeout, logger),
		logger:  logger,
	}, nil
}

// Register binds a handler to a job type.
func (d *Deferq) Register(jobType string, handler Handler) {
	d.queue.Register(entity.JobType(jobType), service.HandlerFunc(handler))
}

// Enqueue schedules a job to run after delay and returns its ID. payload
// may be a json.RawMessage, a []byte holding JSON, or any value that
// encodes to JSON.
func (d *Deferq) Enqueue(ctx context.Context, jobType string, payload any, delay time.Duration) (string, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return "", err
	}
	return d.queue.Enqueue(ctx, entity.JobType(jobType), raw, delay)
}

// Pause stops dispatching before the next job.
func (d *Deferq) Pause() {
	d.queue.Pause()
}

// Resume restarts dispatching.
func (d *Deferq) Resume() {
	d.queue.Resume()
}

// Stats reports the job queue state.
func (d *Deferq) Stats() Stats {
	s := d.queue.Stats()
	return Stats{Length: s.Length, Processing: s.Processing, Paused: s.Paused}
}

// Submit runs task under an upload slot and returns its error. Tasks start
// in submission order.
func (d *Deferq) Submit(ctx context.Context, task Task) error {
	return d.uploads.Submit(ctx, service.UploadTask(task))
}

// SubmitAsync queues task and returns a channel receiving its error once.
func (d *Deferq) SubmitAsync(ctx context.Context, task Task) <-chan error {
	return d.uploads.Go(ctx, service.UploadTask(task))
}

// UploadStatus reports upload slot usage.
func (d *Deferq) UploadStatus() UploadStatus {
	s := d.uploads.Status()
	return UploadStatus{Active: s.Active, MaxConcurrent: s.MaxConcurrent, Queued: s.Queued}
}

// Close stops the job queue and waits for the in-flight job. Queued jobs
// are discarded.
func (d *Deferq) Close() error {
	d.logger.Info("shutting down deferq")
	d.queue.Close()
	return nil
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		if !json.Valid(p) {
			return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidJob)
		}
		return p, nil
	case []byte:
		if !json.Valid(p) {
			return nil, fmt.Errorf("%w: payload is not valid JSON", ErrInvalidJob)
		}
		return json.RawMessage(p), nil
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJob, err)
		}
		return raw, nil
	}
}
