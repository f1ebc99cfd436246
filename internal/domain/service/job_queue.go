package service

import (
	"container/heap"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/domain/valueobject"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// deadLetterTimeout bounds the dead-letter write so a slow store cannot stall dispatch.
const deadLetterTimeout = 5 * time.Second

// HandlerFunc processes the payload of one job. Returning an error that wraps
// domain.ErrInvalidPayload dead-letters the job without further attempts.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// QueueOptions tunes retry and pacing behavior of a JobQueue.
type QueueOptions struct {
	// MaxAttempts is the number of executions before a job is dead-lettered.
	MaxAttempts int

	// RetryBaseDelay and RetryMaxDelay shape the exponential backoff.
	// A zero RetryMaxDelay leaves the backoff uncapped.
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// DispatchPause is waited after every dispatch. Zero disables it.
	DispatchPause time.Duration
}

// DefaultQueueOptions returns the options used when nothing is configured.
func DefaultQueueOptions() QueueOptions {
	return QueueOptions{
		MaxAttempts:    domain.DefaultMaxAttempts,
		RetryBaseDelay: domain.DefaultRetryBaseDelay,
		RetryMaxDelay:  domain.DefaultRetryMaxDelay,
		DispatchPause:  domain.DefaultDispatchPause,
	}
}

// JobQueue is an in-process job queue with a single dispatcher goroutine.
// Jobs are dispatched in order of eligibility (creation time plus delay, or
// retry time); jobs eligible at the same instant are dispatched FIFO.
// The dispatcher runs only while there is work, and is started by Enqueue
// and Resume.
type JobQueue struct {
	deadLetters secondary.DeadLetterStore
	opts        QueueOptions
	logger      *zap.Logger

	handlersMu sync.RWMutex
	handlers   map[entity.JobType]HandlerFunc

	mu         sync.Mutex
	jobs       jobHeap
	seq        uint64
	processing bool
	paused     bool
	closed     bool

	// wake interrupts the dispatcher while it waits for a delayed head.
	wake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewJobQueue creates a JobQueue. deadLetters may be nil, in which case
// terminal failures are only logged.
func NewJobQueue(deadLetters secondary.DeadLetterStore, opts QueueOptions, logger *zap.Logger) *JobQueue {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = domain.DefaultMaxAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = domain.DefaultRetryBaseDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &JobQueue{
		deadLetters: deadLetters,
		opts:        opts,
		logger:      logger.Named("job-queue"),
		handlers:    make(map[entity.JobType]HandlerFunc),
		wake:        make(chan struct{}, 1),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Register binds a handler to a job type, replacing any previous handler.
func (q *JobQueue) Register(jobType entity.JobType, handler HandlerFunc) {
	q.handlersMu.Lock()
	defer q.handlersMu.Unlock()
	q.handlers[jobType] = handler
}

// Enqueue appends a job that becomes eligible after delay and returns its ID.
// It never waits for the job to run.
func (q *JobQueue) Enqueue(ctx context.Context, jobType entity.JobType, payload json.RawMessage, delay time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateJob(jobType, delay); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidJob, err)
	}

	job := entity.NewJob(valueobject.NewJobID().String(), jobType, payload, delay, q.opts.MaxAttempts, time.Now())

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return "", domain.ErrQueueClosed
	}
	q.pushLocked(job)
	q.startLocked()
	q.mu.Unlock()
	q.signal()

	q.logger.Info("job queued",
		zap.String("job_id", job.ID),
		zap.String("job_type", string(job.Type)),
		zap.Duration("delay", delay),
	)

	return job.ID, nil
}

// Pause stops dispatching. A job already being handled runs to completion,
// but no further job is dispatched until Resume.
func (q *JobQueue) Pause() {
	q.mu.Lock()
	q.paused = true
	q.mu.Unlock()
	q.signal()
	q.logger.Info("job queue paused")
}

// Resume restarts dispatching from the head of the queue. It does not start
// a second dispatcher if one is still running.
func (q *JobQueue) Resume() {
	q.mu.Lock()
	q.paused = false
	q.startLocked()
	q.mu.Unlock()
	q.logger.Info("job queue resumed")
}

// Stats reports the queue length and dispatcher state.
func (q *JobQueue) Stats() entity.QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return entity.QueueStats{
		Length:     q.jobs.Len(),
		Processing: q.processing,
		Paused:     q.paused,
	}
}

// DeadLetters lists terminally failed jobs, newest first. Without a
// dead-letter store the list is always empty.
func (q *JobQueue) DeadLetters(ctx context.Context, limit int) ([]entity.DeadLetter, error) {
	if q.deadLetters == nil {
		return []entity.DeadLetter{}, nil
	}
	return q.deadLetters.List(ctx, limit)
}

// DeadLetter returns a terminally failed job by ID.
func (q *JobQueue) DeadLetter(ctx context.Context, jobID string) (entity.DeadLetter, error) {
	if q.deadLetters == nil {
		return entity.DeadLetter{}, domain.ErrJobNotFound
	}
	return q.deadLetters.Get(ctx, jobID)
}

// Close stops the dispatcher, cancels the context passed to handlers and
// waits for the in-flight dispatch to return. Queued jobs are discarded.
func (q *JobQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	dropped := q.jobs.Len()
	q.mu.Unlock()

	q.cancel()
	q.signal()
	q.wg.Wait()

	q.logger.Info("job queue closed", zap.Int("dropped_jobs", dropped))
}

func (q *JobQueue) pushLocked(job *entity.Job) {
	q.seq++
	heap.Push(&q.jobs, scheduledJob{job: job, seq: q.seq})
}

// startLocked launches the dispatcher if it is idle and there is work.
func (q *JobQueue) startLocked() {
	if q.processing || q.paused || q.closed || q.jobs.Len() == 0 {
		return
	}
	q.processing = true
	q.wg.Add(1)
	go q.drain()
}

func (q *JobQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// drain is the dispatcher loop. It exits when the queue is empty, paused
// or closed, clearing the processing flag under the same lock.
func (q *JobQueue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if q.paused || q.closed || q.jobs.Len() == 0 {
			q.processing = false
			q.mu.Unlock()
			return
		}

		now := time.Now()
		if head := q.jobs.peek(); !head.IsDue(now) {
			wait := head.EligibleAt.Sub(now)
			q.mu.Unlock()
			q.sleep(wait, true)
			continue
		}

		job := heap.Pop(&q.jobs).(scheduledJob).job
		q.mu.Unlock()

		q.dispatch(job)
		q.sleep(q.opts.DispatchPause, false)
	}
}

// sleep waits for d, returning early when the queue closes or, if
// wakeable, when the queue is signalled.
func (q *JobQueue) sleep(d time.Duration, wakeable bool) {
	if d <= 0 {
		return
	}

	var wake <-chan struct{}
	if wakeable {
		wake = q.wake
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-wake:
	case <-q.ctx.Done():
	}
}

func (q *JobQueue) handler(jobType entity.JobType) (HandlerFunc, bool) {
	q.handlersMu.RLock()
	defer q.handlersMu.RUnlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

func (q *JobQueue) dispatch(job *entity.Job) {
	logger := q.logger.With(
		zap.String("job_id", job.ID),
		zap.String("job_type", string(job.Type)),
		zap.Int("attempt", job.Attempts+1),
	)

	handler, ok := q.handler(job.Type)
	if !ok {
		logger.Warn("dropping job", zap.Error(domain.ErrUnknownJobType))
		return
	}

	logger.Info("processing job")

	if err := q.run(handler, job); err != nil {
		logger.Warn("job failed", zap.Error(err))
		q.handleFailure(job, err, logger)
		return
	}

	logger.Info("job completed")
}

func (q *JobQueue) run(handler HandlerFunc, job *entity.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(q.ctx, job.Payload)
}

func (q *JobQueue) handleFailure(job *entity.Job, cause error, logger *zap.Logger) {
	job.IncrementAttempt()

	if errors.Is(cause, domain.ErrInvalidPayload) {
		logger.Error("payload rejected, dead-lettering without retry")
		q.deadLetter(job, cause, logger)
		return
	}

	if !job.HasAttemptsLeft() {
		logger.Error("max attempts exceeded, dead-lettering job",
			zap.Int("max_attempts", job.MaxAttempts),
			zap.Int("attempts", job.Attempts),
		)
		q.deadLetter(job, fmt.Errorf("%w: %v", domain.ErrMaxAttemptsExceeded, cause), logger)
		return
	}

	delay := job.NextRetryDelay(q.opts.RetryBaseDelay, q.opts.RetryMaxDelay)
	job.ScheduleRetry(time.Now(), delay, cause)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logger.Warn("job queue closed, abandoning retry")
		return
	}
	q.pushLocked(job)
	q.mu.Unlock()

	logger.Info("scheduling retry",
		zap.Duration("delay", delay),
		zap.Int("next_attempt", job.Attempts+1),
	)
}

func (q *JobQueue) deadLetter(job *entity.Job, cause error, logger *zap.Logger) {
	job.LastError = cause.Error()
	if q.deadLetters == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deadLetterTimeout)
	defer cancel()

	letter := entity.DeadLetter{
		Job:      *job,
		Reason:   cause.Error(),
		FailedAt: time.Now(),
	}
	if err := q.deadLetters.Save(ctx, letter); err != nil {
		logger.Error("failed to save dead letter", zap.Error(err))
	}
}

func validateJob(jobType entity.JobType, delay time.Duration) error {
	if jobType == "" {
		return fmt.Errorf("job type is required")
	}
	if delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	return nil
}
