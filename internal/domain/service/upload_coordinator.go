package service

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// UploadTask is one outbound transfer run under a concurrency slot.
type UploadTask func(ctx context.Context) error

type pendingUpload struct {
	ctx     context.Context
	task    UploadTask
	done    chan error
	started chan struct{}
}

// UploadCoordinator runs upload tasks with at most maxConcurrent executing
// at once. Excess tasks wait in a FIFO list and start in submission order
// as slots free up. A task's error is delivered only to its own submitter.
type UploadCoordinator struct {
	maxConcurrent int
	taskTimeout   time.Duration
	logger        *zap.Logger

	mu      sync.Mutex
	active  int
	pending *list.List
}

// NewUploadCoordinator creates a coordinator. A non-positive maxConcurrent
// falls back to the default; a zero taskTimeout disables the per-task deadline.
func NewUploadCoordinator(maxConcurrent int, taskTimeout time.Duration, logger *zap.Logger) *UploadCoordinator {
	if maxConcurrent <= 0 {
		maxConcurrent = domain.DefaultMaxConcurrentUploads
	}
	return &UploadCoordinator{
		maxConcurrent: maxConcurrent,
		taskTimeout:   taskTimeout,
		logger:        logger.Named("upload-coordinator"),
		pending:       list.New(),
	}
}

// Submit runs task under a concurrency slot and returns its result. If ctx
// ends while the task is still waiting for a slot, the task is withdrawn and
// ctx.Err() is returned. A running task is not interrupted beyond the
// cancellation of the context it receives.
func (c *UploadCoordinator) Submit(ctx context.Context, task UploadTask) error {
	return <-c.Go(ctx, task)
}

// Go submits task and returns a channel that receives its result exactly once.
// The submission position is fixed before Go returns.
func (c *UploadCoordinator) Go(ctx context.Context, task UploadTask) <-chan error {
	p := &pendingUpload{
		ctx:     ctx,
		task:    task,
		done:    make(chan error, 1),
		started: make(chan struct{}),
	}

	if err := ctx.Err(); err != nil {
		p.done <- err
		return p.done
	}

	c.mu.Lock()
	if c.active < c.maxConcurrent && c.pending.Len() == 0 {
		c.startLocked(p)
		c.mu.Unlock()
		return p.done
	}
	elem := c.pending.PushBack(p)
	queued := c.pending.Len()
	c.mu.Unlock()

	c.logger.Debug("upload queued", zap.Int("queued", queued))

	go c.withdrawOnCancel(p, elem)
	return p.done
}

// Status reports the number of running and waiting tasks.
func (c *UploadCoordinator) Status() entity.UploadStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return entity.UploadStatus{
		Active:        c.active,
		MaxConcurrent: c.maxConcurrent,
		Queued:        c.pending.Len(),
	}
}

func (c *UploadCoordinator) withdrawOnCancel(p *pendingUpload, elem *list.Element) {
	select {
	case <-p.started:
	case <-p.ctx.Done():
		c.mu.Lock()
		select {
		case <-p.started:
			// Started between ctx ending and taking the lock; it owns a slot now.
			c.mu.Unlock()
			return
		default:
		}
		c.pending.Remove(elem)
		c.mu.Unlock()
		p.done <- p.ctx.Err()
	}
}

// startLocked takes a slot for p and runs it. c.mu must be held.
func (c *UploadCoordinator) startLocked(p *pendingUpload) {
	c.active++
	close(p.started)
	go c.execute(p)
}

func (c *UploadCoordinator) execute(p *pendingUpload) {
	err := c.run(p)
	p.done <- err

	c.mu.Lock()
	c.active--
	for c.active < c.maxConcurrent && c.pending.Len() > 0 {
		next := c.pending.Remove(c.pending.Front()).(*pendingUpload)
		c.startLocked(next)
	}
	c.mu.Unlock()
}

func (c *UploadCoordinator) run(p *pendingUpload) (err error) {
	ctx := p.ctx
	if c.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("upload task panicked", zap.Any("panic", r))
			err = fmt.Errorf("%w: panic: %v", domain.ErrUploadFailed, r)
		}
	}()

	return p.task(ctx)
}
