package primary

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// JobService defines the primary port for the background job queue
// exposed to driving adapters (HTTP handlers, worker, embedding apps).
type JobService interface {
	// Enqueue appends a job and returns its ID without waiting for it to run.
	Enqueue(ctx context.Context, jobType entity.JobType, payload json.RawMessage, delay time.Duration) (string, error)

	// Pause stops dispatching before the next job.
	Pause()

	// Resume restarts dispatching from the head of the queue.
	Resume()

	// Stats reports the queue length and dispatcher state.
	Stats() entity.QueueStats

	// DeadLetters returns up to limit terminally failed jobs, newest first.
	DeadLetters(ctx context.Context, limit int) ([]entity.DeadLetter, error)

	// DeadLetter returns one terminally failed job or domain.ErrJobNotFound.
	DeadLetter(ctx context.Context, jobID string) (entity.DeadLetter, error)

	// Close stops the queue and waits for the in-flight dispatch to return.
	Close()
}
