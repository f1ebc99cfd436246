package secondary

import (
	"context"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// DeadLetterStore defines the secondary port for keeping jobs that
// failed terminally (e.g., Redis hash + sorted set index).
type DeadLetterStore interface {
	// Save records a dead-lettered job. Saving the same job ID twice overwrites it.
	Save(ctx context.Context, letter entity.DeadLetter) error

	// List returns up to limit dead letters, most recent failure first.
	List(ctx context.Context, limit int) ([]entity.DeadLetter, error)

	// Get returns the dead letter for a job ID, or domain.ErrJobNotFound.
	Get(ctx context.Context, jobID string) (entity.DeadLetter, error)
}
