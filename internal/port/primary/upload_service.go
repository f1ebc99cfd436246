package primary

import (
	"context"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// UploadService defines the primary port for bounded-concurrency uploads.
type UploadService interface {
	// UploadFiles stores every file under folder and returns public URLs in input order.
	UploadFiles(ctx context.Context, folder string, files []entity.UploadFile) ([]string, error)

	// Status reports active and queued upload tasks.
	Status() entity.UploadStatus
}
