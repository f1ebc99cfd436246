package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// UploadService stores files in object storage through an UploadCoordinator.
type UploadService struct {
	coordinator *UploadCoordinator
	uploader    secondary.ObjectUploader
	logger      *zap.Logger
}

// NewUploadService creates an UploadService.
func NewUploadService(coordinator *UploadCoordinator, uploader secondary.ObjectUploader, logger *zap.Logger) *UploadService {
	return &UploadService{
		coordinator: coordinator,
		uploader:    uploader,
		logger:      logger.Named("upload-service"),
	}
}

// UploadFiles uploads all files concurrently, bounded by the coordinator, and
// returns their public URLs in input order. The first failure cancels uploads
// that have not started yet and is returned.
func (s *UploadService) UploadFiles(ctx context.Context, folder string, files []entity.UploadFile) ([]string, error) {
	folder = cleanFolder(folder)
	urls := make([]string, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		key := objectKey(folder, file, time.Now())

		// Submitting from this loop keeps the coordinator's FIFO order equal to input order.
		result := s.coordinator.Go(gctx, func(taskCtx context.Context) error {
			url, err := s.uploader.Upload(taskCtx, key, file.ContentType, file.Body)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", domain.ErrUploadFailed, file.Name, err)
			}
			urls[i] = url
			return nil
		})
		g.Go(func() error { return <-result })
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("upload batch failed",
			zap.String("folder", folder),
			zap.Int("files", len(files)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("upload batch completed",
		zap.String("folder", folder),
		zap.Int("files", len(files)),
	)
	return urls, nil
}

// Status reports the coordinator's slot usage.
func (s *UploadService) Status() entity.UploadStatus {
	return s.coordinator.Status()
}

// objectKey builds "<folder>/<unix-millis>-<13 hex chars>.<ext>".
func objectKey(folder string, file entity.UploadFile, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
	return fmt.Sprintf("%s/%d-%s.%s", folder, now.UnixMilli(), suffix, file.Extension())
}

func cleanFolder(folder string) string {
	cleaned := strings.Trim(path.Clean("/"+strings.TrimSpace(folder)), "/")
	if cleaned == "" || cleaned == "." {
		return domain.DefaultUploadFolder
	}
	return cleaned
}
