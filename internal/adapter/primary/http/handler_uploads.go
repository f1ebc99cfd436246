package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/primary"
)

const (
	// maxUploadBytes caps the whole multipart request.
	maxUploadBytes = 64 << 20
	// multipartMemory is held in memory before parts spill to disk.
	multipartMemory = 32 << 20
)

// UploadFilesHandler handles POST /uploads with multipart form fields
// "files" (one or more) and an optional "folder".
type UploadFilesHandler struct {
	service primary.UploadService
	logger  *zap.Logger
}

// NewUploadFilesHandler creates a handler for file uploads.
func NewUploadFilesHandler(service primary.UploadService, logger *zap.Logger) *UploadFilesHandler {
	return &UploadFilesHandler{
		service: service,
		logger:  logger.Named("upload-handler"),
	}
}

// ServeHTTP uploads all files and responds with their public URLs.
func (h *UploadFilesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid multipart form",
			Code:  "INVALID_BODY",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "at least one file is required",
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	files := make([]entity.UploadFile, 0, len(headers))
	for _, fh := range headers {
		file, err := readUploadFile(fh)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
				Code:  "INVALID_BODY",
			})
			return
		}
		files = append(files, file)
	}

	urls, err := h.service.UploadFiles(r.Context(), r.FormValue("folder"), files)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusCreated, UploadResponse{URLs: urls})
}

func readUploadFile(fh *multipart.FileHeader) (entity.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return entity.UploadFile{}, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return entity.UploadFile{}, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}

	return entity.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// UploadStatusHandler handles GET /uploads/status.
type UploadStatusHandler struct {
	service primary.UploadService
}

// NewUploadStatusHandler creates a handler reporting upload slot usage.
func NewUploadStatusHandler(service primary.UploadService) *UploadStatusHandler {
	return &UploadStatusHandler{service: service}
}

// ServeHTTP writes the coordinator status.
func (h *UploadStatusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	s := h.service.Status()
	respondJSON(w, http.StatusOK, UploadStatusResponse{
		Active:        s.Active,
		MaxConcurrent: s.MaxConcurrent,
		Queued:        s.Queued,
	})
}
