package http

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/primary"
)

// EnqueueJobHandler handles POST /jobs requests.
type EnqueueJobHandler struct {
	service primary.JobService
	logger  *zap.Logger
}

// NewEnqueueJobHandler creates a handler for job submission.
func NewEnqueueJobHandler(service primary.JobService, logger *zap.Logger) *EnqueueJobHandler {
	return &EnqueueJobHandler{
		service: service,
		logger:  logger.Named("enqueue-job-handler"),
	}
}

// ServeHTTP accepts the job and returns its ID without waiting for it to run.
func (h *EnqueueJobHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req EnqueueJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
		return
	}

	payload := req.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	delay := time.Duration(req.DelayMs) * time.Millisecond

	id, err := h.service.Enqueue(r.Context(), entity.JobType(req.Type), payload, delay)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusAccepted, EnqueueJobResponse{ID: id})
}
