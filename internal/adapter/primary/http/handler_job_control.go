package http

import (
	"net/http"

	"github.com/ruudy-sib/deferq/internal/port/primary"
)

// QueueControlHandler serves GET /jobs/stats, POST /jobs/pause and
// POST /jobs/resume. Each responds with the queue stats after its action.
type QueueControlHandler struct {
	service primary.JobService
	action  func(primary.JobService)
}

// NewQueueStatsHandler reports the queue stats.
func NewQueueStatsHandler(service primary.JobService) *QueueControlHandler {
	return &QueueControlHandler{service: service}
}

// NewPauseQueueHandler pauses dispatching.
func NewPauseQueueHandler(service primary.JobService) *QueueControlHandler {
	return &QueueControlHandler{service: service, action: primary.JobService.Pause}
}

// NewResumeQueueHandler resumes dispatching.
func NewResumeQueueHandler(service primary.JobService) *QueueControlHandler {
	return &QueueControlHandler{service: service, action: primary.JobService.Resume}
}

// ServeHTTP applies the action, if any, and writes the stats.
func (h *QueueControlHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	if h.action != nil {
		h.action(h.service)
	}
	respondJSON(w, http.StatusOK, toQueueStatsResponse(h.service.Stats()))
}
