package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/port/primary"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// NewRouter creates a chi router with all application routes registered.
// Mutating routes go through limiter, which may be nil.
func NewRouter(
	jobService primary.JobService,
	uploadService primary.UploadService,
	healthChecks []secondary.HealthChecker,
	limiter *RateLimiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	// Read-only endpoints
	r.Method(http.MethodGet, "/health", NewHealthHandler(jobService, healthChecks))
	r.Method(http.MethodGet, "/jobs/stats", NewQueueStatsHandler(jobService))
	r.Method(http.MethodGet, "/dead-letters", NewListDeadLettersHandler(jobService, logger))
	r.Method(http.MethodGet, "/dead-letters/{id}", NewGetDeadLetterHandler(jobService, logger))
	r.Method(http.MethodGet, "/uploads/status", NewUploadStatusHandler(uploadService))

	// Mutating endpoints
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Method(http.MethodPost, "/jobs", NewEnqueueJobHandler(jobService, logger))
		r.Method(http.MethodPost, "/jobs/pause", NewPauseQueueHandler(jobService))
		r.Method(http.MethodPost, "/jobs/resume", NewResumeQueueHandler(jobService))
		r.Method(http.MethodPost, "/uploads", NewUploadFilesHandler(uploadService, logger))
	})

	return r
}
