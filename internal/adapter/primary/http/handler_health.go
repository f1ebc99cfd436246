package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/ruudy-sib/deferq/internal/port/primary"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles GET /health requests.
type HealthHandler struct {
	jobs   primary.JobService
	checks []secondary.HealthChecker
}

// NewHealthHandler creates a health check handler with the given checkers.
func NewHealthHandler(jobs primary.JobService, checks []secondary.HealthChecker) *HealthHandler {
	return &HealthHandler{jobs: jobs, checks: checks}
}

// ServeHTTP runs all health checks concurrently and reports the aggregate
// status together with the queue stats.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		healthy = true
		checks  = make(map[string]string, len(h.checks))
	)
	for _, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := check.Check(ctx); err != nil {
				result = err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			checks[check.Name()] = result
			if result != "ok" {
				healthy = false
			}
		}()
	}
	wg.Wait()

	status, statusText := http.StatusOK, "healthy"
	if !healthy {
		status, statusText = http.StatusServiceUnavailable, "unhealthy"
	}

	resp := HealthResponse{
		Status: statusText,
		Checks: checks,
	}
	if h.jobs != nil {
		stats := toQueueStatsResponse(h.jobs.Stats())
		resp.Queue = &stats
	}

	respondJSON(w, status, resp)
}
