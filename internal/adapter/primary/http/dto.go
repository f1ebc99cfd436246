package http

import (
	"encoding/json"
	"time"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// EnqueueJobRequest is the body of POST /jobs.
type EnqueueJobRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
	DelayMs int64           `json:"delay_ms"`
}

// EnqueueJobResponse is returned when a job was accepted.
type EnqueueJobResponse struct {
	ID string `json:"id"`
}

// QueueStatsResponse reports the job queue state.
type QueueStatsResponse struct {
	Length     int  `json:"length"`
	Processing bool `json:"processing"`
	Paused     bool `json:"paused"`
}

// DeadLetterResponse describes one terminally failed job.
type DeadLetterResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Reason      string          `json:"reason"`
	CreatedAt   time.Time       `json:"created_at"`
	FailedAt    time.Time       `json:"failed_at"`
}

// DeadLettersResponse is returned by GET /dead-letters.
type DeadLettersResponse struct {
	DeadLetters []DeadLetterResponse `json:"dead_letters"`
	Count       int                  `json:"count"`
}

// UploadResponse lists the public URLs of uploaded files, in form order.
type UploadResponse struct {
	URLs []string `json:"urls"`
}

// UploadStatusResponse reports upload slot usage.
type UploadStatusResponse struct {
	Active        int `json:"active"`
	MaxConcurrent int `json:"max_concurrent"`
	Queued        int `json:"queued"`
}

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status string              `json:"status"`
	Checks map[string]string   `json:"checks"`
	Queue  *QueueStatsResponse `json:"queue,omitempty"`
}

func toQueueStatsResponse(s entity.QueueStats) QueueStatsResponse {
	return QueueStatsResponse{
		Length:     s.Length,
		Processing: s.Processing,
		Paused:     s.Paused,
	}
}

func toDeadLetterResponse(l entity.DeadLetter) DeadLetterResponse {
	return DeadLetterResponse{
		ID:          l.Job.ID,
		Type:        string(l.Job.Type),
		Payload:     l.Job.Payload,
		Attempts:    l.Job.Attempts,
		MaxAttempts: l.Job.MaxAttempts,
		Reason:      l.Reason,
		CreatedAt:   l.Job.CreatedAt,
		FailedAt:    l.FailedAt,
	}
}
