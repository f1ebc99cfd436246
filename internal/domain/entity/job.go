package entity

import (
	"encoding/json"
	"math"
	"time"
)

// JobType selects the handler that processes a job.
type JobType string

const (
	// JobTypeNotifyPublishers fans a campaign notification out to its publishers.
	JobTypeNotifyPublishers JobType = "notify-publishers"

	// JobTypeSendBulkEmail sends one message to many recipients in batches.
	JobTypeSendBulkEmail JobType = "send-bulk-email"
)

// Job is a unit of deferred work executed outside the request/response cycle.
type Job struct {
	ID          string
	Type        JobType
	Payload     json.RawMessage
	Attempts    int
	MaxAttempts int
	Delay       time.Duration
	CreatedAt   time.Time

	// EligibleAt is the earliest time the job may be dispatched. It starts at
	// CreatedAt+Delay and moves forward on every retry.
	EligibleAt time.Time

	// LastError is the error message of the most recent failed attempt.
	LastError string
}

// NewJob creates a job that becomes eligible delay after now.
func NewJob(id string, jobType JobType, payload json.RawMessage, delay time.Duration, maxAttempts int, now time.Time) *Job {
	return &Job{
		ID:          id,
		Type:        jobType,
		Payload:     payload,
		MaxAttempts: maxAttempts,
		Delay:       delay,
		CreatedAt:   now,
		EligibleAt:  now.Add(delay),
	}
}

// IncrementAttempt advances the attempt counter by one.
func (j *Job) IncrementAttempt() {
	j.Attempts++
}

// HasAttemptsLeft reports whether the job may be executed again.
func (j *Job) HasAttemptsLeft() bool {
	return j.Attempts < j.MaxAttempts
}

// IsDue reports whether the job may be dispatched at now.
func (j *Job) IsDue(now time.Time) bool {
	return !now.Before(j.EligibleAt)
}

// NextRetryDelay calculates the exponential backoff delay for the current attempt,
// capped at maxDelay when maxDelay is positive and saturating at the largest Duration.
// Formula: base * 2^(attempts-1)
func (j *Job) NextRetryDelay(base, maxDelay time.Duration) time.Duration {
	exponent := float64(j.Attempts - 1)
	if exponent < 0 {
		exponent = 0
	}
	delay := float64(base) * math.Pow(2, exponent)
	if maxDelay > 0 && delay > float64(maxDelay) {
		return maxDelay
	}
	if delay >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(delay)
}

// ScheduleRetry records the failure and moves the eligible time to now+delay.
func (j *Job) ScheduleRetry(now time.Time, delay time.Duration, cause error) {
	if cause != nil {
		j.LastError = cause.Error()
	}
	j.EligibleAt = now.Add(delay)
}
