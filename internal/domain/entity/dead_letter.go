package entity

import "time"

// DeadLetter is a job that exhausted its attempts or was rejected as
// unprocessable, kept for operator inspection.
type DeadLetter struct {
	Job      Job
	Reason   string
	FailedAt time.Time
}
