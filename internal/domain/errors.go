package domain

import "errors"

var (
	// ErrInvalidJob indicates the job failed validation at enqueue time.
	ErrInvalidJob = errors.New("invalid job")

	// ErrInvalidPayload indicates a handler rejected the job payload. Jobs failing
	// with this error are not retried.
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrUnknownJobType indicates no handler is registered for the job type.
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrQueueClosed indicates the job queue no longer accepts work.
	ErrQueueClosed = errors.New("job queue closed")

	// ErrJobNotFound indicates the requested job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrMaxAttemptsExceeded indicates the job exhausted all attempts.
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")

	// ErrUploadFailed indicates an upload task did not complete.
	ErrUploadFailed = errors.New("upload failed")

	// ErrDeliveryFailed indicates the message could not be delivered to the destination.
	ErrDeliveryFailed = errors.New("delivery failed")
)
