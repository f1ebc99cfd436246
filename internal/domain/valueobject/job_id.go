package valueobject

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const jobIDPrefix = "job_"

// JobID is an immutable value object representing a unique job identifier.
type JobID struct {
	value string
}

// NewJobID generates a fresh, random JobID.
func NewJobID() JobID {
	return JobID{value: jobIDPrefix + uuid.NewString()}
}

// ParseJobID creates a validated JobID from a string such as a URL parameter.
func ParseJobID(value string) (JobID, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return JobID{}, fmt.Errorf("job ID must not be empty")
	}
	if !strings.HasPrefix(trimmed, jobIDPrefix) {
		return JobID{}, fmt.Errorf("job ID %q must start with %q", trimmed, jobIDPrefix)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(trimmed, jobIDPrefix)); err != nil {
		return JobID{}, fmt.Errorf("job ID %q: %w", trimmed, err)
	}
	return JobID{value: trimmed}, nil
}

// String returns the string representation of the JobID.
func (j JobID) String() string {
	return j.value
}

// Equals checks equality with another JobID.
func (j JobID) Equals(other JobID) bool {
	return j.value == other.value
}
