package http

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/primary"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// mockJobService implements primary.JobService for testing.
type mockJobService struct {
	enqueueErr error
	stats      entity.QueueStats
	letters    []entity.DeadLetter
	listErr    error

	enqueued     []enqueueCall
	pauseCalled  int
	resumeCalled int
	listLimit    int
}

type enqueueCall struct {
	Type    entity.JobType
	Payload json.RawMessage
	Delay   time.Duration
}

func (m *mockJobService) Enqueue(_ context.Context, jobType entity.JobType, payload json.RawMessage, delay time.Duration) (string, error) {
	m.enqueued = append(m.enqueued, enqueueCall{Type: jobType, Payload: payload, Delay: delay})
	if m.enqueueErr != nil {
		return "", m.enqueueErr
	}
	return "job_7f8a3c1e-0000-4000-8000-000000000001", nil
}

func (m *mockJobService) Pause() {
	m.pauseCalled++
	m.stats.Paused = true
}

func (m *mockJobService) Resume() {
	m.resumeCalled++
	m.stats.Paused = false
}

func (m *mockJobService) Stats() entity.QueueStats {
	return m.stats
}

func (m *mockJobService) DeadLetters(_ context.Context, limit int) ([]entity.DeadLetter, error) {
	m.listLimit = limit
	return m.letters, m.listErr
}

func (m *mockJobService) DeadLetter(_ context.Context, jobID string) (entity.DeadLetter, error) {
	for _, l := range m.letters {
		if l.Job.ID == jobID {
			return l, nil
		}
	}
	return entity.DeadLetter{}, domain.ErrJobNotFound
}

func (m *mockJobService) Close() {}

// mockUploadService implements primary.UploadService for testing.
type mockUploadService struct {
	err    error
	status entity.UploadStatus

	folder string
	files  []entity.UploadFile
}

func (m *mockUploadService) UploadFiles(_ context.Context, folder string, files []entity.UploadFile) ([]string, error) {
	m.folder = folder
	m.files = files
	if m.err != nil {
		return nil, m.err
	}
	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = "https://cdn.test/" + f.Name
	}
	return urls, nil
}

func (m *mockUploadService) Status() entity.UploadStatus {
	return m.status
}

// mockHealthCheck is a test double for health checks.
type mockHealthCheck struct {
	name string
	err  error
}

func (m mockHealthCheck) Name() string {
	return m.name
}

func (m mockHealthCheck) Check(_ context.Context) error {
	return m.err
}

// Compile-time interface assertions
var (
	_ primary.JobService      = (*mockJobService)(nil)
	_ primary.UploadService   = (*mockUploadService)(nil)
	_ secondary.HealthChecker = mockHealthCheck{}
)
