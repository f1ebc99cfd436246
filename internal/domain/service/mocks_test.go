package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// mockDeadLetterStore implements secondary.DeadLetterStore for testing.
type mockDeadLetterStore struct {
	mu      sync.Mutex
	saveErr error
	letters []entity.DeadLetter
}

func (m *mockDeadLetterStore) Save(_ context.Context, letter entity.DeadLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.letters = append(m.letters, letter)
	return m.saveErr
}

func (m *mockDeadLetterStore) List(_ context.Context, limit int) ([]entity.DeadLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit > len(m.letters) {
		limit = len(m.letters)
	}
	return append([]entity.DeadLetter(nil), m.letters[:limit]...), nil
}

func (m *mockDeadLetterStore) Get(_ context.Context, jobID string) (entity.DeadLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.letters {
		if l.Job.ID == jobID {
			return l, nil
		}
	}
	return entity.DeadLetter{}, domain.ErrJobNotFound
}

func (m *mockDeadLetterStore) saved() []entity.DeadLetter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.DeadLetter(nil), m.letters...)
}

// mockProducer implements secondary.MessageProducer for testing.
type mockProducer struct {
	mu          sync.Mutex
	produceFunc func(ctx context.Context, destination entity.Destination, key, value []byte) error

	produceCalls []produceCall
}

type produceCall struct {
	Destination entity.Destination
	Key         []byte
	Value       []byte
	Err         error
}

func (m *mockProducer) Produce(ctx context.Context, destination entity.Destination, key, value []byte) error {
	var err error
	if m.produceFunc != nil {
		err = m.produceFunc(ctx, destination, key, value)
	}
	m.mu.Lock()
	m.produceCalls = append(m.produceCalls, produceCall{
		Destination: destination,
		Key:         key,
		Value:       value,
		Err:         err,
	})
	m.mu.Unlock()
	return err
}

func (m *mockProducer) Close() error {
	return nil
}

// mockDirectory implements secondary.PublisherDirectory for testing.
type mockDirectory struct {
	publishers []entity.Publisher
	err        error
	campaigns  []string
}

func (m *mockDirectory) CampaignPublishers(_ context.Context, campaignID string) ([]entity.Publisher, error) {
	m.campaigns = append(m.campaigns, campaignID)
	return m.publishers, m.err
}

// mockEmailSender implements secondary.EmailSender for testing.
type mockEmailSender struct {
	sendFunc func(batch entity.EmailBatch) error
	batches  []entity.EmailBatch
}

func (m *mockEmailSender) Send(_ context.Context, batch entity.EmailBatch) error {
	m.batches = append(m.batches, batch)
	if m.sendFunc != nil {
		return m.sendFunc(batch)
	}
	return nil
}

// mockUploader implements secondary.ObjectUploader for testing.
type mockUploader struct {
	mu         sync.Mutex
	uploadFunc func(ctx context.Context, key string) error
	keys       []string
}

func (m *mockUploader) Upload(ctx context.Context, key, _ string, _ []byte) (string, error) {
	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()
	if m.uploadFunc != nil {
		if err := m.uploadFunc(ctx, key); err != nil {
			return "", err
		}
	}
	return "https://cdn.test/" + key, nil
}

// dispatchRecorder records the order and time in which jobs reach a handler.
type dispatchRecorder struct {
	mu    sync.Mutex
	names []string
	times map[string]time.Time
	ch    chan string
}

func newDispatchRecorder() *dispatchRecorder {
	return &dispatchRecorder{
		times: make(map[string]time.Time),
		ch:    make(chan string, 100),
	}
}

// handler returns a HandlerFunc that records the payload name and then
// returns the result of fn (nil when fn is nil).
func (r *dispatchRecorder) handler(fn func(name string) error) HandlerFunc {
	return func(_ context.Context, payload json.RawMessage) error {
		var p struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(payload, &p)

		r.mu.Lock()
		r.names = append(r.names, p.Name)
		if _, ok := r.times[p.Name]; !ok {
			r.times[p.Name] = time.Now()
		}
		r.mu.Unlock()

		r.ch <- p.Name
		if fn != nil {
			return fn(p.Name)
		}
		return nil
	}
}

func (r *dispatchRecorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func (r *dispatchRecorder) firstSeen(name string) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.times[name]
}

// await blocks until n dispatches were recorded or fails the test.
func (r *dispatchRecorder) await(t *testing.T, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-r.ch:
		case <-deadline:
			t.Fatalf("timed out after %d of %d dispatches (order so far: %v)", i, n, r.order())
		}
	}
}

// assertQuiet fails the test if any dispatch happens within d.
func (r *dispatchRecorder) assertQuiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case name := <-r.ch:
		t.Fatalf("unexpected dispatch of %q", name)
	case <-time.After(d):
	}
}

func namePayload(name string) json.RawMessage {
	return json.RawMessage(`{"name":"` + name + `"}`)
}

// eventually polls cond until it holds or the timeout elapses.
func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", timeout, msg)
}
