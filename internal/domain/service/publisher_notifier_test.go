package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

const testTopic = "publisher-notifications"

func testPublishers(n int) []entity.Publisher {
	pubs := make([]entity.Publisher, n)
	for i := range pubs {
		pubs[i] = entity.Publisher{ID: string(rune('a' + i))}
	}
	return pubs
}

func notifyPayload(t *testing.T, p NotifyPublishersPayload) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return b
}

func intPtr(v int) *int { return &v }

func TestPublisherNotifier_Handle(t *testing.T) {
	pubs := testPublishers(5)
	pubs[1].WebhookURL = "https://pub-b.test/hook"

	directory := &mockDirectory{publishers: pubs}
	producer := &mockProducer{}
	n := NewPublisherNotifier(directory, producer, testTopic, zap.NewNop())

	err := n.Handle(context.Background(), notifyPayload(t, NotifyPublishersPayload{
		CampaignID:            " cmp-42 ",
		BatchSize:             2,
		DelayBetweenBatchesMs: intPtr(0),
	}))
	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}

	if len(directory.campaigns) != 1 || directory.campaigns[0] != "cmp-42" {
		t.Fatalf("directory queried with %v, want [cmp-42]", directory.campaigns)
	}
	if len(producer.produceCalls) != 5 {
		t.Fatalf("Produce called %d times, want 5", len(producer.produceCalls))
	}

	for i, call := range producer.produceCalls {
		if want := "cmp-42|" + pubs[i].ID; string(call.Key) != want {
			t.Errorf("call %d key = %q, want %q", i, call.Key, want)
		}
		var msg entity.PublisherNotification
		if err := json.Unmarshal(call.Value, &msg); err != nil {
			t.Fatalf("call %d value is not JSON: %v", i, err)
		}
		if msg.CampaignID != "cmp-42" || msg.PublisherID != pubs[i].ID || msg.Event != "campaign.published" {
			t.Errorf("call %d notification = %+v", i, msg)
		}
	}

	if got := producer.produceCalls[1].Destination; got.URL != "https://pub-b.test/hook" || got.Topic != "" {
		t.Errorf("webhook publisher destination = %+v", got)
	}
	if got := producer.produceCalls[0].Destination; got.Topic != testTopic || got.URL != "" {
		t.Errorf("topic publisher destination = %+v", got)
	}
}

func TestPublisherNotifier_Handle_PausesBetweenBatches(t *testing.T) {
	directory := &mockDirectory{publishers: testPublishers(5)}
	producer := &mockProducer{}
	n := NewPublisherNotifier(directory, producer, testTopic, zap.NewNop())

	start := time.Now()
	err := n.Handle(context.Background(), notifyPayload(t, NotifyPublishersPayload{
		CampaignID:            "cmp-1",
		BatchSize:             2,
		DelayBetweenBatchesMs: intPtr(30),
	}))
	if err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}

	// Three batches, two pauses.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("Handle() took %v, want >= 60ms", elapsed)
	}
}

func TestPublisherNotifier_Handle_ContinuesAfterDeliveryFailure(t *testing.T) {
	directory := &mockDirectory{publishers: testPublishers(4)}
	producer := &mockProducer{
		produceFunc: func(_ context.Context, _ entity.Destination, key, _ []byte) error {
			if strings.HasSuffix(string(key), "|b") {
				return errors.New("broker unavailable")
			}
			return nil
		},
	}
	n := NewPublisherNotifier(directory, producer, testTopic, zap.NewNop())

	err := n.Handle(context.Background(), notifyPayload(t, NotifyPublishersPayload{
		CampaignID:            "cmp-1",
		DelayBetweenBatchesMs: intPtr(0),
	}))
	if err == nil {
		t.Fatal("Handle() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "publisher b") || !strings.Contains(err.Error(), "broker unavailable") {
		t.Fatalf("Handle() error = %v, want failing publisher and cause", err)
	}
	if len(producer.produceCalls) != 4 {
		t.Fatalf("Produce called %d times, want 4", len(producer.produceCalls))
	}
}

func TestPublisherNotifier_Handle_NoPublishers(t *testing.T) {
	producer := &mockProducer{}
	n := NewPublisherNotifier(&mockDirectory{}, producer, testTopic, zap.NewNop())

	if err := n.Handle(context.Background(), json.RawMessage(`{"campaign_id":"cmp-1"}`)); err != nil {
		t.Fatalf("Handle() unexpected error: %v", err)
	}
	if len(producer.produceCalls) != 0 {
		t.Fatalf("Produce called %d times, want 0", len(producer.produceCalls))
	}
}

func TestPublisherNotifier_Handle_Errors(t *testing.T) {
	directoryErr := errors.New("redis timeout")

	tests := []struct {
		name      string
		payload   json.RawMessage
		directory *mockDirectory
		wantErr   error
	}{
		{
			name:      "malformed payload",
			payload:   json.RawMessage(`{"campaign_id":`),
			directory: &mockDirectory{},
			wantErr:   domain.ErrInvalidPayload,
		},
		{
			name:      "missing campaign id",
			payload:   json.RawMessage(`{"batch_size":10}`),
			directory: &mockDirectory{},
			wantErr:   domain.ErrInvalidPayload,
		},
		{
			name:      "blank campaign id",
			payload:   json.RawMessage(`{"campaign_id":"   "}`),
			directory: &mockDirectory{},
			wantErr:   domain.ErrInvalidPayload,
		},
		{
			name:      "directory failure",
			payload:   json.RawMessage(`{"campaign_id":"cmp-1"}`),
			directory: &mockDirectory{err: directoryErr},
			wantErr:   directoryErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewPublisherNotifier(tt.directory, &mockProducer{}, testTopic, zap.NewNop())
			err := n.Handle(context.Background(), tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Handle() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPublisherNotifier_Handle_ContextCancelledDuringPause(t *testing.T) {
	directory := &mockDirectory{publishers: testPublishers(4)}
	producer := &mockProducer{}
	n := NewPublisherNotifier(directory, producer, testTopic, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := n.Handle(ctx, notifyPayload(t, NotifyPublishersPayload{
		CampaignID:            "cmp-1",
		BatchSize:             2,
		DelayBetweenBatchesMs: intPtr(10_000),
	}))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Handle() error = %v, want %v", err, context.DeadlineExceeded)
	}
	if len(producer.produceCalls) != 2 {
		t.Fatalf("Produce called %d times, want only the first batch", len(producer.produceCalls))
	}
}
