package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

const campaignPublishedEvent = "campaign.published"

// NotifyPublishersPayload is the payload of a notify-publishers job.
type NotifyPublishersPayload struct {
	CampaignID string `json:"campaign_id"`
	BatchSize  int    `json:"batch_size,omitempty"`

	// DelayBetweenBatchesMs defaults to 2000 when omitted; 0 disables the pause.
	DelayBetweenBatchesMs *int `json:"delay_between_batches_ms,omitempty"`
}

// PublisherNotifier handles notify-publishers jobs by delivering one
// notification to every publisher of a campaign, in paced batches.
type PublisherNotifier struct {
	directory secondary.PublisherDirectory
	producer  secondary.MessageProducer
	topic     string
	logger    *zap.Logger
}

// NewPublisherNotifier creates a PublisherNotifier delivering to topic for
// publishers without a webhook.
func NewPublisherNotifier(
	directory secondary.PublisherDirectory,
	producer secondary.MessageProducer,
	topic string,
	logger *zap.Logger,
) *PublisherNotifier {
	return &PublisherNotifier{
		directory: directory,
		producer:  producer,
		topic:     topic,
		logger:    logger.Named("publisher-notifier"),
	}
}

// Handle implements HandlerFunc. Every publisher is attempted; the job fails
// if any delivery failed so the queue can retry it.
func (n *PublisherNotifier) Handle(ctx context.Context, payload json.RawMessage) error {
	var p NotifyPublishersPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	p.CampaignID = strings.TrimSpace(p.CampaignID)
	if p.CampaignID == "" {
		return fmt.Errorf("%w: campaign_id is required", domain.ErrInvalidPayload)
	}

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = domain.DefaultNotificationBatchSize
	}
	pause := domain.DefaultNotificationBatchDelay
	if p.DelayBetweenBatchesMs != nil {
		pause = time.Duration(max(*p.DelayBetweenBatchesMs, 0)) * time.Millisecond
	}

	logger := n.logger.With(zap.String("campaign_id", p.CampaignID))

	publishers, err := n.directory.CampaignPublishers(ctx, p.CampaignID)
	if err != nil {
		return fmt.Errorf("loading publishers for campaign %q: %w", p.CampaignID, err)
	}
	if len(publishers) == 0 {
		logger.Info("campaign has no publishers, nothing to notify")
		return nil
	}

	var errs error
	for start := 0; start < len(publishers); start += batchSize {
		if start > 0 {
			if err := sleepContext(ctx, pause); err != nil {
				return multierr.Append(errs, err)
			}
		}

		end := min(start+batchSize, len(publishers))
		failed := 0
		for _, pub := range publishers[start:end] {
			if err := n.notify(ctx, p.CampaignID, pub); err != nil {
				failed++
				errs = multierr.Append(errs, fmt.Errorf("publisher %s: %w", pub.ID, err))
			}
		}

		logger.Info("publisher batch notified",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("failed", failed),
		)
	}

	return errs
}

func (n *PublisherNotifier) notify(ctx context.Context, campaignID string, pub entity.Publisher) error {
	value, err := json.Marshal(entity.PublisherNotification{
		CampaignID:  campaignID,
		PublisherID: pub.ID,
		Event:       campaignPublishedEvent,
		SentAt:      time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshaling notification: %w", err)
	}

	key := []byte(campaignID + "|" + pub.ID)
	return n.producer.Produce(ctx, pub.Destination(n.topic), key, value)
}

// sleepContext waits for d or until ctx ends, returning ctx.Err() in the latter case.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
