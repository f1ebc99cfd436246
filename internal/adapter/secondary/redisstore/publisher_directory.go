package redisstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// PublisherDirectory implements secondary.PublisherDirectory over one Redis
// hash per campaign, mapping publisher ID to webhook URL. An empty value
// means the publisher is notified through the shared topic.
type PublisherDirectory struct {
	client redis.UniversalClient
	logger *zap.Logger
}

// NewPublisherDirectory creates a Redis-backed publisher directory.
func NewPublisherDirectory(client redis.UniversalClient, logger *zap.Logger) secondary.PublisherDirectory {
	return &PublisherDirectory{
		client: client,
		logger: logger.Named("redis-publishers"),
	}
}

// CampaignPublishers returns the campaign's publishers ordered by ID.
func (d *PublisherDirectory) CampaignPublishers(ctx context.Context, campaignID string) ([]entity.Publisher, error) {
	key := fmt.Sprintf(domain.RedisCampaignPublishersKeyFmt, campaignID)

	fields, err := d.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading publishers of campaign %s from redis: %w", campaignID, err)
	}

	publishers := make([]entity.Publisher, 0, len(fields))
	for id, webhook := range fields {
		publishers = append(publishers, entity.Publisher{ID: id, WebhookURL: webhook})
	}
	sort.Slice(publishers, func(i, j int) bool { return publishers[i].ID < publishers[j].ID })

	d.logger.Debug("campaign publishers loaded",
		zap.String("campaign_id", campaignID),
		zap.Int("count", len(publishers)),
	)
	return publishers, nil
}
