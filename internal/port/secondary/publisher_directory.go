package secondary

import (
	"context"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// PublisherDirectory looks up the publishers taking part in a campaign.
type PublisherDirectory interface {
	// CampaignPublishers returns the campaign's publishers ordered by ID.
	CampaignPublishers(ctx context.Context, campaignID string) ([]entity.Publisher, error)
}
