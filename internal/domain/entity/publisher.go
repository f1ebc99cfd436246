package entity

// Destination represents a target endpoint where messages are delivered.
// For Kafka: use Topic.
// For HTTP: use URL (e.g., "http://publisher.example.com/hooks/campaigns").
type Destination struct {
	Topic string // Kafka topic name
	URL   string // HTTP endpoint URL (for HTTP destinations)
}

// Publisher is an ad publisher participating in a campaign.
type Publisher struct {
	ID         string
	WebhookURL string
}

// Destination returns the publisher's webhook when it has one, otherwise the
// shared notification topic.
func (p Publisher) Destination(topic string) Destination {
	if p.WebhookURL != "" {
		return Destination{URL: p.WebhookURL}
	}
	return Destination{Topic: topic}
}

// PublisherNotification is the message delivered to each publisher of a campaign.
type PublisherNotification struct {
	CampaignID  string `json:"campaign_id"`
	PublisherID string `json:"publisher_id"`
	Event       string `json:"event"`
	SentAt      int64  `json:"sent_at"`
}
