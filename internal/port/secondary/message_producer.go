package secondary

import (
	"context"

	"github.com/ruudy-sib/deferq/internal/domain/entity"
)

// MessageProducer delivers a publisher notification. Implementations route
// on the destination: a webhook URL gets an HTTP POST and a topic gets a
// Kafka message. key identifies the (campaign, publisher) pair and is used
// for partitioning and receiver de-duplication; value is the JSON-encoded
// entity.PublisherNotification.
type MessageProducer interface {
	// Produce delivers value once. Failures wrap domain.ErrDeliveryFailed
	// when the destination itself rejected or could not take the message.
	Produce(ctx context.Context, destination entity.Destination, key, value []byte) error

	// Close flushes pending writes and releases connections.
	Close() error
}
