package producerfactory

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// Factory routes each publisher notification to the webhook or Kafka
// producer depending on which destination field is set.
type Factory struct {
	kafkaProducer secondary.MessageProducer
	httpProducer  secondary.MessageProducer
	logger        *zap.Logger
}

// NewFactory creates a producer factory with both Kafka and HTTP producers.
func NewFactory(
	kafkaProducer secondary.MessageProducer,
	httpProducer secondary.MessageProducer,
	logger *zap.Logger,
) secondary.MessageProducer {
	return &Factory{
		kafkaProducer: kafkaProducer,
		httpProducer:  httpProducer,
		logger:        logger.Named("producer-factory"),
	}
}

// Produce routes the message. A webhook URL takes precedence over a topic.
func (f *Factory) Produce(ctx context.Context, destination entity.Destination, key, value []byte) error {
	if destination.URL != "" {
		f.logger.Debug("routing to http producer", zap.String("url", destination.URL))
		return f.httpProducer.Produce(ctx, destination, key, value)
	}

	if destination.Topic != "" {
		f.logger.Debug("routing to kafka producer", zap.String("topic", destination.Topic))
		return f.kafkaProducer.Produce(ctx, destination, key, value)
	}

	return fmt.Errorf("%w: neither URL nor topic is set", domain.ErrDeliveryFailed)
}

// Close closes all underlying producers.
func (f *Factory) Close() error {
	var err error
	if cerr := f.kafkaProducer.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("closing kafka producer: %w", cerr))
	}
	if cerr := f.httpProducer.Close(); cerr != nil {
		err = multierr.Append(err, fmt.Errorf("closing http producer: %w", cerr))
	}
	return err
}
