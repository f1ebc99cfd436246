package kafkaproducer

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/config"
	"github.com/ruudy-sib/deferq/internal/domain/entity"
	"github.com/ruudy-sib/deferq/internal/port/secondary"
)

// Producer implements secondary.MessageProducer using segmentio/kafka-go.
// It maintains a single writer for all publisher notifications; the topic
// is chosen per message.
type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer creates a Kafka producer from the application configuration.
func NewProducer(cfg *config.Config, logger *zap.Logger) secondary.MessageProducer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           100 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	logger.Info("kafka producer initialized",
		zap.Strings("brokers", cfg.KafkaBrokers),
	)

	return &Producer{
		writer: writer,
		logger: logger.Named("kafka-producer"),
	}
}

// Produce writes one message to the destination topic. Messages with the
// same key land on the same partition.
func (p *Producer) Produce(ctx context.Context, destination entity.Destination, key, value []byte) error {
	if destination.Topic == "" {
		return fmt.Errorf("destination topic is required for kafka delivery")
	}

	msg := kafka.Message{
		Topic: destination.Topic,
		Key:   key,
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing message to kafka topic %q: %w", destination.Topic, err)
	}

	p.logger.Debug("message produced",
		zap.String("topic", destination.Topic),
		zap.Int("value_size", len(value)),
	)

	return nil
}

// Close shuts down the Kafka writer and releases its resources.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
