package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/coop-bookkeeping/internal/config"
)

// CloseRequestProducer publishes fiscal-year close requests for the
// year-close worker to pick up.
type CloseRequestProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new close-request producer and ensures the topic exists. Close
// requests are written synchronously: losing one silently would leave the
// books open with no operator feedback.
func NewCloseRequestProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*CloseRequestProducer, error) {
	if cfg.CloseTopic == "" {
		return nil, fmt.Errorf("kafka close topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for close request producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, cfg.CloseTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure close topic %s exists: %w", cfg.CloseTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.CloseTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write close request messages", "topic", cfg.CloseTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote close request messages", "topic", cfg.CloseTopic, "count", len(messages))
			}
		},
	}

	return &CloseRequestProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.CloseTopic,
	}, nil
}

func (p *CloseRequestProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal close request message value: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish close request",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish close request to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published close request",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *CloseRequestProducer) Close() error {
	p.logger.Info("Closing close-request Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
