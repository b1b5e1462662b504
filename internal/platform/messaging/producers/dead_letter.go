package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/coop-bookkeeping/internal/config"
)

// DLQProducer parks close requests that can never succeed, preserving the
// original payload and the failure reason for operator review.
type DLQProducer struct {
	logger   *slog.Logger
	writer   KafkaWriter
	dlqTopic string
}

// NewDLQProducer returns (nil, nil) when no DLQ topic is configured; callers
// treat a nil producer as "DLQ disabled".
func NewDLQProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLQProducer, error) {
	if cfg.DLQTopic == "" {
		logger.Info("DLQ topic not configured, dead letter publishing disabled")
		return nil, nil
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for dlq producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.DLQTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure DLQ topic %s exists: %w", cfg.DLQTopic, err)
	}

	return &DLQProducer{
		logger: logger,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers),
			Topic:        cfg.DLQTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: cfg.MaxWait,
		},
		dlqTopic: cfg.DLQTopic,
	}, nil
}

type dlqEnvelope struct {
	OriginalKey   string `json:"original_key"`
	OriginalValue string `json:"original_value"`
	DLQReason     string `json:"dlq_reason"`
	Timestamp     string `json:"timestamp"`
}

// PublishToDLQ writes the original message alongside its failure reason.
// Safe to call on a nil receiver so handlers need no DLQ nil-check of their
// own before delegating.
func (p *DLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	if p == nil || p.writer == nil {
		return fmt.Errorf("DLQ producer not initialized")
	}

	value, err := json.Marshal(dlqEnvelope{
		OriginalKey:   key,
		OriginalValue: string(originalMessageValue),
		DLQReason:     reason,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ envelope: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "dlq-reason", Value: []byte(reason)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish to DLQ",
			"topic", p.dlqTopic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish to DLQ %s: %w", p.dlqTopic, err)
	}

	p.logger.Info("Published message to DLQ",
		"topic", p.dlqTopic,
		"key", key,
		"reason", reason,
	)
	return nil
}

func (p *DLQProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dlq writer for topic %s: %w", p.dlqTopic, err)
	}
	return nil
}
