package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/coop-bookkeeping/internal/config"
)

// MessageHandler processes one message. A nil return commits the offset; an
// error leaves it uncommitted so the message is redelivered.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaConsumer implements Consumer using Kafka
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.CloseTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts the fetch loop in its own goroutine and returns
// immediately. The loop runs until ctx is canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic", "topic", topic, "group_id", groupID)
	go c.run(ctx, topic, groupID, handler)
	return nil
}

func (c *KafkaConsumer) run(ctx context.Context, topic, groupID string, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Stopping consumer", "topic", topic, "group_id", groupID)
				return
			}
			c.logger.Error("Failed to fetch message",
				"topic", topic, "group_id", groupID, "error", err)
			time.Sleep(time.Second)
			continue
		}

		c.logger.Debug("Received message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			// Uncommitted, so the broker redelivers after rebalance or restart.
			c.logger.Error("Failed to process message, offset not committed",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit offset after processing",
				"topic", msg.Topic,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
