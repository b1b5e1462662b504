package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const partitionReadAttempts = 5

// ensureTopic creates the topic when the broker does not know it yet. Reads
// are retried because a freshly started broker can answer before its
// metadata has settled.
func ensureTopic(conn *kafka.Conn, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	for attempt := 1; attempt <= partitionReadAttempts; attempt++ {
		partitions, err = conn.ReadPartitions(topic)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying",
			"topic", topic, "attempt", attempt, "error", err)
		time.Sleep(2 * time.Second)
	}

	if len(partitions) > 0 {
		log.Info("Kafka topic already exists", "topic", topic)
		return nil
	}

	if numPartitions == 0 {
		numPartitions = 1
	}
	if replicationFactor == 0 {
		replicationFactor = 1
	}

	log.Info("Creating Kafka topic", "topic", topic, "partitions", numPartitions)
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
