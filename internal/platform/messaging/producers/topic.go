package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// topicAdmin is the part of *kafka.Conn used to provision topics.
type topicAdmin interface {
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	CreateTopics(topics ...kafka.TopicConfig) error
}

const (
	topicReadAttempts = 5
	topicReadBackoff  = 2 * time.Second
)

// ensureTopic creates topic unless its partitions can be read. Partition reads
// are retried because a freshly started broker may not serve metadata yet.
func ensureTopic(admin topicAdmin, topic string, partitions, replication int, backoff time.Duration, log *slog.Logger) error {
	log = log.With("topic", topic)

	var lastErr error
	for attempt := 1; attempt <= topicReadAttempts; attempt++ {
		parts, err := admin.ReadPartitions(topic)
		if err == nil && len(parts) > 0 {
			log.Info("Kafka topic already exists", "partitions", len(parts))
			return nil
		}
		lastErr = err
		if attempt < topicReadAttempts {
			log.Warn("Failed to read topic partitions, retrying", "attempt", attempt, "error", err)
			time.Sleep(backoff)
		}
	}

	log.Info("Creating Kafka topic", "last_read_error", lastErr)
	err := admin.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(partitions, 1),
		ReplicationFactor: max(replication, 1),
	})
	if err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	log.Info("Kafka topic created")
	return nil
}
