package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter is the part of *kafka.Writer the producer uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ KafkaWriter = (*kafka.Writer)(nil)
