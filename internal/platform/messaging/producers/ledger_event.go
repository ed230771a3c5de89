package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/domain/credit"
	"github.com/segmentio/kafka-go"
)

// SinkKafka is the sink label used for metrics and logs.
const SinkKafka = "kafka"

// LedgerEventProducer publishes committed ledger entries to the ledger topic.
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewLedgerEventProducer dials the brokers, ensures the ledger topic exists and
// returns a producer writing to it.
func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.LedgerTopic == "" {
		return nil, fmt.Errorf("kafka ledger topic is not configured")
	}

	conn, err := kafka.DialContext(ctx, "tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for ledger event producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, cfg.LedgerTopic, cfg.NumPartitions, cfg.ReplicationFactor, topicReadBackoff, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure ledger topic %s exists: %w", cfg.LedgerTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LedgerTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return newLedgerEventProducer(logger, writer, cfg.LedgerTopic), nil
}

func newLedgerEventProducer(logger *slog.Logger, writer KafkaWriter, topic string) *LedgerEventProducer {
	return &LedgerEventProducer{
		logger: logger.With("sink", SinkKafka),
		writer: writer,
		topic:  topic,
	}
}

func (p *LedgerEventProducer) Name() string { return SinkKafka }

// Deliver publishes event keyed by the balance it belongs to.
func (p *LedgerEventProducer) Deliver(ctx context.Context, event *credit.LedgerEvent) error {
	return p.Publish(ctx, event.Key(), event)
}

func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
