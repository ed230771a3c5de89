package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/infyemailer-backoffice/internal/config"
	"github.com/infyemailer-backoffice/internal/domain/credit"
)

// LedgerEventHandler processes one decoded ledger event.
type LedgerEventHandler func(ctx context.Context, event *credit.LedgerEvent) error

// KafkaReader wraps kafka.Reader methods for testing
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LedgerEventConsumer reads the ledger topic as a member of a consumer group.
type LedgerEventConsumer struct {
	reader     KafkaReader
	logger     *slog.Logger
	retryDelay time.Duration
}

func NewLedgerEventConsumer(logger *slog.Logger, cfg *config.KafkaConfig) *LedgerEventConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		Topic:       cfg.LedgerTopic,
		GroupID:     cfg.MirrorGroup,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	})
	return newLedgerEventConsumer(logger.With("topic", cfg.LedgerTopic, "group_id", cfg.MirrorGroup), reader)
}

func newLedgerEventConsumer(logger *slog.Logger, reader KafkaReader) *LedgerEventConsumer {
	return &LedgerEventConsumer{
		reader:     reader,
		logger:     logger,
		retryDelay: time.Second,
	}
}

// Run feeds every event to handle until ctx is canceled. Offsets are committed
// in order: a failed event is retried until handle succeeds and no later
// message is fetched meanwhile. Messages that cannot be decoded are committed
// and skipped.
func (c *LedgerEventConsumer) Run(ctx context.Context, handle LedgerEventHandler) error {
	c.logger.Info("Consuming ledger events")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("Context canceled, stopping ledger event consumer")
				return nil
			}
			if errors.Is(err, io.EOF) {
				c.logger.Info("Reader closed, stopping ledger event consumer")
				return nil
			}
			c.logger.Error("Failed to fetch ledger event", "error", err)
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		log := c.logger.With("partition", msg.Partition, "offset", msg.Offset, "key", string(msg.Key))

		var event credit.LedgerEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn("Skipping undecodable ledger event", "error", err)
			c.commit(ctx, log, msg)
			continue
		}

		if !c.handleUntilDone(ctx, log, handle, &event) {
			c.logger.Info("Context canceled, stopping ledger event consumer")
			return nil
		}

		log.Debug("Ledger event processed", "event_id", event.EventID)
		c.commit(ctx, log, msg)
	}
}

// handleUntilDone reports false when ctx ends before handle succeeds.
func (c *LedgerEventConsumer) handleUntilDone(ctx context.Context, log *slog.Logger, handle LedgerEventHandler, event *credit.LedgerEvent) bool {
	for attempt := 1; ; attempt++ {
		err := handle(ctx, event)
		if err == nil {
			return true
		}
		log.Error("Failed to process ledger event, retrying",
			"event_id", event.EventID,
			"attempt", attempt,
			"error", err,
		)
		if !c.sleep(ctx) {
			return false
		}
	}
}

func (c *LedgerEventConsumer) commit(ctx context.Context, log *slog.Logger, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		log.Error("Failed to commit ledger event", "error", err)
	}
}

func (c *LedgerEventConsumer) sleep(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(c.retryDelay):
		return true
	}
}

func (c *LedgerEventConsumer) Close() error {
	if c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
