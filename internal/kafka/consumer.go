package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CommandHandler processes one payment command. Errors are retried up to
// maxAttempts times, then the command is logged and committed.
type CommandHandler = func(ctx context.Context, cmd models.PaymentCommand) error

const maxAttempts = 3

type Consumer struct {
	reader  messageReader
	logger  *logger.Logger
	topic   string
	backoff time.Duration
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, logger: log, topic: topic, backoff: time.Second}
}

// Start consumes payment commands until ctx is cancelled. Messages that
// cannot be decoded are logged and committed so they do not block the
// partition.
func (c *Consumer) Start(ctx context.Context, handler CommandHandler) error {
	c.logger.LogKafka("START", c.topic, "Payment command consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.LogKafka("STOP", c.topic, "Payment command consumer stopped")
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		var cmd models.PaymentCommand
		if err := json.Unmarshal(msg.Value, &cmd); err != nil || cmd.ReferenceID == "" {
			c.logger.Warn("KAFKA", fmt.Sprintf("Skipping undecodable command at offset %d: %v", msg.Offset, err))
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				return fmt.Errorf("commit message: %w", err)
			}
			continue
		}

		c.logger.LogKafka("RECEIVE", c.topic, fmt.Sprintf("%s for %s", cmd.Command, cmd.ReferenceID))
		if err := c.handle(ctx, handler, cmd); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Giving up on %s for %s: %v", cmd.Command, cmd.ReferenceID, err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, handler CommandHandler, cmd models.PaymentCommand) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = handler(ctx, cmd); err == nil {
			return nil
		}
		c.logger.Warn("KAFKA", fmt.Sprintf("Command %s for %s failed (attempt %d/%d): %v",
			cmd.Command, cmd.ReferenceID, attempt, maxAttempts, err))
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	return err
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
