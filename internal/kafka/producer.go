package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer messageWriter
	Logger *logger.Logger
	topic  string
}

// NewProducer writes payment events to topic, keyed by payment reference so
// events of one payment stay ordered.
func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log, topic: topic}
}

// PublishPaymentEvent streams a payment status change to Kafka
func (p *Producer) PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if p.Logger != nil {
		p.Logger.LogKafka("PUBLISH", p.topic, fmt.Sprintf("%s for %s", event.Type, event.ReferenceID))
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(event.ReferenceID),
			Value: msgBytes,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(event.Type)},
			},
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
