package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
)

type fakeWriter struct {
	messages []kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

// fakeReader serves queued messages, then cancels the consumer.
type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.queue) == 0 {
		r.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestPublishPaymentEvent(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{Writer: w, Logger: logger.New(io.Discard), topic: "payment.events"}

	payment := &models.Payment{
		ReferenceID:   "R1",
		OrderID:       "order-1",
		TransactionID: "PSP1",
		Status:        models.StatusAuthorized,
		Amount:        decimal.RequireFromString("19.99"),
		Currency:      "EUR",
	}
	require.NoError(t, p.PublishPaymentEvent(context.Background(), models.NewPaymentEvent(models.EventPaymentAuthorized, payment)))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "R1", string(w.messages[0].Key))
	assert.Equal(t, "payment.authorized", string(w.messages[0].Headers[0].Value))

	var event models.PaymentEvent
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, "PSP1", event.TransactionID)
	assert.Equal(t, models.StatusAuthorized, event.Status)
}

func TestConsumerHandlesCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{cancel: cancel, queue: []kafka.Message{
		{Offset: 1, Value: []byte(`{"reference_id":"R1","command":"capture"}`)},
		{Offset: 2, Value: []byte(`not json`)},
		{Offset: 3, Value: []byte(`{"reference_id":"R2","command":"refund"}`)},
	}}
	c := &Consumer{reader: r, logger: logger.New(io.Discard), topic: "payment.commands"}

	var handled []models.PaymentCommand
	err := c.Start(ctx, func(_ context.Context, cmd models.PaymentCommand) error {
		handled = append(handled, cmd)
		return nil
	})

	require.NoError(t, err)
	require.Len(t, handled, 2)
	assert.Equal(t, models.CommandCapture, handled[0].Command)
	assert.Equal(t, "R2", handled[1].ReferenceID)
	assert.Equal(t, []int64{1, 2, 3}, r.committed)
}

func TestConsumerRetriesFailedCommand(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{cancel: cancel, queue: []kafka.Message{
		{Offset: 7, Value: []byte(`{"reference_id":"R1","command":"cancel"}`)},
	}}
	c := &Consumer{reader: r, logger: logger.New(io.Discard), topic: "payment.commands"}

	calls := 0
	err := c.Start(ctx, func(context.Context, models.PaymentCommand) error {
		calls++
		if calls < 2 {
			return errors.New("gateway unavailable")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int64{7}, r.committed)
}
