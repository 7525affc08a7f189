package services

import (
	"context"

	"ms-payment/internal/models"
)

type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

type Broadcaster interface {
	Emit(event models.PaymentEvent)
}

// OrderNotifier hands status changes to the order system over Kafka and to
// browsers watching the payment.
type OrderNotifier struct {
	Publisher   EventPublisher
	Broadcaster Broadcaster
}

func (n *OrderNotifier) ProcessPayment(ctx context.Context, event models.PaymentEvent) error {
	if n.Broadcaster != nil {
		n.Broadcaster.Emit(event)
	}
	if n.Publisher != nil {
		return n.Publisher.PublishPaymentEvent(ctx, event)
	}
	return nil
}
