package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentAcquired   = "payment.acquired"
	EventPaymentDeclined   = "payment.declined"
	EventPaymentRefunded   = "payment.refunded"
	EventPaymentCancelled  = "payment.cancelled"
)

// PaymentEvent is published for the order system after a status change.
type PaymentEvent struct {
	Type          string          `json:"type"`
	ReferenceID   string          `json:"reference_id"`
	OrderID       string          `json:"order_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Status        PaymentStatus   `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewPaymentEvent snapshots p.
func NewPaymentEvent(eventType string, p *Payment) PaymentEvent {
	return PaymentEvent{
		Type:          eventType,
		ReferenceID:   p.ReferenceID,
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		Amount:        p.Amount,
		Currency:      p.Currency,
		Timestamp:     time.Now().UTC(),
	}
}

type CommandType string

const (
	CommandCapture CommandType = "capture"
	CommandRefund  CommandType = "refund"
	CommandCancel  CommandType = "cancel"
)

// PaymentCommand is an order-system request to move money for a payment.
type PaymentCommand struct {
	ReferenceID string      `json:"reference_id"`
	Command     CommandType `json:"command"`
	RequestedBy string      `json:"requested_by,omitempty"`
}
