package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

type PaymentStatus string

const (
	StatusPending    PaymentStatus = "pending"
	StatusAuthorized PaymentStatus = "authorized"
	StatusAcquired   PaymentStatus = "acquired"
	StatusDeclined   PaymentStatus = "declined"
	StatusRefunded   PaymentStatus = "refunded"
	StatusCancelled  PaymentStatus = "cancelled"
)

// IsTerminal reports whether notifications can no longer move the status.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusAcquired, StatusDeclined, StatusRefunded, StatusCancelled:
		return true
	}
	return false
}

type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	PaymentID       string          `json:"payment_id" bun:"payment_id,pk"`
	ReferenceID     string          `json:"reference_id" bun:"reference_id,unique,notnull"`
	TransactionID   string          `json:"transaction_id,omitempty" bun:"transaction_id,nullzero"`
	OrderID         string          `json:"order_id" bun:"order_id,notnull"`
	PaymentMethodID string          `json:"payment_method_id" bun:"payment_method_id,notnull"`
	Amount          decimal.Decimal `json:"amount" bun:"amount,type:numeric(18,4),notnull"`
	Currency        string          `json:"currency" bun:"currency,notnull"`
	Status          PaymentStatus   `json:"status" bun:"status,notnull"`
	Version         int64           `json:"version" bun:"version,notnull,default:0"`
	CreatedAt       time.Time       `json:"created_at" bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt       time.Time       `json:"updated_at,omitempty" bun:"updated_at,nullzero"`

	PaymentMethod *PaymentMethod `json:"-" bun:"rel:belongs-to,join:payment_method_id=id"`
}
