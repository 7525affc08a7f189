package storage

import (
	"context"
	"errors"

	"ms-payment/internal/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrConcurrentUpdate = errors.New("payment was modified concurrently")
)

type Store interface {
	// Payment operations
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	FindPaymentsByReference(ctx context.Context, reference string, limit int) ([]*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
	ListPaymentsByOrder(ctx context.Context, orderID string) ([]*models.Payment, error)

	// Payment method settings
	SavePaymentMethod(ctx context.Context, method *models.PaymentMethod) error
	GetPaymentMethod(ctx context.Context, id string) (*models.PaymentMethod, error)
	FindPaymentMethodByMerchantAccount(ctx context.Context, merchantAccount string) (*models.PaymentMethod, error)

	// Health and maintenance
	Close() error
	HealthCheck(ctx context.Context) error
}
