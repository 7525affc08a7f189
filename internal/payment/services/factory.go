package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ms-payment/internal/models"
)

type defaultPaymentFactory struct {
	payments PaymentRepository
}

// NewPaymentFactory returns a factory that stores a pending payment with a
// fresh reference.
func NewPaymentFactory(payments PaymentRepository) PaymentFactory {
	return &defaultPaymentFactory{payments: payments}
}

func (f *defaultPaymentFactory) NewPayment(ctx context.Context, req PaymentRequest) (*models.Payment, error) {
	payment := &models.Payment{
		PaymentID:       uuid.NewString(),
		ReferenceID:     uuid.NewString(),
		OrderID:         req.PurchaseOrder.OrderID,
		PaymentMethodID: req.PaymentMethod.ID,
		Amount:          req.amount(),
		Currency:        req.PurchaseOrder.Currency,
		Status:          models.StatusPending,
		CreatedAt:       time.Now().UTC(),
		PaymentMethod:   req.PaymentMethod,
	}
	if err := f.payments.CreatePayment(ctx, payment); err != nil {
		return nil, err
	}
	return payment, nil
}
