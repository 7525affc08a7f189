package services

import (
	"context"
	"fmt"

	"ms-payment/internal/models"
)

// ResolvePayment maps a merchant reference to exactly one stored payment.
func (s *AdyenService) ResolvePayment(ctx context.Context, reference string) (*models.Payment, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrPaymentNotFound)
	}

	// two rows are enough to tell unique from ambiguous
	payments, err := s.payments.FindPaymentsByReference(ctx, reference, 2)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", reference, err)
	}

	switch len(payments) {
	case 0:
		return nil, fmt.Errorf("%w: reference %q", ErrPaymentNotFound, reference)
	case 1:
		return payments[0], nil
	default:
		s.log.Error("WEBHOOK", fmt.Sprintf("Reference %s matches more than one payment", reference))
		return nil, fmt.Errorf("%w: reference %q is not unique", ErrDataIntegrity, reference)
	}
}
