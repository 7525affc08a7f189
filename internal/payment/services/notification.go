package services

import (
	"context"
	"errors"
	"fmt"

	"ms-payment/internal/adyen"
	"ms-payment/internal/metrics"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/storage"
)

// CallbackResult describes the item a delivery acted upon.
type CallbackResult struct {
	Payment        *models.Payment
	EventCode      string
	PspReference   string
	PreviousStatus models.PaymentStatus
	Changed        bool
}

// Extract returns the payment named by the first item of a delivery.
func (s *AdyenService) Extract(ctx context.Context, body []byte) (*models.Payment, error) {
	items, err := adyen.ParseNotification(body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: delivery has no items", ErrPaymentNotFound)
	}
	return s.ResolvePayment(ctx, items[0].MerchantReference)
}

// ProcessCallback verifies and applies a notification delivery. Only the
// first item that is verified and recognised is acted upon. A nil result with
// a nil error means nothing in the delivery applied and it can be
// acknowledged.
func (s *AdyenService) ProcessCallback(ctx context.Context, body []byte) (*CallbackResult, error) {
	items, err := adyen.ParseNotification(body)
	if err != nil {
		s.log.Warn("WEBHOOK", fmt.Sprintf("Rejecting delivery: %v", err))
		return nil, err
	}

	for _, item := range items {
		result, err := s.processItem(ctx, item)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
	}

	s.log.LogWebhook("ACK", "-", fmt.Sprintf("No actionable item in delivery of %d", len(items)))
	return nil, nil
}

// processItem returns nil, nil when the item should be skipped.
func (s *AdyenService) processItem(ctx context.Context, item adyen.NotificationRequestItem) (*CallbackResult, error) {
	reference := item.MerchantReference

	outcome, err := s.verifyItem(ctx, item)
	if err != nil {
		return nil, err
	}
	if outcome != "" {
		s.metrics.WebhookItem(item.EventCode, outcome)
		return nil, nil
	}

	if s.locker != nil {
		release, ok, err := s.locker.Lock(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", reference, err)
		}
		if !ok {
			s.log.LogWebhook("BUSY", reference, "Another delivery holds the payment")
			return nil, fmt.Errorf("%w: %s", ErrPaymentBusy, reference)
		}
		defer release()
	}

	payment, err := s.ResolvePayment(ctx, reference)
	if err != nil {
		s.log.Error("WEBHOOK", fmt.Sprintf("Could not resolve %s: %v", reference, err))
		return nil, err
	}

	if payment.PaymentMethod == nil ||
		(item.MerchantAccountCode != "" && payment.PaymentMethod.MerchantAccount != item.MerchantAccountCode) {
		s.log.LogSecurity("MERCHANT", fmt.Sprintf("Item %s for %s was signed for another merchant account",
			item.PspReference, reference))
		s.metrics.WebhookItem(item.EventCode, metrics.OutcomeUnverifiable)
		return nil, nil
	}

	out := reconcile(payment, item)
	result := &CallbackResult{
		Payment:        payment,
		EventCode:      item.EventCode,
		PspReference:   item.PspReference,
		PreviousStatus: payment.Status,
	}

	switch out.action {
	case actionUnrecognized:
		s.log.LogWebhook(item.EventCode, reference, out.reason)
		s.metrics.WebhookItem(item.EventCode, metrics.OutcomeUnrecognized)
		return nil, nil

	case actionIgnored:
		s.log.LogWebhook(item.EventCode, reference, "Ignored, "+out.reason)
		s.metrics.WebhookItem(item.EventCode, metrics.OutcomeIgnored)
		return result, nil
	}

	payment.Status = out.status
	payment.TransactionID = out.transactionID
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		s.log.Error("WEBHOOK", fmt.Sprintf("Failed to persist %s as %s: %v", reference, out.status, err))
		return nil, fmt.Errorf("persist payment %s: %w", reference, err)
	}

	result.Changed = true
	s.log.LogWebhook(item.EventCode, reference, fmt.Sprintf("%s -> %s (psp %s)", result.PreviousStatus, payment.Status, item.PspReference))
	s.metrics.WebhookItem(item.EventCode, metrics.OutcomeProcessed)
	s.metrics.Transition(string(result.PreviousStatus), string(payment.Status))

	s.notifyOrders(ctx, out.eventType, payment)
	return result, nil
}

// verifyItem checks the item signature and returns an empty outcome when it
// holds. The key of the merchant account named in the item is tried first,
// then the key of the payment method the referenced payment was made with.
// Nothing is written before the signature holds.
func (s *AdyenService) verifyItem(ctx context.Context, item adyen.NotificationRequestItem) (string, error) {
	tried := ""
	if item.MerchantAccountCode != "" {
		method, err := s.credentials.FindPaymentMethodByMerchantAccount(ctx, item.MerchantAccountCode)
		switch {
		case err == nil:
			if adyen.IsValidHMAC(item, method.HmacKey) {
				return "", nil
			}
			tried = method.HmacKey
		case !errors.Is(err, storage.ErrNotFound):
			return "", fmt.Errorf("load credentials for %s: %w", item.MerchantAccountCode, err)
		}
	}

	payment, err := s.ResolvePayment(ctx, item.MerchantReference)
	if err != nil {
		s.log.Error("WEBHOOK", fmt.Sprintf("Could not resolve %s: %v", item.MerchantReference, err))
		return "", err
	}
	if payment.PaymentMethod == nil || payment.PaymentMethod.HmacKey == "" {
		s.log.LogSecurity("HMAC", fmt.Sprintf("No credentials for %s, cannot verify %s",
			item.MerchantReference, item.PspReference))
		return metrics.OutcomeUnverifiable, nil
	}
	if payment.PaymentMethod.HmacKey == tried || !adyen.IsValidHMAC(item, payment.PaymentMethod.HmacKey) {
		s.log.LogSecurity("HMAC", fmt.Sprintf("Failed verifying HMAC key for %s", item.PspReference))
		return metrics.OutcomeInvalidSignature, nil
	}
	return "", nil
}

// notifyOrders runs after the payment is saved. A failure is logged and does
// not undo the status change.
func (s *AdyenService) notifyOrders(ctx context.Context, eventType string, payment *models.Payment) {
	if s.orders == nil {
		return
	}
	if err := s.orders.ProcessPayment(ctx, models.NewPaymentEvent(eventType, payment)); err != nil {
		s.log.Error("ORDER", fmt.Sprintf("Downstream processing of %s for %s failed: %v", eventType, payment.ReferenceID, err))
	}
}
