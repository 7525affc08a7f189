package services

import (
	"ms-payment/internal/adyen"
	"ms-payment/internal/models"
)

type action int

const (
	// no change; the next item in the delivery is examined
	actionUnrecognized action = iota
	// recognised but nothing to change: terminal payment or duplicate delivery
	actionIgnored
	actionTransition
)

type outcome struct {
	action        action
	status        models.PaymentStatus
	transactionID string
	eventType     string
	reason        string
}

// reconcile computes what item does to payment without mutating it.
func reconcile(payment *models.Payment, item adyen.NotificationRequestItem) outcome {
	if payment.Status.IsTerminal() {
		return outcome{action: actionIgnored, reason: "payment is " + string(payment.Status)}
	}

	if !item.IsSuccess() {
		return outcome{
			action:        actionTransition,
			status:        models.StatusDeclined,
			transactionID: payment.TransactionID,
			eventType:     models.EventPaymentDeclined,
		}
	}

	switch item.EventCode {
	case adyen.EventAuthorisation:
		if payment.Status == models.StatusAuthorized {
			return outcome{action: actionIgnored, reason: "already authorized"}
		}
		return outcome{
			action:        actionTransition,
			status:        models.StatusAuthorized,
			transactionID: firstNonEmpty(payment.TransactionID, item.PspReference),
			eventType:     models.EventPaymentAuthorized,
		}
	case adyen.EventCapture:
		// capture notifications carry the authorisation as originalReference
		return outcome{
			action:        actionTransition,
			status:        models.StatusAcquired,
			transactionID: firstNonEmpty(payment.TransactionID, item.OriginalReference, item.PspReference),
			eventType:     models.EventPaymentAcquired,
		}
	}

	return outcome{action: actionUnrecognized, reason: "unhandled event code " + item.EventCode}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
