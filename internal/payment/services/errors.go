package services

import (
	"errors"

	"ms-payment/internal/adyen"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrDataIntegrity        = errors.New("data integrity violation")
	ErrRedirectUnavailable  = errors.New("could not redirect to payment page")
	ErrInvalidConfiguration = errors.New("invalid payment method configuration")
	ErrPaymentBusy          = errors.New("payment is being processed by another request")
	ErrMissingTransaction   = errors.New("payment has no gateway transaction id")
	ErrRenderNotSupported   = errors.New("payment page is hosted by the gateway, use RequestPayment")
	ErrUnknownCommand       = errors.New("unknown payment command")
	ErrInvalidState         = errors.New("command not allowed in current payment status")

	ErrMalformedNotification = adyen.ErrMalformedNotification
)
