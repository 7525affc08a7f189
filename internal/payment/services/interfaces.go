package services

import (
	"context"

	"ms-payment/internal/adyen"
	"ms-payment/internal/models"
)

// PaymentGatewayIntegration is the contract the order system drives a
// payment method through.
type PaymentGatewayIntegration interface {
	Extract(ctx context.Context, body []byte) (*models.Payment, error)
	ProcessCallback(ctx context.Context, body []byte) (*CallbackResult, error)
	RequestPayment(ctx context.Context, req PaymentRequest, redirect Redirector) (*models.Payment, error)
	Capture(ctx context.Context, payment *models.Payment) (CommandResult, error)
	Refund(ctx context.Context, payment *models.Payment) (CommandResult, error)
	Cancel(ctx context.Context, payment *models.Payment) (CommandResult, error)
}

type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	FindPaymentsByReference(ctx context.Context, reference string, limit int) ([]*models.Payment, error)
	UpdatePayment(ctx context.Context, payment *models.Payment) error
}

// CredentialProvider looks up merchant credentials. Unknown accounts are
// reported as storage.ErrNotFound.
type CredentialProvider interface {
	FindPaymentMethodByMerchantAccount(ctx context.Context, merchantAccount string) (*models.PaymentMethod, error)
}

type GatewayClientFactory interface {
	Checkout(method *models.PaymentMethod) (adyen.CheckoutService, error)
	Modification(method *models.PaymentMethod) (adyen.ModificationService, error)
}

type URLResolver interface {
	Absolute(path string) (string, error)
}

// Redirector sends the shopper to url. Implementations own the response.
type Redirector interface {
	Redirect(url string) error
}

type PaymentFactory interface {
	NewPayment(ctx context.Context, req PaymentRequest) (*models.Payment, error)
}

// OrderProcessor is told about every persisted status change.
type OrderProcessor interface {
	ProcessPayment(ctx context.Context, event models.PaymentEvent) error
}

type ReferenceLocker interface {
	Lock(ctx context.Context, reference string) (release func(), ok bool, err error)
}
