package services

import (
	"errors"
	"io"

	"ms-payment/internal/logger"
	"ms-payment/internal/metrics"
)

// Dependencies wires an AdyenService. Locker, Orders and Metrics are
// optional; Factory defaults to NewPaymentFactory(Payments).
type Dependencies struct {
	Payments    PaymentRepository
	Credentials CredentialProvider
	Clients     GatewayClientFactory
	URLs        URLResolver
	Factory     PaymentFactory
	Locker      ReferenceLocker
	Orders      OrderProcessor
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// AdyenService verifies and reconciles gateway notifications and issues
// payment commands for one gateway integration.
type AdyenService struct {
	payments    PaymentRepository
	credentials CredentialProvider
	clients     GatewayClientFactory
	urls        URLResolver
	factory     PaymentFactory
	locker      ReferenceLocker
	orders      OrderProcessor
	metrics     *metrics.Metrics
	log         *logger.Logger
}

func NewAdyenService(deps Dependencies) (*AdyenService, error) {
	if deps.Payments == nil || deps.Credentials == nil || deps.Clients == nil || deps.URLs == nil {
		return nil, errors.New("payments, credentials, clients and urls are required")
	}

	s := &AdyenService{
		payments:    deps.Payments,
		credentials: deps.Credentials,
		clients:     deps.Clients,
		urls:        deps.URLs,
		factory:     deps.Factory,
		locker:      deps.Locker,
		orders:      deps.Orders,
		metrics:     deps.Metrics,
		log:         deps.Logger,
	}
	if s.factory == nil {
		s.factory = NewPaymentFactory(deps.Payments)
	}
	if s.log == nil {
		s.log = logger.New(io.Discard)
	}
	return s, nil
}

var _ PaymentGatewayIntegration = (*AdyenService)(nil)
