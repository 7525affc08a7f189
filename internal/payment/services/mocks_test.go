package services

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-payment/internal/adyen"
	"ms-payment/internal/logger"
	"ms-payment/internal/models"
)

const testHmacKey = "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056"

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindPaymentsByReference(ctx context.Context, reference string, limit int) ([]*models.Payment, error) {
	args := m.Called(ctx, reference, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePayment(ctx context.Context, payment *models.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

type MockCredentialProvider struct {
	mock.Mock
}

func (m *MockCredentialProvider) FindPaymentMethodByMerchantAccount(ctx context.Context, account string) (*models.PaymentMethod, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentMethod), args.Error(1)
}

type MockModificationService struct {
	mock.Mock
}

func (m *MockModificationService) result(args mock.Arguments) (*adyen.ModificationResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adyen.ModificationResult), args.Error(1)
}

func (m *MockModificationService) Capture(ctx context.Context, req adyen.ModificationRequest) (*adyen.ModificationResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockModificationService) Refund(ctx context.Context, req adyen.ModificationRequest) (*adyen.ModificationResult, error) {
	return m.result(m.Called(ctx, req))
}

func (m *MockModificationService) Cancel(ctx context.Context, req adyen.ModificationRequest) (*adyen.ModificationResult, error) {
	return m.result(m.Called(ctx, req))
}

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) PaymentLinks(ctx context.Context, req adyen.CreatePaymentLinkRequest) (*adyen.PaymentLinkResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*adyen.PaymentLinkResponse), args.Error(1)
}

// stubClients hands out the same mocks for every payment method.
type stubClients struct {
	checkout     *MockCheckoutService
	modification *MockModificationService
}

func (c *stubClients) Checkout(*models.PaymentMethod) (adyen.CheckoutService, error) {
	return c.checkout, nil
}

func (c *stubClients) Modification(*models.PaymentMethod) (adyen.ModificationService, error) {
	return c.modification, nil
}

type MockLocker struct {
	mock.Mock
	released int
}

func (m *MockLocker) Lock(ctx context.Context, reference string) (func(), bool, error) {
	args := m.Called(ctx, reference)
	return func() { m.released++ }, args.Bool(0), args.Error(1)
}

type MockOrderProcessor struct {
	mock.Mock
}

func (m *MockOrderProcessor) ProcessPayment(ctx context.Context, event models.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type recordingRedirector struct {
	urls []string
}

func (r *recordingRedirector) Redirect(url string) error {
	r.urls = append(r.urls, url)
	return nil
}

type fixture struct {
	service      *AdyenService
	payments     *MockPaymentRepository
	credentials  *MockCredentialProvider
	checkout     *MockCheckoutService
	modification *MockModificationService
	orders       *MockOrderProcessor
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		payments:     new(MockPaymentRepository),
		credentials:  new(MockCredentialProvider),
		checkout:     new(MockCheckoutService),
		modification: new(MockModificationService),
		orders:       new(MockOrderProcessor),
	}
	urls, err := NewBaseURLResolver("https://shop.example.com")
	require.NoError(t, err)

	f.service, err = NewAdyenService(Dependencies{
		Payments:    f.payments,
		Credentials: f.credentials,
		Clients:     &stubClients{checkout: f.checkout, modification: f.modification},
		URLs:        urls,
		Orders:      f.orders,
		Logger:      logger.New(io.Discard),
	})
	require.NoError(t, err)
	return f
}

func testMethod() *models.PaymentMethod {
	return &models.PaymentMethod{
		ID:              "adyen",
		Name:            "Adyen",
		MerchantAccount: "ShopECOM",
		HmacKey:         testHmacKey,
		APIKey:          "AQE-key",
		Environment:     models.EnvironmentTest,
		ReturnURL:       "/checkout/return?reference={reference}",
	}
}

func testPayment(reference string, status models.PaymentStatus) *models.Payment {
	return &models.Payment{
		PaymentID:       "pay-" + reference,
		ReferenceID:     reference,
		OrderID:         "order-1",
		PaymentMethodID: "adyen",
		Amount:          decimal.RequireFromString("19.99"),
		Currency:        "EUR",
		Status:          status,
		PaymentMethod:   testMethod(),
	}
}
