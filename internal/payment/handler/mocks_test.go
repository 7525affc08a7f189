package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/services"
)

func testLogger() *logger.Logger {
	return logger.New(io.Discard)
}

type MockProcessor struct {
	mock.Mock
	body []byte
}

func (m *MockProcessor) ProcessCallback(ctx context.Context, body []byte) (*services.CallbackResult, error) {
	m.body = body
	args := m.Called(ctx, body)
	result, _ := args.Get(0).(*services.CallbackResult)
	return result, args.Error(1)
}

type MockCommands struct {
	mock.Mock
}

func (m *MockCommands) ExecuteCommand(ctx context.Context, cmd models.PaymentCommand) (services.CommandResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(services.CommandResult), args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	args := m.Called(ctx, reference)
	payment, _ := args.Get(0).(*models.Payment)
	return payment, args.Error(1)
}

func (m *MockPayments) ListPaymentsByOrder(ctx context.Context, orderID string) ([]*models.Payment, error) {
	args := m.Called(ctx, orderID)
	payments, _ := args.Get(0).([]*models.Payment)
	return payments, args.Error(1)
}

func (m *MockPayments) GetPaymentMethod(ctx context.Context, id string) (*models.PaymentMethod, error) {
	args := m.Called(ctx, id)
	method, _ := args.Get(0).(*models.PaymentMethod)
	return method, args.Error(1)
}

// fakeInitiator calls the redirector with url unless err is set.
type fakeInitiator struct {
	url     string
	err     error
	request services.PaymentRequest
}

func (f *fakeInitiator) RequestPayment(ctx context.Context, req services.PaymentRequest, redirect services.Redirector) (*models.Payment, error) {
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	if err := redirect.Redirect(f.url); err != nil {
		return nil, err
	}
	return &models.Payment{ReferenceID: "R1", OrderID: req.PurchaseOrder.OrderID}, nil
}
