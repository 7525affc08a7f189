package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"ms-payment/internal/adyen"
	"ms-payment/internal/models"
)

// PaymentRequest asks for a hosted payment page for an order. Payment is
// created by the PaymentFactory when nil. A zero Amount means the order total.
type PaymentRequest struct {
	PurchaseOrder models.PurchaseOrder
	PaymentMethod *models.PaymentMethod
	Amount        decimal.Decimal
	Payment       *models.Payment
}

func (r PaymentRequest) amount() decimal.Decimal {
	if r.Amount.IsZero() {
		return r.PurchaseOrder.Amount
	}
	return r.Amount
}

// RequestPayment creates a payment link at the gateway and hands its URL to
// redirect.
func (s *AdyenService) RequestPayment(ctx context.Context, req PaymentRequest, redirect Redirector) (*models.Payment, error) {
	method := req.PaymentMethod
	if method == nil || strings.TrimSpace(method.MerchantAccount) == "" {
		return nil, fmt.Errorf("%w: payment method has no merchant account", ErrInvalidConfiguration)
	}

	if req.Payment == nil {
		payment, err := s.factory.NewPayment(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("create payment: %w", err)
		}
		req.Payment = payment
	}
	payment := req.Payment

	returnURL, err := s.urls.Absolute(strings.ReplaceAll(method.ReturnURL, "{reference}", url.QueryEscape(payment.ReferenceID)))
	if err != nil {
		return nil, fmt.Errorf("%w: return url: %v", ErrInvalidConfiguration, err)
	}

	order := req.PurchaseOrder
	linkReq := adyen.CreatePaymentLinkRequest{
		Amount: adyen.Amount{
			Currency: order.Currency,
			Value:    ToMinorUnits(req.amount(), order.Currency),
		},
		MerchantAccount: method.MerchantAccount,
		Reference:       payment.ReferenceID,
		ReturnURL:       returnURL,
		CountryCode:     order.BillingAddress.CountryCode(),
		Metadata: map[string]string{
			"orderReference": payment.ReferenceID,
			"orderId":        order.OrderID,
			"orderNumber":    order.OrderNumber,
		},
	}
	if order.Customer != nil {
		linkReq.ShopperEmail = order.Customer.Email
		linkReq.ShopperReference = order.Customer.ID
	}
	if order.BillingAddress != nil {
		linkReq.ShopperName = &adyen.Name{FirstName: order.BillingAddress.FirstName, LastName: order.BillingAddress.LastName}
	}

	checkout, err := s.clients.Checkout(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	link, err := checkout.PaymentLinks(ctx, linkReq)
	if err != nil {
		s.metrics.PaymentLink("error")
		s.log.Error("GATEWAY", fmt.Sprintf("Payment link request for %s failed: %v", payment.ReferenceID, err))
		return nil, err
	}
	if link == nil || strings.TrimSpace(link.URL) == "" {
		s.metrics.PaymentLink("unavailable")
		return nil, fmt.Errorf("%w: gateway returned no url for %s", ErrRedirectUnavailable, payment.ReferenceID)
	}

	s.metrics.PaymentLink("success")
	s.log.LogGateway("LINK", payment.ReferenceID, fmt.Sprintf("Payment link %s created for order %s", link.ID, order.OrderID))

	if err := redirect.Redirect(link.URL); err != nil {
		return nil, fmt.Errorf("redirect %s: %w", payment.ReferenceID, err)
	}
	return payment, nil
}

// RenderPage is not available; the shopper always pays on the gateway's page.
func (s *AdyenService) RenderPage(ctx context.Context, req PaymentRequest) (string, error) {
	return "", ErrRenderNotSupported
}
