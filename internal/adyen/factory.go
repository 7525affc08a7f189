package adyen

import (
	"fmt"
	"net/http"
	"time"

	"ms-payment/internal/logger"
	"ms-payment/internal/models"
)

const (
	checkoutVersion = "v71"
	paymentVersion  = "v68"

	testCheckoutURL = "https://checkout-test.adyen.com/" + checkoutVersion
	testPaymentURL  = "https://pal-test.adyen.com/pal/servlet/Payment/" + paymentVersion
)

// Endpoints returns the checkout and payment base URLs for a method's
// environment.
func Endpoints(method *models.PaymentMethod) (checkout, payment string, err error) {
	switch method.Environment {
	case models.EnvironmentTest:
		return testCheckoutURL, testPaymentURL, nil
	case models.EnvironmentLive:
		if method.LiveURLPrefix == "" {
			return "", "", fmt.Errorf("payment method %q: live environment without url prefix", method.ID)
		}
		checkout = fmt.Sprintf("https://%s-checkout-live.adyenpayments.com/checkout/%s", method.LiveURLPrefix, checkoutVersion)
		payment = fmt.Sprintf("https://%s-pal-live.adyenpayments.com/pal/servlet/Payment/%s", method.LiveURLPrefix, paymentVersion)
		return checkout, payment, nil
	}
	return "", "", fmt.Errorf("payment method %q: unknown environment %q", method.ID, method.Environment)
}

// ClientFactory builds gateway clients keyed by payment method settings.
type ClientFactory struct {
	httpClient *http.Client
	logger     *logger.Logger
	// overrides Endpoints when set; used against local fakes.
	baseURLs func(*models.PaymentMethod) (string, string, error)
}

func NewClientFactory(timeout time.Duration, log *logger.Logger) *ClientFactory {
	return &ClientFactory{
		httpClient: &http.Client{Timeout: timeout},
		logger:     log,
		baseURLs:   Endpoints,
	}
}

// NewClientFactoryWithBaseURL sends every request to baseURL, whatever the
// method's environment.
func NewClientFactoryWithBaseURL(httpClient *http.Client, baseURL string, log *logger.Logger) *ClientFactory {
	return &ClientFactory{
		httpClient: httpClient,
		logger:     log,
		baseURLs: func(*models.PaymentMethod) (string, string, error) {
			return baseURL, baseURL, nil
		},
	}
}

func (f *ClientFactory) client(method *models.PaymentMethod) (*Client, error) {
	if method == nil {
		return nil, fmt.Errorf("payment method is required")
	}
	checkout, payment, err := f.baseURLs(method)
	if err != nil {
		return nil, err
	}
	return NewClient(f.httpClient, method.APIKey, checkout, payment, f.logger), nil
}

func (f *ClientFactory) Checkout(method *models.PaymentMethod) (CheckoutService, error) {
	return f.client(method)
}

func (f *ClientFactory) Modification(method *models.PaymentMethod) (ModificationService, error) {
	return f.client(method)
}
