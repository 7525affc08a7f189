package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validMethod() PaymentMethod {
	return PaymentMethod{
		ID:              "adyen",
		Name:            "Adyen",
		MerchantAccount: "ShopECOM",
		HmacKey:         "44782DEF547AAA06C910C43932B1EB0C71FC68D9D0C057550C48EC2ACF6BA056",
		APIKey:          "AQE-secret-key",
		Environment:     EnvironmentTest,
		ReturnURL:       "/checkout/return?ref={reference}",
	}
}

func TestPaymentMethodValidate(t *testing.T) {
	m := validMethod()
	assert.NoError(t, m.Validate())

	tests := []struct {
		name    string
		mutate  func(*PaymentMethod)
		wantMsg string
	}{
		{"missing merchant account", func(m *PaymentMethod) { m.MerchantAccount = "" }, "merchant account is required"},
		{"non hex hmac key", func(m *PaymentMethod) { m.HmacKey = "not-hex" }, "hex encoded"},
		{"missing hmac key", func(m *PaymentMethod) { m.HmacKey = "" }, "hmac key is required"},
		{"unknown environment", func(m *PaymentMethod) { m.Environment = "staging" }, "unknown environment"},
		{"live without prefix", func(m *PaymentMethod) { m.Environment = EnvironmentLive }, "url prefix"},
		{"missing return url", func(m *PaymentMethod) { m.ReturnURL = " " }, "return url is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := validMethod()
			tt.mutate(&m)
			err := m.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestPaymentMethodRedacted(t *testing.T) {
	m := validMethod()
	r := m.Redacted()

	assert.NotEqual(t, m.HmacKey, r.HmacKey)
	assert.Len(t, r.APIKey, len(m.APIKey))
	assert.Equal(t, "**********-key", r.APIKey)
	assert.Equal(t, m.MerchantAccount, r.MerchantAccount)
}

func TestCountryCode(t *testing.T) {
	assert.Equal(t, "GB", (&Address{Culture: "en-GB"}).CountryCode())
	assert.Equal(t, "DK", (&Address{Culture: "da-dk"}).CountryCode())
	assert.Equal(t, "", (*Address)(nil).CountryCode())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusAuthorized.IsTerminal())
	assert.True(t, StatusAcquired.IsTerminal())
	assert.True(t, StatusDeclined.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}
