package models

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
)

const (
	EnvironmentTest = "test"
	EnvironmentLive = "live"
)

// PaymentMethod holds the merchant credentials and gateway settings of one
// configured payment method.
type PaymentMethod struct {
	bun.BaseModel `bun:"table:payment_methods"`

	ID              string `json:"id" bun:"id,pk"`
	Name            string `json:"name" bun:"name,notnull"`
	MerchantAccount string `json:"merchant_account" bun:"merchant_account,notnull"`
	HmacKey         string `json:"hmac_key" bun:"hmac_key,notnull"`
	APIKey          string `json:"api_key" bun:"api_key,notnull"`
	Environment     string `json:"environment" bun:"environment,notnull"`
	LiveURLPrefix   string `json:"live_url_prefix,omitempty" bun:"live_url_prefix,nullzero"`
	// ReturnURL may be relative and may contain a {reference} placeholder.
	ReturnURL string `json:"return_url" bun:"return_url,notnull"`
}

// Validate rejects settings that would only fail later at transaction time.
func (m *PaymentMethod) Validate() error {
	var errs []error
	if strings.TrimSpace(m.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if strings.TrimSpace(m.MerchantAccount) == "" {
		errs = append(errs, errors.New("merchant account is required"))
	}
	if strings.TrimSpace(m.APIKey) == "" {
		errs = append(errs, errors.New("api key is required"))
	}
	if strings.TrimSpace(m.ReturnURL) == "" {
		errs = append(errs, errors.New("return url is required"))
	}
	if m.HmacKey == "" {
		errs = append(errs, errors.New("hmac key is required"))
	} else if _, err := hex.DecodeString(m.HmacKey); err != nil {
		errs = append(errs, errors.New("hmac key must be hex encoded"))
	}
	switch m.Environment {
	case EnvironmentTest:
	case EnvironmentLive:
		if m.LiveURLPrefix == "" {
			errs = append(errs, errors.New("live environment requires a url prefix"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown environment %q", m.Environment))
	}

	if len(errs) > 0 {
		return fmt.Errorf("payment method %q: %w", m.ID, errors.Join(errs...))
	}
	return nil
}

// Redacted returns a copy with secrets masked, for diagnostics.
func (m PaymentMethod) Redacted() PaymentMethod {
	m.HmacKey = mask(m.HmacKey)
	m.APIKey = mask(m.APIKey)
	return m
}

func mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
