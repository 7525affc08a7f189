package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is the order system's view of the order being paid. It is not
// stored by this service.
type PurchaseOrder struct {
	OrderID        string          `json:"order_id" binding:"required"`
	OrderNumber    string          `json:"order_number"`
	Currency       string          `json:"currency" binding:"required"`
	Amount         decimal.Decimal `json:"amount"`
	Customer       *Customer       `json:"customer,omitempty"`
	BillingAddress *Address        `json:"billing_address,omitempty"`
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// Culture is a locale such as en-GB.
	Culture string `json:"culture"`
}

// CountryCode takes the region part of the billing culture, "en-GB" -> "GB".
func (a *Address) CountryCode() string {
	if a == nil || a.Culture == "" {
		return ""
	}
	parts := strings.Split(a.Culture, "-")
	return strings.ToUpper(parts[len(parts)-1])
}
