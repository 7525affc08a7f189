package adyen

// Notification is the webhook envelope posted by the gateway.
type Notification struct {
	Live              string                  `json:"live"`
	NotificationItems []NotificationContainer `json:"notificationItems"`
}

type NotificationContainer struct {
	Item NotificationRequestItem `json:"NotificationRequestItem"`
}

// NotificationRequestItem is one gateway-reported event. Success is the
// literal string "true" or "false" on the wire.
type NotificationRequestItem struct {
	AdditionalData      map[string]string `json:"additionalData,omitempty"`
	Amount              Amount            `json:"amount"`
	EventCode           string            `json:"eventCode"`
	EventDate           string            `json:"eventDate,omitempty"`
	MerchantAccountCode string            `json:"merchantAccountCode"`
	MerchantReference   string            `json:"merchantReference"`
	OriginalReference   string            `json:"originalReference,omitempty"`
	PspReference        string            `json:"pspReference"`
	Reason              string            `json:"reason,omitempty"`
	Success             string            `json:"success"`
}

func (i NotificationRequestItem) IsSuccess() bool {
	return i.Success == "true"
}

const (
	EventAuthorisation = "AUTHORISATION"
	EventCapture       = "CAPTURE"
	EventRefund        = "REFUND"
	EventCancellation  = "CANCELLATION"
)

type Amount struct {
	Currency string `json:"currency"`
	Value    int64  `json:"value"`
}

type Name struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

type CreatePaymentLinkRequest struct {
	Amount           Amount            `json:"amount"`
	MerchantAccount  string            `json:"merchantAccount"`
	Reference        string            `json:"reference"`
	ReturnURL        string            `json:"returnUrl,omitempty"`
	ShopperEmail     string            `json:"shopperEmail,omitempty"`
	ShopperReference string            `json:"shopperReference,omitempty"`
	ShopperName      *Name             `json:"shopperName,omitempty"`
	CountryCode      string            `json:"countryCode,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
}

type PaymentLinkResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// ModificationRequest is shared by capture, refund and cancel. Cancel leaves
// ModificationAmount nil.
type ModificationRequest struct {
	MerchantAccount    string  `json:"merchantAccount"`
	ModificationAmount *Amount `json:"modificationAmount,omitempty"`
	OriginalReference  string  `json:"originalReference"`
	Reference          string  `json:"reference,omitempty"`
}

type ModificationResult struct {
	PSPReference string       `json:"pspReference"`
	Response     ResponseCode `json:"response"`
}
