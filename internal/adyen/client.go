package adyen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ms-payment/internal/logger"
)

// CheckoutService creates hosted payment links.
type CheckoutService interface {
	PaymentLinks(ctx context.Context, req CreatePaymentLinkRequest) (*PaymentLinkResponse, error)
}

// ModificationService issues commands against an existing authorisation.
type ModificationService interface {
	Capture(ctx context.Context, req ModificationRequest) (*ModificationResult, error)
	Refund(ctx context.Context, req ModificationRequest) (*ModificationResult, error)
	Cancel(ctx context.Context, req ModificationRequest) (*ModificationResult, error)
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode int    `json:"status"`
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
	ErrorType  string `json:"errorType"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adyen: status %d, code %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// Client talks JSON to the checkout and classic payment endpoints with one
// API key. It implements both CheckoutService and ModificationService.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	checkoutURL string
	paymentURL  string
	logger      *logger.Logger
}

func NewClient(httpClient *http.Client, apiKey, checkoutURL, paymentURL string, log *logger.Logger) *Client {
	return &Client{
		httpClient:  httpClient,
		apiKey:      apiKey,
		checkoutURL: strings.TrimRight(checkoutURL, "/"),
		paymentURL:  strings.TrimRight(paymentURL, "/"),
		logger:      log,
	}
}

func (c *Client) PaymentLinks(ctx context.Context, req CreatePaymentLinkRequest) (*PaymentLinkResponse, error) {
	var out PaymentLinkResponse
	if err := c.post(ctx, c.checkoutURL+"/paymentLinks", req.Reference, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Capture(ctx context.Context, req ModificationRequest) (*ModificationResult, error) {
	return c.modify(ctx, "capture", req)
}

func (c *Client) Refund(ctx context.Context, req ModificationRequest) (*ModificationResult, error) {
	return c.modify(ctx, "refund", req)
}

func (c *Client) Cancel(ctx context.Context, req ModificationRequest) (*ModificationResult, error) {
	return c.modify(ctx, "cancel", req)
}

// modify keys the request on the original reference so a repeated command is
// deduplicated by the gateway.
func (c *Client) modify(ctx context.Context, command string, req ModificationRequest) (*ModificationResult, error) {
	var out ModificationResult
	key := req.OriginalReference + ":" + command
	if err := c.post(ctx, c.paymentURL+"/"+command, key, req, &out); err != nil {
		return nil, err
	}
	if c.logger != nil {
		c.logger.LogGateway(strings.ToUpper(command), req.OriginalReference, fmt.Sprintf("response %s", out.Response))
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, endpoint, idempotencyKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		if jsonErr := json.Unmarshal(respBody, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		apiErr.StatusCode = resp.StatusCode
		if c.logger != nil {
			c.logger.Error("GATEWAY", fmt.Sprintf("POST %s failed: %v", endpoint, apiErr))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
