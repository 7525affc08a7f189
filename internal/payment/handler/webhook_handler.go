package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-payment/internal/logger"
	"ms-payment/internal/payment/services"
)

// AcceptedResponse is the body the gateway expects for a delivered batch.
const AcceptedResponse = "[accepted]"

const defaultMaxBodyBytes = 1 << 20

type CallbackProcessor interface {
	ProcessCallback(ctx context.Context, body []byte) (*services.CallbackResult, error)
}

// WebhookError represents an error that occurred during webhook processing
type WebhookError struct {
	Category      string // "validation", "lookup", "integrity", "concurrency", "processing"
	StatusCode    int
	PublicError   string // Safe to expose to the gateway
	InternalError string // Detailed error for logs only
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

// classifyWebhookError maps a processing failure onto the response the
// gateway sees. Anything but 2xx makes the gateway redeliver.
func classifyWebhookError(err error) *WebhookError {
	we := &WebhookError{InternalError: err.Error(), OriginalErr: err}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		we.Category, we.StatusCode, we.PublicError = "validation", http.StatusRequestEntityTooLarge, "Notification too large"
	case errors.Is(err, services.ErrMalformedNotification):
		we.Category, we.StatusCode, we.PublicError = "validation", http.StatusBadRequest, "Invalid notification payload"
	case errors.Is(err, services.ErrPaymentNotFound):
		we.Category, we.StatusCode, we.PublicError = "lookup", http.StatusNotFound, "Unknown merchant reference"
	case errors.Is(err, services.ErrDataIntegrity):
		we.Category, we.StatusCode, we.PublicError = "integrity", http.StatusInternalServerError, "Webhook processing error"
	case errors.Is(err, services.ErrPaymentBusy):
		we.Category, we.StatusCode, we.PublicError = "concurrency", http.StatusServiceUnavailable, "Payment busy, retry later"
	default:
		we.Category, we.StatusCode, we.PublicError = "processing", http.StatusInternalServerError, "Webhook processing error"
	}
	return we
}

type WebhookHandler struct {
	Processor    CallbackProcessor
	MaxBodyBytes int64
	Logger       *logger.Logger
}

func NewWebhookHandler(processor CallbackProcessor, maxBodyBytes int64, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{Processor: processor, MaxBodyBytes: maxBodyBytes, Logger: log}
}

func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/adyen", h.AdyenWebhook)
}

// AdyenWebhook reads the delivery once and hands the raw bytes to the
// processor.
func (h *WebhookHandler) AdyenWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := h.MaxBodyBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err == nil {
		var result *services.CallbackResult
		result, err = h.Processor.ProcessCallback(r.Context(), body)
		if err == nil && result != nil {
			h.Logger.LogWebhook(result.EventCode, result.Payment.ReferenceID,
				fmt.Sprintf("Delivery handled, changed=%t", result.Changed))
		}
	}

	if err != nil {
		we := classifyWebhookError(err)
		h.Logger.Error("WEBHOOK", fmt.Sprintf("category=%s status=%d: %s", we.Category, we.StatusCode, we.InternalError))
		if we.StatusCode == http.StatusServiceUnavailable {
			w.Header().Set("Retry-After", "5")
		}
		http.Error(w, we.PublicError, we.StatusCode)
		h.Logger.LogAPI(r.Method, r.URL.Path, fmt.Sprint(we.StatusCode), time.Since(start).String())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(AcceptedResponse)); err != nil {
		h.Logger.Error("WEBHOOK", fmt.Sprintf("Failed to write acknowledgement: %v", err))
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, "200", time.Since(start).String())
}
