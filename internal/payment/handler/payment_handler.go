package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ms-payment/internal/adyen"
	"ms-payment/internal/logger"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/services"
	"ms-payment/internal/payment/storage"
	"ms-payment/internal/sse"
)

type PaymentInitiator interface {
	RequestPayment(ctx context.Context, req services.PaymentRequest, redirect services.Redirector) (*models.Payment, error)
}

type PaymentMethodProvider interface {
	GetPaymentMethod(ctx context.Context, id string) (*models.PaymentMethod, error)
}

type PaymentReader interface {
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
}

// CreatePaymentRequest is the storefront's checkout call. Amount defaults to
// the order total.
type CreatePaymentRequest struct {
	PaymentMethodID string               `json:"payment_method_id,omitempty"`
	Amount          decimal.Decimal      `json:"amount"`
	Order           models.PurchaseOrder `json:"order"`
}

type PaymentHandler struct {
	Payments        PaymentInitiator
	Methods         PaymentMethodProvider
	Reader          PaymentReader
	Events          *sse.PaymentEventEmitter
	DefaultMethodID string
	Logger          *logger.Logger
}

func (h *PaymentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/payments", func(r chi.Router) {
		r.Post("/", h.CreatePayment)
		r.Get("/{reference}/events", h.StreamPaymentEvents)
	})
}

// CreatePayment sends the shopper to the gateway's hosted page, as a 302 or,
// with ?render=qr, as a QR code of the page.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Logger.Warn("API", fmt.Sprintf("CreatePayment: invalid payload: %v", err))
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if req.Order.OrderID == "" || req.Order.Currency == "" {
		http.Error(w, "order.order_id and order.currency are required", http.StatusBadRequest)
		return
	}
	if req.Amount.IsNegative() || (req.Amount.IsZero() && !req.Order.Amount.IsPositive()) {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}

	qrSize, err := qrSizeParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	methodID := req.PaymentMethodID
	if methodID == "" {
		methodID = h.DefaultMethodID
	}
	method, err := h.Methods.GetPaymentMethod(r.Context(), methodID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Unknown payment method", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePayment: failed to load payment method %s: %v", methodID, err))
		http.Error(w, "Payment initiation failed", http.StatusInternalServerError)
		return
	}

	redirect := h.redirector(w, r, qrSize)
	payment, err := h.Payments.RequestPayment(r.Context(), services.PaymentRequest{
		PurchaseOrder: req.Order,
		PaymentMethod: method,
		Amount:        req.Amount,
	}, redirect)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreatePayment: order %s: %v", req.Order.OrderID, err))
		if !redirect.Written() {
			http.Error(w, "Payment initiation failed", paymentErrorStatus(err))
		}
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreatePayment: order %s redirected with reference %s", req.Order.OrderID, payment.ReferenceID))
}

type writtenRedirector interface {
	services.Redirector
	Written() bool
}

func (h *PaymentHandler) redirector(w http.ResponseWriter, r *http.Request, qrSize int) writtenRedirector {
	if wantsQR(r) {
		return NewQRRedirector(w, qrSize)
	}
	return NewHTTPRedirector(w, r)
}

func wantsQR(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("render"), "qr")
}

// qrSizeParam reads the optional ?size of a QR render. Zero means default.
func qrSizeParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("size")
	if !wantsQR(r) || raw == "" {
		return 0, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < minQRSize || size > maxQRSize {
		return 0, fmt.Errorf("size must be between %d and %d", minQRSize, maxQRSize)
	}
	return size, nil
}

func paymentErrorStatus(err error) int {
	var apiErr *adyen.APIError
	switch {
	case errors.As(err, &apiErr), errors.Is(err, services.ErrRedirectUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StreamPaymentEvents pushes status changes of one payment to the browser
// waiting on the return page.
func (h *PaymentHandler) StreamPaymentEvents(w http.ResponseWriter, r *http.Request) {
	reference := chi.URLParam(r, "reference")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// subscribe before loading so a change landing in between is not lost
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	events := h.Events.Subscribe(ctx, reference)

	current, err := h.Reader.GetPaymentByReference(ctx, reference)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Payment not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Failed to load payment %s: %v", reference, err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// the stream outlives the server's write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "status", models.NewPaymentEvent("payment.status", current)); err != nil {
		return
	}
	flusher.Flush()
	if current.Status.IsTerminal() {
		return
	}
	h.Logger.Debug("SSE", fmt.Sprintf("Client subscribed to payment %s", reference))

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, "payment", event); err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to write event for %s: %v", reference, err))
				return
			}
			flusher.Flush()
			if event.Status.IsTerminal() {
				return
			}
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from payment %s", reference))
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
