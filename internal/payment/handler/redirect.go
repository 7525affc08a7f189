package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"

	"ms-payment/internal/payment/services"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	// encoding cost grows with the square of the edge
	maxQRSize = 1024
)

// HTTPRedirector answers the request with a 302 to the payment page.
type HTTPRedirector struct {
	w       http.ResponseWriter
	r       *http.Request
	written bool
}

func NewHTTPRedirector(w http.ResponseWriter, r *http.Request) *HTTPRedirector {
	return &HTTPRedirector{w: w, r: r}
}

func (h *HTTPRedirector) Redirect(url string) error {
	if h.written {
		return errors.New("response already written")
	}
	h.written = true
	http.Redirect(h.w, h.r, url, http.StatusFound)
	return nil
}

// QRRedirector answers with a PNG QR code of the payment page, for shoppers
// paying on another device.
type QRRedirector struct {
	w       http.ResponseWriter
	size    int
	written bool
}

func NewQRRedirector(w http.ResponseWriter, size int) *QRRedirector {
	switch {
	case size <= 0:
		size = defaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}
	return &QRRedirector{w: w, size: size}
}

func (q *QRRedirector) Redirect(url string) error {
	if q.written {
		return errors.New("response already written")
	}
	png, err := qrcode.Encode(url, qrcode.Medium, q.size)
	if err != nil {
		return fmt.Errorf("failed to encode qr code: %w", err)
	}

	q.written = true
	q.w.Header().Set("Content-Type", "image/png")
	q.w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	q.w.Header().Set("Cache-Control", "no-store")
	q.w.Header().Set("X-Payment-Url", url)
	q.w.WriteHeader(http.StatusOK)
	_, err = q.w.Write(png)
	return err
}

// Written reports whether the redirect reached the response.
func (h *HTTPRedirector) Written() bool { return h.written }

func (q *QRRedirector) Written() bool { return q.written }

var (
	_ services.Redirector = (*HTTPRedirector)(nil)
	_ services.Redirector = (*QRRedirector)(nil)
)
