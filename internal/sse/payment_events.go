package sse

import (
	"context"
	"sync"

	"ms-payment/internal/models"
)

// PaymentEventEmitter fans payment status changes out to SSE clients
// watching a payment reference.
type PaymentEventEmitter struct {
	// key: payment reference, value: client channels
	clients map[string][]chan models.PaymentEvent
	mu      sync.RWMutex
}

func NewPaymentEventEmitter() *PaymentEventEmitter {
	return &PaymentEventEmitter{
		clients: make(map[string][]chan models.PaymentEvent),
	}
}

// Subscribe registers a client for reference until ctx is done, after which
// the returned channel is closed.
func (e *PaymentEventEmitter) Subscribe(ctx context.Context, reference string) <-chan models.PaymentEvent {
	clientChan := make(chan models.PaymentEvent, 10)

	e.mu.Lock()
	e.clients[reference] = append(e.clients[reference], clientChan)
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.remove(reference, clientChan)
	}()

	return clientChan
}

// Emit broadcasts event to every subscriber of its reference.
func (e *PaymentEventEmitter) Emit(event models.PaymentEvent) {
	// held for the sends so remove cannot close a channel mid-send
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, clientChan := range e.clients[event.ReferenceID] {
		// slow clients miss events rather than stall the webhook
		select {
		case clientChan <- event:
		default:
		}
	}
}

func (e *PaymentEventEmitter) remove(reference string, clientChan chan models.PaymentEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	clients := e.clients[reference]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[reference] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[reference]) == 0 {
		delete(e.clients, reference)
	}
}

// ClientCount returns the number of clients watching reference.
func (e *PaymentEventEmitter) ClientCount(reference string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.clients[reference])
}
