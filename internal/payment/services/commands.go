package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ms-payment/internal/adyen"
	"ms-payment/internal/models"
)

// CommandResult is the gateway's answer to a modification. A rejected
// command is Success false with the gateway status, not an error.
type CommandResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

type commandSpec struct {
	accepted   []adyen.ResponseCode
	withAmount bool
	// status the payment moves to once the gateway accepts
	target models.PaymentStatus
	// statuses the command may be issued from
	from      []models.PaymentStatus
	eventType string
}

var commandSpecs = map[models.CommandType]commandSpec{
	models.CommandCapture: {
		accepted:   []adyen.ResponseCode{adyen.CaptureReceived},
		withAmount: true,
		target:     models.StatusAcquired,
		from:       []models.PaymentStatus{models.StatusAuthorized},
		eventType:  models.EventPaymentAcquired,
	},
	models.CommandRefund: {
		accepted:   []adyen.ResponseCode{adyen.RefundReceived, adyen.CancelOrRefundReceived},
		withAmount: true,
		target:     models.StatusRefunded,
		from:       []models.PaymentStatus{models.StatusAcquired},
		eventType:  models.EventPaymentRefunded,
	},
	models.CommandCancel: {
		accepted:  []adyen.ResponseCode{adyen.CancelReceived, adyen.CancelOrRefundReceived},
		target:    models.StatusCancelled,
		from:      []models.PaymentStatus{models.StatusAuthorized},
		eventType: models.EventPaymentCancelled,
	},
}

func (s *AdyenService) Capture(ctx context.Context, payment *models.Payment) (CommandResult, error) {
	return s.dispatch(ctx, payment, models.CommandCapture)
}

func (s *AdyenService) Refund(ctx context.Context, payment *models.Payment) (CommandResult, error) {
	return s.dispatch(ctx, payment, models.CommandRefund)
}

func (s *AdyenService) Cancel(ctx context.Context, payment *models.Payment) (CommandResult, error) {
	return s.dispatch(ctx, payment, models.CommandCancel)
}

// dispatch sends one modification to the gateway. It never changes payment.
func (s *AdyenService) dispatch(ctx context.Context, payment *models.Payment, command models.CommandType) (CommandResult, error) {
	spec, ok := commandSpecs[command]
	if !ok {
		return CommandResult{}, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	method := payment.PaymentMethod
	if method == nil || strings.TrimSpace(method.MerchantAccount) == "" {
		return CommandResult{}, fmt.Errorf("%w: no merchant account for payment %s", ErrInvalidConfiguration, payment.ReferenceID)
	}
	if payment.TransactionID == "" {
		return CommandResult{}, fmt.Errorf("%w: %s", ErrMissingTransaction, payment.ReferenceID)
	}

	client, err := s.clients.Modification(method)
	if err != nil {
		return CommandResult{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	req := adyen.ModificationRequest{
		MerchantAccount:   method.MerchantAccount,
		OriginalReference: payment.TransactionID,
		Reference:         payment.ReferenceID,
	}
	if spec.withAmount {
		req.ModificationAmount = &adyen.Amount{
			Currency: payment.Currency,
			Value:    ToMinorUnits(payment.Amount, payment.Currency),
		}
	}

	s.log.LogGateway(strings.ToUpper(string(command)), payment.ReferenceID,
		fmt.Sprintf("Sending against %s", payment.TransactionID))

	start := time.Now()
	var res *adyen.ModificationResult
	switch command {
	case models.CommandCapture:
		res, err = client.Capture(ctx, req)
	case models.CommandRefund:
		res, err = client.Refund(ctx, req)
	case models.CommandCancel:
		res, err = client.Cancel(ctx, req)
	}
	if err != nil {
		s.metrics.Command(string(command), "error", time.Since(start))
		return CommandResult{}, err
	}

	result := CommandResult{Success: accepts(spec.accepted, res.Response), Status: res.Response.Name()}
	if result.Success {
		s.metrics.Command(string(command), "success", time.Since(start))
	} else {
		s.metrics.Command(string(command), "rejected", time.Since(start))
		s.log.Warn("GATEWAY", fmt.Sprintf("%s for %s not accepted: %s", command, payment.ReferenceID, result.Status))
	}
	return result, nil
}

func accepts(accepted []adyen.ResponseCode, code adyen.ResponseCode) bool {
	for _, c := range accepted {
		if c == code {
			return true
		}
	}
	return false
}

// ExecuteCommand runs an order-system command end to end: resolve, dispatch
// and, when the gateway accepts, persist and publish the new status.
func (s *AdyenService) ExecuteCommand(ctx context.Context, cmd models.PaymentCommand) (CommandResult, error) {
	spec, ok := commandSpecs[cmd.Command]
	if !ok {
		return CommandResult{}, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}

	if s.locker != nil {
		release, ok, err := s.locker.Lock(ctx, cmd.ReferenceID)
		if err != nil {
			return CommandResult{}, fmt.Errorf("lock %s: %w", cmd.ReferenceID, err)
		}
		if !ok {
			return CommandResult{}, fmt.Errorf("%w: %s", ErrPaymentBusy, cmd.ReferenceID)
		}
		defer release()
	}

	payment, err := s.ResolvePayment(ctx, cmd.ReferenceID)
	if err != nil {
		return CommandResult{}, err
	}

	if payment.Status == spec.target {
		s.log.LogGateway(strings.ToUpper(string(cmd.Command)), cmd.ReferenceID, "Already "+string(spec.target))
		// answer a replay the way the gateway answered the original
		return CommandResult{Success: true, Status: spec.accepted[0].Name()}, nil
	}
	if !allowed(spec.from, payment.Status) {
		return CommandResult{}, fmt.Errorf("%w: %s on %s payment %s", ErrInvalidState, cmd.Command, payment.Status, cmd.ReferenceID)
	}

	result, err := s.dispatch(ctx, payment, cmd.Command)
	if err != nil || !result.Success {
		return result, err
	}

	previous := payment.Status
	payment.Status = spec.target
	if err := s.payments.UpdatePayment(ctx, payment); err != nil {
		s.log.Error("GATEWAY", fmt.Sprintf("%s accepted for %s but status not saved: %v", cmd.Command, cmd.ReferenceID, err))
		return result, fmt.Errorf("persist payment %s: %w", cmd.ReferenceID, err)
	}
	s.metrics.Transition(string(previous), string(payment.Status))
	s.log.Info("GATEWAY", fmt.Sprintf("%s %s -> %s (requested by %s)", cmd.ReferenceID, previous, payment.Status, requester(cmd)))

	s.notifyOrders(ctx, spec.eventType, payment)
	return result, nil
}

func allowed(from []models.PaymentStatus, status models.PaymentStatus) bool {
	for _, f := range from {
		if f == status {
			return true
		}
	}
	return false
}

func requester(cmd models.PaymentCommand) string {
	if cmd.RequestedBy == "" {
		return "unknown"
	}
	return cmd.RequestedBy
}
