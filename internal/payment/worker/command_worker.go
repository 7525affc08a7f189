package worker

import (
	"context"
	"errors"
	"fmt"

	"ms-payment/internal/logger"
	"ms-payment/internal/metrics"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/services"
)

type CommandExecutor interface {
	ExecuteCommand(ctx context.Context, cmd models.PaymentCommand) (services.CommandResult, error)
}

type CommandSource interface {
	Start(ctx context.Context, handler func(ctx context.Context, cmd models.PaymentCommand) error) error
}

// CommandWorker executes payment commands sent by the order system.
type CommandWorker struct {
	executor CommandExecutor
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewCommandWorker(executor CommandExecutor, m *metrics.Metrics, log *logger.Logger) *CommandWorker {
	return &CommandWorker{executor: executor, metrics: m, log: log}
}

// Handle returns an error only when retrying the command can help. Refused
// commands and commands that can never apply are logged and dropped.
func (w *CommandWorker) Handle(ctx context.Context, cmd models.PaymentCommand) error {
	result, err := w.executor.ExecuteCommand(ctx, cmd)
	switch {
	case err == nil && result.Success:
		w.metrics.CommandMessage(string(cmd.Command), "accepted")
		w.log.Info("WORKER", fmt.Sprintf("%s for %s accepted (%s)", cmd.Command, cmd.ReferenceID, result.Status))
		return nil

	case err == nil:
		w.metrics.CommandMessage(string(cmd.Command), "refused")
		w.log.Warn("WORKER", fmt.Sprintf("%s for %s refused by gateway: %s", cmd.Command, cmd.ReferenceID, result.Status))
		return nil

	case permanent(err):
		w.metrics.CommandMessage(string(cmd.Command), "dropped")
		w.log.Error("WORKER", fmt.Sprintf("Dropping %s for %s: %v", cmd.Command, cmd.ReferenceID, err))
		return nil
	}

	w.metrics.CommandMessage(string(cmd.Command), "retry")
	return err
}

// Run consumes commands from source until ctx is done.
func (w *CommandWorker) Run(ctx context.Context, source CommandSource) error {
	return source.Start(ctx, w.Handle)
}

func permanent(err error) bool {
	return errors.Is(err, services.ErrUnknownCommand) ||
		errors.Is(err, services.ErrInvalidState) ||
		errors.Is(err, services.ErrPaymentNotFound) ||
		errors.Is(err, services.ErrDataIntegrity) ||
		errors.Is(err, services.ErrMissingTransaction) ||
		errors.Is(err, services.ErrInvalidConfiguration)
}
