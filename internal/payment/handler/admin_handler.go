package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"ms-payment/internal/adyen"
	"ms-payment/internal/auth"
	"ms-payment/internal/logger"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/services"
	"ms-payment/internal/payment/storage"
	"ms-payment/internal/utils"
)

type CommandExecutor interface {
	ExecuteCommand(ctx context.Context, cmd models.PaymentCommand) (services.CommandResult, error)
}

type PaymentLister interface {
	PaymentReader
	ListPaymentsByOrder(ctx context.Context, orderID string) ([]*models.Payment, error)
}

// AdminHandler is the back-office API for looking at payments and moving
// money on them.
type AdminHandler struct {
	commands CommandExecutor
	payments PaymentLister
	logger   *logger.Logger
}

func NewAdminHandler(commands CommandExecutor, payments PaymentLister, log *logger.Logger) *AdminHandler {
	return &AdminHandler{commands: commands, payments: payments, logger: log}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/payments/:reference", h.GetPayment)
	rg.POST("/payments/:reference/capture", h.command(models.CommandCapture))
	rg.POST("/payments/:reference/refund", h.command(models.CommandRefund))
	rg.POST("/payments/:reference/cancel", h.command(models.CommandCancel))
	rg.GET("/orders/:orderId/payments", h.ListOrderPayments)
}

func (h *AdminHandler) GetPayment(c *gin.Context) {
	reference := c.Param("reference")

	payment, err := h.payments.GetPaymentByReference(c.Request.Context(), reference)
	if errors.Is(err, storage.ErrNotFound) {
		utils.RespondError(c, http.StatusNotFound, "Payment not found", "no payment with reference "+reference)
		return
	}
	if err != nil {
		h.logger.Error("API", fmt.Sprintf("GetPayment %s: %v", reference, err))
		utils.RespondError(c, http.StatusInternalServerError, "Failed to load payment", "internal error")
		return
	}
	utils.RespondOK(c, http.StatusOK, "Payment retrieved", payment)
}

func (h *AdminHandler) ListOrderPayments(c *gin.Context) {
	orderID := c.Param("orderId")

	payments, err := h.payments.ListPaymentsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("API", fmt.Sprintf("ListOrderPayments %s: %v", orderID, err))
		utils.RespondError(c, http.StatusInternalServerError, "Failed to list payments", "internal error")
		return
	}
	utils.RespondOK(c, http.StatusOK, "Payments retrieved", payments)
}

func (h *AdminHandler) command(command models.CommandType) gin.HandlerFunc {
	return func(c *gin.Context) {
		cmd := models.PaymentCommand{
			ReferenceID: c.Param("reference"),
			Command:     command,
			RequestedBy: auth.UserID(c.Request.Context()),
		}

		result, err := h.commands.ExecuteCommand(c.Request.Context(), cmd)
		if err != nil {
			status, message := commandErrorStatus(err)
			h.logger.Error("API", fmt.Sprintf("%s %s by %s: %v", command, cmd.ReferenceID, cmd.RequestedBy, err))
			detail := err.Error()
			if status == http.StatusInternalServerError {
				detail = "internal error"
			}
			utils.RespondError(c, status, message, detail)
			return
		}

		if !result.Success {
			resp := utils.ErrorResponse("Gateway rejected "+string(command), result.Status)
			resp.Data = result
			c.JSON(http.StatusUnprocessableEntity, resp)
			return
		}
		utils.RespondOK(c, http.StatusOK, fmt.Sprintf("Payment %s accepted", command), result)
	}
}

func commandErrorStatus(err error) (int, string) {
	var apiErr *adyen.APIError
	switch {
	case errors.Is(err, services.ErrPaymentNotFound):
		return http.StatusNotFound, "Payment not found"
	case errors.Is(err, services.ErrInvalidState), errors.Is(err, services.ErrMissingTransaction),
		errors.Is(err, storage.ErrConcurrentUpdate):
		return http.StatusConflict, "Command not allowed"
	case errors.Is(err, services.ErrPaymentBusy):
		return http.StatusServiceUnavailable, "Payment busy"
	case errors.As(err, &apiErr):
		return http.StatusBadGateway, "Gateway error"
	default:
		return http.StatusInternalServerError, "Command failed"
	}
}
