package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-payment/internal/adyen"
	"ms-payment/internal/auth"
	"ms-payment/internal/models"
	"ms-payment/internal/payment/services"
	"ms-payment/internal/payment/storage"
	"ms-payment/internal/utils"
)

func newAdminRouter(commands CommandExecutor, payments PaymentLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/api/admin")
	group.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), "ops-1"))
	})
	NewAdminHandler(commands, payments, testLogger()).RegisterRoutes(group)
	return router
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var body utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAdminGetPayment(t *testing.T) {
	payments := new(MockPayments)
	payments.On("GetPaymentByReference", mock.Anything, "R1").Return(&models.Payment{
		ReferenceID:   "R1",
		Status:        models.StatusAuthorized,
		PaymentMethod: &models.PaymentMethod{HmacKey: "SECRET", APIKey: "SECRET"},
	}, nil)
	payments.On("GetPaymentByReference", mock.Anything, "R2").Return(nil, storage.ErrNotFound)
	router := newAdminRouter(new(MockCommands), payments)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/payments/R1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
	assert.Contains(t, rec.Body.String(), `"status":"authorized"`)
	assert.NotContains(t, rec.Body.String(), "SECRET")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/payments/R2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminListOrderPayments(t *testing.T) {
	payments := new(MockPayments)
	payments.On("ListPaymentsByOrder", mock.Anything, "order-1").
		Return([]*models.Payment{{ReferenceID: "R1"}, {ReferenceID: "R2"}}, nil)
	router := newAdminRouter(new(MockCommands), payments)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/orders/order-1/payments", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeResponse(t, rec).Data, 2)
}

func TestAdminCommandAccepted(t *testing.T) {
	commands := new(MockCommands)
	commands.On("ExecuteCommand", mock.Anything, models.PaymentCommand{
		ReferenceID: "R1", Command: models.CommandCapture, RequestedBy: "ops-1",
	}).Return(services.CommandResult{Success: true, Status: "[capture-received]"}, nil)
	router := newAdminRouter(commands, new(MockPayments))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/payments/R1/capture", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
	commands.AssertExpectations(t)
}

func TestAdminCommandRejectedByGateway(t *testing.T) {
	commands := new(MockCommands)
	commands.On("ExecuteCommand", mock.Anything, mock.Anything).
		Return(services.CommandResult{Success: false, Status: "[refused]"}, nil)
	router := newAdminRouter(commands, new(MockPayments))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/payments/R1/refund", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decodeResponse(t, rec)
	assert.False(t, body.Success)
	assert.Equal(t, "[refused]", body.Error)
}

func TestAdminCommandErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: R1", services.ErrPaymentNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: cancel on acquired", services.ErrInvalidState), http.StatusConflict},
		{services.ErrMissingTransaction, http.StatusConflict},
		{services.ErrPaymentBusy, http.StatusServiceUnavailable},
		{&adyen.APIError{StatusCode: 422, ErrorCode: "167"}, http.StatusBadGateway},
		{errors.New("db down"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		commands := new(MockCommands)
		commands.On("ExecuteCommand", mock.Anything, mock.Anything).Return(services.CommandResult{}, tc.err)
		router := newAdminRouter(commands, new(MockPayments))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/payments/R1/cancel", nil))

		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.NotContains(t, rec.Body.String(), "db down")
	}
}
