package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sokopay/internal/models/request_models"
	"sokopay/internal/models/response_models"
	"sokopay/internal/services"
	mem "sokopay/pkg/memcache"
	"sokopay/pkg/utils"
)

type PaymentController struct {
	paymentService  services.PaymentServiceInterface
	callbackService services.CallbackServiceInterface
	notifications   mem.NotificationStore
}

func NewPaymentController(paymentService services.PaymentServiceInterface, callbackService services.CallbackServiceInterface, notifications mem.NotificationStore) *PaymentController {
	return &PaymentController{
		paymentService:  paymentService,
		callbackService: callbackService,
		notifications:   notifications,
	}
}

// InitiatePayment godoc
// @Summary Initiate an STK push payment for an order
// @Description Sends an M-PESA STK push prompt to the customer's phone
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body request_models.InitiatePaymentRequest true "Payment initiation payload"
// @Success 200 {object} utils.APIResponse
// @Failure 400 {object} utils.APIResponse
// @Failure 409 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/initiate [post]
func (p *PaymentController) InitiatePayment(c *gin.Context) {
	var req request_models.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}

	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	result, err := p.paymentService.InitiatePayment(c.Request.Context(), userID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "STK push sent, complete the payment on your phone")
}

// GetStatus godoc
// @Summary Check the status of a payment attempt
// @Tags Payments
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/status/{id} [get]
func (p *PaymentController) GetStatus(c *gin.Context) {
	transactionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	status, err := p.paymentService.GetStatus(c.Request.Context(), transactionID, userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, status, "Transaction status fetched")
}

// HandleCallback receives Daraja's asynchronous result. The gateway expects
// its own ack format, not the APIResponse envelope, and a 200 ack even when
// the business outcome is a failed payment.
func (p *PaymentController) HandleCallback(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, response_models.CallbackAck{ResultCode: 1, ResultDesc: "Failed to read request body"})
		return
	}

	var payload request_models.StkCallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		c.JSON(http.StatusBadRequest, response_models.CallbackAck{ResultCode: 1, ResultDesc: "Invalid callback payload"})
		return
	}

	if err := p.callbackService.ProcessCallback(c.Request.Context(), payload, raw); err != nil {
		switch err {
		case utils.ErrMalformedCallback:
			c.JSON(http.StatusBadRequest, response_models.CallbackAck{ResultCode: 1, ResultDesc: "Malformed callback payload"})
		case utils.ErrTransactionNotFound:
			// 404 lets the gateway retry in case the initiate write is lagging.
			c.JSON(http.StatusNotFound, response_models.CallbackAck{ResultCode: 1, ResultDesc: "Unknown transaction"})
		default:
			c.JSON(http.StatusInternalServerError, response_models.CallbackAck{ResultCode: 1, ResultDesc: "Processing error"})
		}
		return
	}

	c.JSON(http.StatusOK, response_models.CallbackAck{ResultCode: 0, ResultDesc: "Success"})
}

// ListTransactions godoc
// @Summary List the caller's payment attempts
// @Tags Payments
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size (1-100)"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /payments/transactions [get]
func (p *PaymentController) ListTransactions(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	page, pageSize, ok := paginationParams(c)
	if !ok {
		return
	}

	txns, err := p.paymentService.ListTransactions(c.Request.Context(), userID, page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, txns, "Transactions fetched")
}

func (p *PaymentController) ListNotifications(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	utils.RespondSuccess(c, p.notifications.Drain(userID.String()), "Notifications fetched")
}

// AdminListTransactions lists every ledger row, optionally filtered by status.
func (p *PaymentController) AdminListTransactions(c *gin.Context) {
	page, pageSize, ok := paginationParams(c)
	if !ok {
		return
	}

	status := c.Query("status")
	switch status {
	case "", "pending", "completed", "failed", "cancelled":
	default:
		utils.RespondError(c, http.StatusBadRequest, "Invalid status filter")
		return
	}

	txns, err := p.paymentService.ListAllTransactions(c.Request.Context(), status, page, pageSize)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, txns, "Transactions fetched")
}

func (p *PaymentController) AdminStats(c *gin.Context) {
	stats, err := p.paymentService.Stats(c.Request.Context())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, stats, "Payment stats fetched")
}

func (p *PaymentController) Health(c *gin.Context) {
	health := p.paymentService.Health(c.Request.Context())

	code := http.StatusOK
	if !health.Configured || !health.GatewayReachable {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}

func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, "user_id is required")
		return uuid.Nil, false
	}
	return userID, true
}

func paginationParams(c *gin.Context) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page number")
		return 0, 0, false
	}

	pageSize, err := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	if err != nil || pageSize < 1 || pageSize > 100 {
		utils.RespondError(c, http.StatusBadRequest, "Invalid page size (must be 1-100)")
		return 0, 0, false
	}

	return page, pageSize, true
}
