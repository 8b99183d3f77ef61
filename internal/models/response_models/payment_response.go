package response_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InitiatePaymentResponse struct {
	TransactionID     uuid.UUID       `json:"transaction_id"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	Amount            decimal.Decimal `json:"amount"`
	CustomerMessage   string          `json:"customer_message,omitempty"`
}

type TransactionStatusResponse struct {
	TransactionID      uuid.UUID `json:"transaction_id"`
	Status             string    `json:"status"`
	MpesaReceiptNumber *string   `json:"mpesa_receipt_number,omitempty"`
}

type TransactionResponse struct {
	TransactionID      uuid.UUID       `json:"transaction_id"`
	OrderID            uuid.UUID       `json:"order_id"`
	PhoneNumber        string          `json:"phone_number"`
	Amount             decimal.Decimal `json:"amount"`
	Status             string          `json:"status"`
	MpesaReceiptNumber *string         `json:"mpesa_receipt_number,omitempty"`
	CreatedAt          int64           `json:"created_at"`
}

type PaymentStatsResponse struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	SuccessRate float64          `json:"success_rate"`
}

type PaymentHealthResponse struct {
	Configured       bool   `json:"configured"`
	GatewayReachable bool   `json:"gateway_reachable"`
	Detail           string `json:"detail,omitempty"`
}

// CallbackAck is the acknowledgment Daraja expects for every delivered
// callback, regardless of the business outcome.
type CallbackAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}
