package response_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderResponse struct {
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     int64           `json:"created_at"`
}
