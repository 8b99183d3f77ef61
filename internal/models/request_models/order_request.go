package request_models

import "github.com/shopspring/decimal"

type CreateOrderRequest struct {
	TotalAmount decimal.Decimal `json:"total_amount" binding:"required"`
}
