package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

type Order struct {
	BaseModel
	UserID      uuid.UUID       `gorm:"type:uuid;index"`
	OrderNumber string          `gorm:"size:32;uniqueIndex"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status      OrderStatus     `gorm:"size:16;index"`

	PaymentStatus PaymentStatus `gorm:"size:16"`
	PaidAt        *int64

	Account Account `gorm:"foreignKey:UserID"`
}
