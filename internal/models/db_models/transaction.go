package db_models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TransactionStatus string

const (
	TxnStatusPending   TransactionStatus = "pending"
	TxnStatusCompleted TransactionStatus = "completed"
	TxnStatusFailed    TransactionStatus = "failed"
	TxnStatusCancelled TransactionStatus = "cancelled"
)

// Terminal reports whether no further status transition is allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TxnStatusCompleted || s == TxnStatusFailed || s == TxnStatusCancelled
}

type TransactionType string

const (
	TxnTypeStkPush TransactionType = "stk_push"
)

// Transaction is one STK push attempt. Retries for the same order create new
// rows; terminal rows are never mutated and never deleted (audit trail).
type Transaction struct {
	BaseModel
	UserID          uuid.UUID         `gorm:"type:uuid;index"`
	OrderID         uuid.UUID         `gorm:"type:uuid;index"`
	TransactionType TransactionType   `gorm:"size:32"`
	PhoneNumber     string            `gorm:"size:15"`
	Amount          decimal.Decimal   `gorm:"type:decimal(12,2)"`
	Description     string            `gorm:"size:255"`
	Status          TransactionStatus `gorm:"size:16;index"`

	// Daraja correlation ids, set once the gateway acknowledges the push.
	CheckoutRequestID *string `gorm:"size:64;uniqueIndex"`
	MerchantRequestID *string `gorm:"size:64;index"`

	// Present if and only if Status == completed.
	MpesaReceiptNumber *string `gorm:"size:32"`

	// Raw gateway payloads (initiate response, callback body) for audit.
	ResultPayload datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Order Order `gorm:"foreignKey:OrderID"`
}

// ExpiredAt reports whether a non-terminal row created before now-window
// should be treated as abandoned (callback never arrived).
func (t *Transaction) ExpiredAt(now time.Time, window time.Duration) bool {
	return !t.Status.Terminal() && time.Unix(t.CreatedAt, 0).Add(window).Before(now)
}
