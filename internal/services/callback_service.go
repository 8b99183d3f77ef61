package services

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"sokopay/internal/models/db_models"
	"sokopay/internal/models/request_models"
	"sokopay/internal/repositories"
	mem "sokopay/pkg/memcache"
	"sokopay/pkg/utils"
)

type CallbackServiceInterface interface {
	ProcessCallback(ctx context.Context, payload request_models.StkCallbackPayload, raw []byte) error
}

type CallbackService struct {
	txnRepo       repositories.TransactionRepository
	orderRepo     repositories.OrderRepository
	notifications mem.NotificationStore
}

func NewCallbackService(txnRepo repositories.TransactionRepository, orderRepo repositories.OrderRepository, notifications mem.NotificationStore) CallbackServiceInterface {
	return &CallbackService{
		txnRepo:       txnRepo,
		orderRepo:     orderRepo,
		notifications: notifications,
	}
}

// ProcessCallback applies Daraja's asynchronous result to the ledger.
// Gateways redeliver callbacks, so a row that is already terminal is
// acknowledged without reprocessing, and every write goes through the
// pending-guarded transition so redeliveries racing with status polls
// cannot double-apply.
func (s *CallbackService) ProcessCallback(ctx context.Context, payload request_models.StkCallbackPayload, raw []byte) error {

	cb := payload.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return utils.ErrMalformedCallback
	}

	txn, err := s.txnRepo.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if err != nil {
		return utils.ErrDatabaseError
	}
	if txn == nil {
		log.Printf("callback: no transaction for checkout request %s", cb.CheckoutRequestID)
		return utils.ErrTransactionNotFound
	}

	if txn.Status.Terminal() {
		return nil
	}

	updates := map[string]interface{}{}
	if len(raw) > 0 {
		updates["result_payload"] = raw
	}

	resolved := mapResultCode(fmt.Sprintf("%d", cb.ResultCode))
	if resolved == db_models.TxnStatusPending {
		resolved = db_models.TxnStatusFailed
	}

	if resolved == db_models.TxnStatusCompleted {
		meta := parseCallbackMetadata(cb.CallbackMetadata)
		if meta.ReceiptNumber != "" {
			updates["mpesa_receipt_number"] = meta.ReceiptNumber
		}

		won, err := s.txnRepo.TransitionFromPending(ctx, txn.ID, db_models.TxnStatusCompleted, updates)
		if err != nil {
			return utils.ErrDatabaseError
		}
		if !won {
			return nil
		}

		settleCompleted(ctx, s.orderRepo, s.notifications, txn, meta.ReceiptNumber)
		return nil
	}

	if _, err := s.txnRepo.TransitionFromPending(ctx, txn.ID, resolved, updates); err != nil {
		return utils.ErrDatabaseError
	}
	return nil
}

// callbackMetadata is the typed view of Daraja's name/value item list.
type callbackMetadata struct {
	Amount          decimal.Decimal
	ReceiptNumber   string
	PhoneNumber     string
	TransactionDate int64
}

// parseCallbackMetadata builds the typed view defensively: items with an
// unexpected shape are skipped rather than failing the whole callback.
func parseCallbackMetadata(meta *request_models.CallbackMetadata) callbackMetadata {
	var out callbackMetadata
	if meta == nil {
		return out
	}

	for _, item := range meta.Item {
		switch item.Name {
		case "Amount":
			if f, ok := item.Value.(float64); ok {
				out.Amount = decimal.NewFromFloat(f)
			}
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				out.ReceiptNumber = s
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case float64:
				out.PhoneNumber = fmt.Sprintf("%.0f", v)
			case string:
				out.PhoneNumber = v
			}
		case "TransactionDate":
			if f, ok := item.Value.(float64); ok {
				out.TransactionDate = int64(f)
			}
		}
	}
	return out
}
