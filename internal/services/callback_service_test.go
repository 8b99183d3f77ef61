package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sokopay/internal/models/db_models"
	"sokopay/internal/models/request_models"
	"sokopay/internal/repositories"
	mem "sokopay/pkg/memcache"
	"sokopay/pkg/utils"
)

func newCallbackFixture(t *testing.T) (CallbackServiceInterface, *gorm.DB, *mem.Notifications) {
	t.Helper()
	db := newTestDB(t)
	notifications := mem.NewNotifications()
	svc := NewCallbackService(
		repositories.NewTransactionRepository(db),
		repositories.NewOrderRepository(db),
		notifications,
	)
	return svc, db, notifications
}

func seedPendingTxn(t *testing.T, db *gorm.DB, userID uuid.UUID, orderID uuid.UUID, checkoutRequestID string) *db_models.Transaction {
	t.Helper()
	txn := &db_models.Transaction{
		UserID:            userID,
		OrderID:           orderID,
		TransactionType:   db_models.TxnTypeStkPush,
		PhoneNumber:       "254712345678",
		Amount:            decimal.NewFromInt(1000),
		Description:       "Payment for order",
		Status:            db_models.TxnStatusPending,
		CheckoutRequestID: &checkoutRequestID,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return txn
}

func successCallback(checkoutRequestID, receipt string) (request_models.StkCallbackPayload, []byte) {
	raw := []byte(`{"Body":{"stkCallback":{` +
		`"MerchantRequestID":"29115-34620561-1",` +
		`"CheckoutRequestID":"` + checkoutRequestID + `",` +
		`"ResultCode":0,"ResultDesc":"The service request is processed successfully.",` +
		`"CallbackMetadata":{"Item":[` +
		`{"Name":"Amount","Value":1000},` +
		`{"Name":"MpesaReceiptNumber","Value":"` + receipt + `"},` +
		`{"Name":"TransactionDate","Value":20260901102115},` +
		`{"Name":"PhoneNumber","Value":254712345678}]}}}}`)

	var payload request_models.StkCallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		panic(err)
	}
	return payload, raw
}

func resultCallback(checkoutRequestID string, code int) (request_models.StkCallbackPayload, []byte) {
	var payload request_models.StkCallbackPayload
	payload.Body.StkCallback.CheckoutRequestID = checkoutRequestID
	payload.Body.StkCallback.ResultCode = code
	raw, _ := json.Marshal(payload)
	return payload, raw
}

func TestProcessCallback_SuccessCompletesTransactionAndOrder(t *testing.T) {
	svc, db, notifications := newCallbackFixture(t)
	userID := uuid.New()
	order := seedOrder(t, db, userID)
	txn := seedPendingTxn(t, db, userID, order.ID, "ws_CO_1")

	payload, raw := successCallback("ws_CO_1", "NLJ7RT61SV")
	if err := svc.ProcessCallback(context.Background(), payload, raw); err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}

	var got db_models.Transaction
	if err := db.First(&got, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if got.Status != db_models.TxnStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.MpesaReceiptNumber == nil || *got.MpesaReceiptNumber != "NLJ7RT61SV" {
		t.Errorf("expected receipt NLJ7RT61SV, got %v", got.MpesaReceiptNumber)
	}

	var gotOrder db_models.Order
	if err := db.First(&gotOrder, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if gotOrder.PaymentStatus != db_models.PaymentStatusPaid {
		t.Errorf("expected order paid, got %s", gotOrder.PaymentStatus)
	}
	if gotOrder.Status != db_models.OrderStatusConfirmed {
		t.Errorf("expected order confirmed, got %s", gotOrder.Status)
	}

	notes := notifications.Drain(userID.String())
	if len(notes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notes))
	}
}

func TestProcessCallback_Idempotent(t *testing.T) {
	svc, db, notifications := newCallbackFixture(t)
	userID := uuid.New()
	order := seedOrder(t, db, userID)
	txn := seedPendingTxn(t, db, userID, order.ID, "ws_CO_2")

	payload, raw := successCallback("ws_CO_2", "NLJ7RT61SV")
	if err := svc.ProcessCallback(context.Background(), payload, raw); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// Gateways redeliver; the second delivery is acknowledged but applies nothing.
	if err := svc.ProcessCallback(context.Background(), payload, raw); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	var got db_models.Transaction
	if err := db.First(&got, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if got.Status != db_models.TxnStatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}

	if notes := notifications.Drain(userID.String()); len(notes) != 1 {
		t.Errorf("redelivery must not duplicate notifications, got %d", len(notes))
	}
}

func TestProcessCallback_CancelledByUser(t *testing.T) {
	svc, db, _ := newCallbackFixture(t)
	userID := uuid.New()
	order := seedOrder(t, db, userID)
	txn := seedPendingTxn(t, db, userID, order.ID, "ws_CO_3")

	payload, raw := resultCallback("ws_CO_3", 1032)
	if err := svc.ProcessCallback(context.Background(), payload, raw); err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}

	var got db_models.Transaction
	if err := db.First(&got, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if got.Status != db_models.TxnStatusCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}

	var gotOrder db_models.Order
	if err := db.First(&gotOrder, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if gotOrder.PaymentStatus != db_models.PaymentStatusUnpaid {
		t.Errorf("cancelled payment must not mark the order paid")
	}
}

func TestProcessCallback_OtherCodesFail(t *testing.T) {
	svc, db, _ := newCallbackFixture(t)
	userID := uuid.New()
	order := seedOrder(t, db, userID)
	txn := seedPendingTxn(t, db, userID, order.ID, "ws_CO_4")

	payload, raw := resultCallback("ws_CO_4", 1037)
	if err := svc.ProcessCallback(context.Background(), payload, raw); err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}

	var got db_models.Transaction
	if err := db.First(&got, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if got.Status != db_models.TxnStatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
}

func TestProcessCallback_UnknownCorrelationID(t *testing.T) {
	svc, _, _ := newCallbackFixture(t)

	payload, raw := resultCallback("ws_CO_unknown", 0)
	err := svc.ProcessCallback(context.Background(), payload, raw)
	if !errors.Is(err, utils.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
}

func TestProcessCallback_MissingCorrelationID(t *testing.T) {
	svc, _, _ := newCallbackFixture(t)

	payload, raw := resultCallback("", 0)
	err := svc.ProcessCallback(context.Background(), payload, raw)
	if !errors.Is(err, utils.ErrMalformedCallback) {
		t.Fatalf("expected ErrMalformedCallback, got %v", err)
	}
}

func TestProcessCallback_ToleratesMalformedMetadata(t *testing.T) {
	svc, db, _ := newCallbackFixture(t)
	userID := uuid.New()
	order := seedOrder(t, db, userID)
	txn := seedPendingTxn(t, db, userID, order.ID, "ws_CO_5")

	// Items with unexpected shapes are skipped, not fatal.
	raw := []byte(`{"Body":{"stkCallback":{"CheckoutRequestID":"ws_CO_5","ResultCode":0,` +
		`"CallbackMetadata":{"Item":[` +
		`{"Name":"Amount","Value":"not-a-number"},` +
		`{"Value":42},` +
		`{"Name":"MpesaReceiptNumber","Value":12345}]}}}}`)
	var payload request_models.StkCallbackPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if err := svc.ProcessCallback(context.Background(), payload, raw); err != nil {
		t.Fatalf("ProcessCallback: %v", err)
	}

	var got db_models.Transaction
	if err := db.First(&got, "id = ?", txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if got.Status != db_models.TxnStatusCompleted {
		t.Errorf("expected completed despite junk metadata, got %s", got.Status)
	}
	if got.MpesaReceiptNumber != nil {
		t.Errorf("non-string receipt must be ignored, got %v", *got.MpesaReceiptNumber)
	}
}

func TestParseCallbackMetadata_NilMetadata(t *testing.T) {
	meta := parseCallbackMetadata(nil)
	if meta.ReceiptNumber != "" || !meta.Amount.IsZero() {
		t.Errorf("expected zero-value metadata, got %+v", meta)
	}
}
