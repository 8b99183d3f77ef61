package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sokopay/internal/gateway"
	"sokopay/internal/models/db_models"
	"sokopay/internal/models/request_models"
	"sokopay/internal/models/response_models"
	"sokopay/internal/repositories"
	mem "sokopay/pkg/memcache"
	"sokopay/pkg/utils"
)

// PendingExpiry is how long an unanswered STK push stays open. An expired
// pending row no longer blocks a fresh attempt for the same order and is
// reported as failed by status checks.
const PendingExpiry = 5 * time.Minute

// PushGateway is the slice of the Daraja client the payment service needs.
type PushGateway interface {
	Configured() bool
	AccessToken(ctx context.Context) (string, error)
	InitiatePush(ctx context.Context, req gateway.StkPushRequest) (*gateway.StkPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*gateway.StkQueryResponse, error)
}

type PaymentServiceInterface interface {
	InitiatePayment(ctx context.Context, userID uuid.UUID, req request_models.InitiatePaymentRequest) (*response_models.InitiatePaymentResponse, error)
	GetStatus(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID) (*response_models.TransactionStatusResponse, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]response_models.TransactionResponse, error)
	ListAllTransactions(ctx context.Context, status string, page, pageSize int) ([]response_models.TransactionResponse, error)
	Stats(ctx context.Context) (*response_models.PaymentStatsResponse, error)
	Health(ctx context.Context) *response_models.PaymentHealthResponse
}

type PaymentService struct {
	txnRepo       repositories.TransactionRepository
	orderRepo     repositories.OrderRepository
	gateway       PushGateway
	notifications mem.NotificationStore
}

func NewPaymentService(txnRepo repositories.TransactionRepository, orderRepo repositories.OrderRepository, gw PushGateway, notifications mem.NotificationStore) PaymentServiceInterface {
	return &PaymentService{
		txnRepo:       txnRepo,
		orderRepo:     orderRepo,
		gateway:       gw,
		notifications: notifications,
	}
}

func (p *PaymentService) InitiatePayment(ctx context.Context, userID uuid.UUID, req request_models.InitiatePaymentRequest) (*response_models.InitiatePaymentResponse, error) {

	if !p.gateway.Configured() {
		return nil, utils.ErrPaymentNotConfigured
	}

	if !gateway.IsValidAmount(req.Amount) {
		return nil, utils.ErrInvalidAmount
	}

	phone := gateway.FormatPhoneNumber(req.PhoneNumber)
	if !gateway.IsValidPhoneNumber(phone) {
		return nil, utils.ErrInvalidPhoneNumber
	}

	order, err := p.orderRepo.FindByIDForUser(ctx, req.OrderID, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}

	// Duplicate guard: one open attempt per order. An expired open row is
	// reconciled to failed here so it stops blocking retries.
	open, err := p.txnRepo.FindOpenByOrderID(ctx, order.ID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if open != nil {
		if !open.ExpiredAt(time.Now(), PendingExpiry) {
			return nil, utils.ErrPaymentInProgress
		}
		if _, err := p.txnRepo.TransitionFromPending(ctx, open.ID, db_models.TxnStatusFailed, nil); err != nil {
			return nil, utils.ErrDatabaseError
		}
	}

	description := utils.SanitizeText(req.Description)
	if description == "" {
		description = fmt.Sprintf("Payment for order %s", order.OrderNumber)
	}

	txn := &db_models.Transaction{
		UserID:          userID,
		OrderID:         order.ID,
		TransactionType: db_models.TxnTypeStkPush,
		PhoneNumber:     phone,
		Amount:          req.Amount,
		Description:     description,
		Status:          db_models.TxnStatusPending,
	}

	if err := p.txnRepo.Create(ctx, txn); err != nil {
		// The partial unique index rejects a second open attempt that
		// slipped past the read check concurrently.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.ErrPaymentInProgress
		}
		return nil, utils.ErrDatabaseError
	}

	resp, err := p.gateway.InitiatePush(ctx, gateway.StkPushRequest{
		PhoneNumber:      phone,
		Amount:           req.Amount,
		AccountReference: order.OrderNumber,
		Description:      description,
	})
	if err != nil {
		// Transport failure or timeout. Keep the row for audit, marked failed.
		if _, markErr := p.txnRepo.TransitionFromPending(ctx, txn.ID, db_models.TxnStatusFailed, nil); markErr != nil {
			log.Printf("failed to mark transaction %s failed: %v", txn.ID, markErr)
		}
		return nil, err
	}

	if !resp.Accepted() {
		// Synchronous business rejection from the gateway.
		if _, markErr := p.txnRepo.TransitionFromPending(ctx, txn.ID, db_models.TxnStatusFailed, nil); markErr != nil {
			log.Printf("failed to mark transaction %s failed: %v", txn.ID, markErr)
		}
		return nil, fmt.Errorf("%w: %s", utils.ErrInitiationFailed, resp.RejectionMessage())
	}

	payload, _ := json.Marshal(resp)
	if err := p.txnRepo.SetGatewayRefs(ctx, txn.ID, resp.CheckoutRequestID, resp.MerchantRequestID, payload); err != nil {
		log.Printf("failed to store gateway refs for transaction %s: %v", txn.ID, err)
	}

	return &response_models.InitiatePaymentResponse{
		TransactionID:     txn.ID,
		CheckoutRequestID: resp.CheckoutRequestID,
		Amount:            req.Amount,
		CustomerMessage:   resp.CustomerMessage,
	}, nil
}

func (p *PaymentService) GetStatus(ctx context.Context, transactionID uuid.UUID, userID uuid.UUID) (*response_models.TransactionStatusResponse, error) {

	// Scoped to the owner; cross-user access reads as absent, not forbidden.
	txn, err := p.txnRepo.FindByIDForUser(ctx, transactionID, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if txn == nil {
		return nil, utils.ErrTransactionNotFound
	}

	if txn.Status.Terminal() {
		return statusResponse(txn), nil
	}

	if txn.ExpiredAt(time.Now(), PendingExpiry) {
		if _, err := p.txnRepo.TransitionFromPending(ctx, txn.ID, db_models.TxnStatusFailed, nil); err != nil {
			return nil, utils.ErrDatabaseError
		}
		txn.Status = db_models.TxnStatusFailed
		return statusResponse(txn), nil
	}

	if txn.CheckoutRequestID == nil {
		return statusResponse(txn), nil
	}

	result, err := p.gateway.QueryStatus(ctx, *txn.CheckoutRequestID)
	if err != nil {
		// Transient polling failures must not break the client's loop;
		// report the last known state instead.
		log.Printf("status query for transaction %s failed: %v", txn.ID, err)
		return statusResponse(txn), nil
	}

	resolved := mapResultCode(result.ResultCode)
	if resolved == db_models.TxnStatusPending {
		return statusResponse(txn), nil
	}

	won, err := p.txnRepo.TransitionFromPending(ctx, txn.ID, resolved, nil)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if won {
		txn.Status = resolved
		if resolved == db_models.TxnStatusCompleted {
			settleCompleted(ctx, p.orderRepo, p.notifications, txn, "")
		}
	} else {
		// A callback resolved the row first; re-read the final state.
		if fresh, readErr := p.txnRepo.FindByID(ctx, txn.ID); readErr == nil && fresh != nil {
			txn = fresh
		}
	}

	return statusResponse(txn), nil
}

func (p *PaymentService) ListTransactions(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]response_models.TransactionResponse, error) {
	txns, err := p.txnRepo.ListByUser(ctx, userID, page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return toTransactionResponses(txns), nil
}

func (p *PaymentService) ListAllTransactions(ctx context.Context, status string, page, pageSize int) ([]response_models.TransactionResponse, error) {
	txns, err := p.txnRepo.ListAll(ctx, db_models.TransactionStatus(status), page, pageSize)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	return toTransactionResponses(txns), nil
}

func (p *PaymentService) Stats(ctx context.Context) (*response_models.PaymentStatsResponse, error) {
	counts, err := p.txnRepo.StatusCounts(ctx)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}

	stats := &response_models.PaymentStatsResponse{
		ByStatus: make(map[string]int64, len(counts)),
	}
	for status, count := range counts {
		stats.Total += count
		stats.ByStatus[string(status)] = count
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(counts[db_models.TxnStatusCompleted]) / float64(stats.Total)
	}
	return stats, nil
}

func (p *PaymentService) Health(ctx context.Context) *response_models.PaymentHealthResponse {
	health := &response_models.PaymentHealthResponse{
		Configured: p.gateway.Configured(),
	}
	if !health.Configured {
		health.Detail = "gateway credentials missing"
		return health
	}

	if _, err := p.gateway.AccessToken(ctx); err != nil {
		health.Detail = "could not obtain access token"
		return health
	}
	health.GatewayReachable = true
	return health
}

// mapResultCode applies the gateway result-code mapping shared between
// callbacks and status queries: 0 paid, 1032 cancelled by user, anything
// else failed. Unknown or empty codes leave the row pending.
func mapResultCode(code string) db_models.TransactionStatus {
	switch code {
	case "":
		return db_models.TxnStatusPending
	case "0":
		return db_models.TxnStatusCompleted
	case "1032":
		return db_models.TxnStatusCancelled
	default:
		return db_models.TxnStatusFailed
	}
}

// settleCompleted applies the success side effects shared by the callback
// and query resolution paths: the order is marked paid and the payer is
// notified. The receipt is empty when the query API resolved the payment,
// since its response carries none.
func settleCompleted(ctx context.Context, orderRepo repositories.OrderRepository, notifications mem.NotificationStore, txn *db_models.Transaction, receipt string) {
	if err := orderRepo.MarkPaid(ctx, txn.OrderID, time.Now().Unix()); err != nil {
		log.Printf("failed to mark order %s paid: %v", txn.OrderID, err)
	}

	message := fmt.Sprintf("Payment of KES %s received", txn.Amount.StringFixed(2))
	if receipt != "" {
		message = fmt.Sprintf("%s, receipt %s", message, receipt)
	}
	notifications.Push(txn.UserID.String(), message)
}

func statusResponse(txn *db_models.Transaction) *response_models.TransactionStatusResponse {
	return &response_models.TransactionStatusResponse{
		TransactionID:      txn.ID,
		Status:             string(txn.Status),
		MpesaReceiptNumber: txn.MpesaReceiptNumber,
	}
}

func toTransactionResponses(txns []db_models.Transaction) []response_models.TransactionResponse {
	out := make([]response_models.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, response_models.TransactionResponse{
			TransactionID:      txn.ID,
			OrderID:            txn.OrderID,
			PhoneNumber:        txn.PhoneNumber,
			Amount:             txn.Amount,
			Status:             string(txn.Status),
			MpesaReceiptNumber: txn.MpesaReceiptNumber,
			CreatedAt:          txn.CreatedAt,
		})
	}
	return out
}
