package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sokopay/internal/models/db_models"
)

type TransactionRepository interface {
	Create(ctx context.Context, txn *db_models.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*db_models.Transaction, error)
	FindByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Transaction, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*db_models.Transaction, error)
	FindOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*db_models.Transaction, error)
	SetGatewayRefs(ctx context.Context, id uuid.UUID, checkoutRequestID, merchantRequestID string, payload []byte) error
	TransitionFromPending(ctx context.Context, id uuid.UUID, to db_models.TransactionStatus, updates map[string]interface{}) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]db_models.Transaction, error)
	ListAll(ctx context.Context, status db_models.TransactionStatus, page, pageSize int) ([]db_models.Transaction, error)
	StatusCounts(ctx context.Context) (map[db_models.TransactionStatus]int64, error)
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

type transactionRepository struct {
	db *gorm.DB
}

func (t *transactionRepository) Create(ctx context.Context, txn *db_models.Transaction) error {
	return t.db.WithContext(ctx).Create(txn).Error
}

func (t *transactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := t.db.WithContext(ctx).First(&txn, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (t *transactionRepository) FindByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := t.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (t *transactionRepository) FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := t.db.WithContext(ctx).
		Where("checkout_request_id = ?", checkoutRequestID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// FindOpenByOrderID returns the order's non-terminal attempt, if any. The
// partial unique index on (order_id) WHERE status = 'pending' guarantees at
// most one exists.
func (t *transactionRepository) FindOpenByOrderID(ctx context.Context, orderID uuid.UUID) (*db_models.Transaction, error) {
	var txn db_models.Transaction
	err := t.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, db_models.TxnStatusPending).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (t *transactionRepository) SetGatewayRefs(ctx context.Context, id uuid.UUID, checkoutRequestID, merchantRequestID string, payload []byte) error {
	updates := map[string]interface{}{
		"checkout_request_id": checkoutRequestID,
		"merchant_request_id": merchantRequestID,
	}
	if payload != nil {
		updates["result_payload"] = payload
	}
	return t.db.WithContext(ctx).
		Model(&db_models.Transaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// TransitionFromPending applies a status change only if the row is still
// pending at the moment of the write. Callbacks may be redelivered and race
// with status polling, so the terminal check and the update must be one
// atomic statement; RowsAffected tells the caller whether it won.
func (t *transactionRepository) TransitionFromPending(ctx context.Context, id uuid.UUID, to db_models.TransactionStatus, updates map[string]interface{}) (bool, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = to

	res := t.db.WithContext(ctx).
		Model(&db_models.Transaction{}).
		Where("id = ? AND status = ?", id, db_models.TxnStatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]db_models.Transaction, error) {
	var txns []db_models.Transaction
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Scopes(func(db *gorm.DB) *gorm.DB {
			offset := (page - 1) * pageSize
			return db.Offset(offset).Limit(pageSize)
		}).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (t *transactionRepository) ListAll(ctx context.Context, status db_models.TransactionStatus, page, pageSize int) ([]db_models.Transaction, error) {
	query := t.db.WithContext(ctx).Model(&db_models.Transaction{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var txns []db_models.Transaction
	err := query.
		Order("created_at DESC").
		Scopes(func(db *gorm.DB) *gorm.DB {
			offset := (page - 1) * pageSize
			return db.Offset(offset).Limit(pageSize)
		}).
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}

func (t *transactionRepository) StatusCounts(ctx context.Context) (map[db_models.TransactionStatus]int64, error) {
	type row struct {
		Status db_models.TransactionStatus
		Count  int64
	}
	var rows []row
	err := t.db.WithContext(ctx).
		Model(&db_models.Transaction{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[db_models.TransactionStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
