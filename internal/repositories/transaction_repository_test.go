package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"sokopay/internal/infra"
	"sokopay/internal/models/db_models"
)

func newRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := infra.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func pendingTxn(orderID uuid.UUID) *db_models.Transaction {
	return &db_models.Transaction{
		UserID:          uuid.New(),
		OrderID:         orderID,
		TransactionType: db_models.TxnTypeStkPush,
		PhoneNumber:     "254712345678",
		Amount:          decimal.NewFromInt(1000),
		Status:          db_models.TxnStatusPending,
	}
}

// The index on (order_id) WHERE status = 'pending' is the backstop for two
// initiations racing past the application-level read check: the second
// insert must surface as a translated duplicate-key error.
func TestCreate_SecondOpenRowForOrderIsDuplicate(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewTransactionRepository(db)
	orderID := uuid.New()

	if err := repo.Create(context.Background(), pendingTxn(orderID)); err != nil {
		t.Fatalf("first open row: %v", err)
	}

	err := repo.Create(context.Background(), pendingTxn(orderID))
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected gorm.ErrDuplicatedKey for second open row, got %v", err)
	}
}

func TestCreate_TerminalRowDoesNotBlockNewAttempt(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewTransactionRepository(db)
	orderID := uuid.New()

	first := pendingTxn(orderID)
	if err := repo.Create(context.Background(), first); err != nil {
		t.Fatalf("first open row: %v", err)
	}

	won, err := repo.TransitionFromPending(context.Background(), first.ID, db_models.TxnStatusFailed, nil)
	if err != nil {
		t.Fatalf("TransitionFromPending: %v", err)
	}
	if !won {
		t.Fatal("expected pending row to transition")
	}

	if err := repo.Create(context.Background(), pendingTxn(orderID)); err != nil {
		t.Fatalf("retry after terminal row should insert, got %v", err)
	}
}

func TestCreate_OtherOrderUnaffected(t *testing.T) {
	db := newRepoTestDB(t)
	repo := NewTransactionRepository(db)

	if err := repo.Create(context.Background(), pendingTxn(uuid.New())); err != nil {
		t.Fatalf("first order: %v", err)
	}
	if err := repo.Create(context.Background(), pendingTxn(uuid.New())); err != nil {
		t.Fatalf("second order must not collide, got %v", err)
	}
}
