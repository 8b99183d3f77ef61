package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sokopay/internal/models/db_models"
)

type OrderRepository interface {
	Create(ctx context.Context, order *db_models.Order) error
	FindByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Order, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paidAt int64) error
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

type orderRepository struct {
	db *gorm.DB
}

func (o *orderRepository) Create(ctx context.Context, order *db_models.Order) error {
	return o.db.WithContext(ctx).Create(order).Error
}

func (o *orderRepository) FindByIDForUser(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*db_models.Order, error) {
	var order db_models.Order
	err := o.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// MarkPaid records the successful payment on the order: payment confirmed,
// order moves to confirmed.
func (o *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, paidAt int64) error {
	return o.db.WithContext(ctx).
		Model(&db_models.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": db_models.PaymentStatusPaid,
			"status":         db_models.OrderStatusConfirmed,
			"paid_at":        paidAt,
		}).Error
}
