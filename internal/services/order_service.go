package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"sokopay/internal/models/db_models"
	"sokopay/internal/models/request_models"
	"sokopay/internal/models/response_models"
	"sokopay/internal/repositories"
	"sokopay/pkg/utils"
)

type OrderServiceInterface interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req request_models.CreateOrderRequest) (*response_models.OrderResponse, error)
	GetOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*response_models.OrderResponse, error)
}

type OrderService struct {
	orderRepo repositories.OrderRepository
}

func NewOrderService(orderRepo repositories.OrderRepository) OrderServiceInterface {
	return &OrderService{
		orderRepo: orderRepo,
	}
}

func (o *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req request_models.CreateOrderRequest) (*response_models.OrderResponse, error) {

	if req.TotalAmount.IsNegative() || req.TotalAmount.IsZero() {
		return nil, utils.ErrInvalidAmount
	}

	order := &db_models.Order{
		UserID:        userID,
		OrderNumber:   newOrderNumber(),
		TotalAmount:   req.TotalAmount,
		Status:        db_models.OrderStatusPending,
		PaymentStatus: db_models.PaymentStatusUnpaid,
	}

	if err := o.orderRepo.Create(ctx, order); err != nil {
		return nil, utils.ErrDatabaseError
	}

	return toOrderResponse(order), nil
}

func (o *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID, userID uuid.UUID) (*response_models.OrderResponse, error) {
	order, err := o.orderRepo.FindByIDForUser(ctx, orderID, userID)
	if err != nil {
		return nil, utils.ErrDatabaseError
	}
	if order == nil {
		return nil, utils.ErrOrderNotFound
	}
	return toOrderResponse(order), nil
}

// newOrderNumber combines unix seconds with a short random suffix to keep
// collisions unlikely; the unique index catches the rest.
func newOrderNumber() string {
	return fmt.Sprintf("ORD-%d%04d", time.Now().Unix()%1_000_000_000, rand.Intn(10000))
}

func toOrderResponse(order *db_models.Order) *response_models.OrderResponse {
	return &response_models.OrderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		TotalAmount:   order.TotalAmount,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		CreatedAt:     order.CreatedAt,
	}
}
