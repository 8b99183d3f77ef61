package orders_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sokopay/internal/api/controllers"
	"sokopay/internal/repositories"
	"sokopay/internal/services"
)

var Module = fx.Provide(
	provideOrderRepo, provideOrderService, provideOrderController,
)

func provideOrderRepo(db *gorm.DB) repositories.OrderRepository {
	return repositories.NewOrderRepository(db)
}

func provideOrderService(orderRepo repositories.OrderRepository) services.OrderServiceInterface {
	return services.NewOrderService(orderRepo)
}

func provideOrderController(orderService services.OrderServiceInterface) *controllers.OrderController {
	return controllers.NewOrderController(orderService)
}
