package payments_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"sokopay/internal/api/controllers"
	"sokopay/internal/repositories"
	"sokopay/internal/services"
	mem "sokopay/pkg/memcache"
)

var Module = fx.Provide(
	provideTransactionRepo,
	providePaymentService,
	provideCallbackService,
	providePaymentController,
)

func provideTransactionRepo(db *gorm.DB) repositories.TransactionRepository {
	return repositories.NewTransactionRepository(db)
}

func providePaymentService(txnRepo repositories.TransactionRepository, orderRepo repositories.OrderRepository, gw services.PushGateway, notifications mem.NotificationStore) services.PaymentServiceInterface {
	return services.NewPaymentService(txnRepo, orderRepo, gw, notifications)
}

func provideCallbackService(txnRepo repositories.TransactionRepository, orderRepo repositories.OrderRepository, notifications mem.NotificationStore) services.CallbackServiceInterface {
	return services.NewCallbackService(txnRepo, orderRepo, notifications)
}

func providePaymentController(paymentService services.PaymentServiceInterface, callbackService services.CallbackServiceInterface, notifications mem.NotificationStore) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService, callbackService, notifications)
}
