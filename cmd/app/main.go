package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"sokopay/cmd/fx/account_fx"
	"sokopay/cmd/fx/db_fx"
	"sokopay/cmd/fx/gateway_fx"
	"sokopay/cmd/fx/notifier_fx"
	"sokopay/cmd/fx/orders_fx"
	"sokopay/cmd/fx/payments_fx"
	"sokopay/internal/api/controllers"
	"sokopay/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	app := fx.New(
		db_fx.Module,
		gateway_fx.Module,
		notifier_fx.Module,
		account_fx.Module,
		orders_fx.Module,
		payments_fx.Module,

		fx.Provide(ProvideRouter),
		fx.Invoke(StartServer),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := os.Getenv("PORT")
				if port == "" {
					port = "8080"
				}
				log.Printf("Starting HTTP server at :%s", port)
				if err := engine.Run(":" + port); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(
	accountController *controllers.AccountController,
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, accountController, orderController, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine,
	accountController *controllers.AccountController,
	orderController *controllers.OrderController,
	paymentController *controllers.PaymentController) {

	authGroup := r.Group("/auth")
	authGroup.POST("/signup", accountController.Register)
	authGroup.POST("/login", accountController.Login)

	ordersGroup := r.Group("/orders")
	ordersGroup.Use(middleware.JWTAuthMiddleware())
	ordersGroup.POST("", orderController.CreateOrder)
	ordersGroup.GET("/:id", orderController.GetOrder)

	paymentsGroup := r.Group("/payments")
	paymentsGroup.POST("/callback", paymentController.HandleCallback)
	paymentsGroup.GET("/health", paymentController.Health)

	paymentsAuth := paymentsGroup.Group("")
	paymentsAuth.Use(middleware.JWTAuthMiddleware())
	paymentsAuth.POST("/initiate", paymentController.InitiatePayment)
	paymentsAuth.GET("/status/:id", paymentController.GetStatus)
	paymentsAuth.GET("/transactions", paymentController.ListTransactions)
	paymentsAuth.GET("/notifications", paymentController.ListNotifications)

	adminGroup := r.Group("/admin/payments")
	adminGroup.Use(middleware.JWTAuthMiddleware(), middleware.RoleMiddleware("admin"))
	adminGroup.GET("/transactions", paymentController.AdminListTransactions)
	adminGroup.GET("/stats", paymentController.AdminStats)
}
