package gateway_fx

import (
	"os"

	"go.uber.org/fx"

	"sokopay/internal/gateway"
	"sokopay/internal/services"
)

var Module = fx.Provide(provideDarajaClient)

func provideDarajaClient() services.PushGateway {
	return gateway.NewDarajaClient(gateway.Config{
		ConsumerKey:    os.Getenv("MPESA_CONSUMER_KEY"),
		ConsumerSecret: os.Getenv("MPESA_CONSUMER_SECRET"),
		ShortCode:      os.Getenv("MPESA_SHORTCODE"),
		Passkey:        os.Getenv("MPESA_PASSKEY"),
		CallbackURL:    os.Getenv("MPESA_CALLBACK_URL"),
		BaseURL:        os.Getenv("MPESA_BASE_URL"),
	})
}
