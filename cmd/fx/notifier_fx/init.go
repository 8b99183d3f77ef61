package notifier_fx

import (
	"go.uber.org/fx"

	mem "sokopay/pkg/memcache"
)

var Module = fx.Provide(provideNotificationStore)

func provideNotificationStore() mem.NotificationStore {
	return mem.NewNotifications()
}
