package notification

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/realtime"
	notificationrepo "github.com/Additional-Code/medichain/internal/repository/notification"
)

// Module provides the notification service to Fx.
var Module = fx.Provide(func(store *notificationrepo.Repository, broadcaster realtime.Broadcaster, logger *zap.Logger) *Service {
	return NewService(store, broadcaster, logger)
})
