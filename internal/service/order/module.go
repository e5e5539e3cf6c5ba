package order

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/cache"
	"github.com/Additional-Code/medichain/internal/config"
	"github.com/Additional-Code/medichain/internal/messaging"
	"github.com/Additional-Code/medichain/internal/realtime"
	notificationrepo "github.com/Additional-Code/medichain/internal/repository/notification"
	orderrepo "github.com/Additional-Code/medichain/internal/repository/order"
	productrepo "github.com/Additional-Code/medichain/internal/repository/product"
)

// Params defines dependencies for constructing the coordinator.
type Params struct {
	fx.In

	Orders        *orderrepo.Repository
	Notifications *notificationrepo.Repository
	Products      *productrepo.Repository
	Broadcaster   realtime.Broadcaster
	Publisher     messaging.Client
	Cache         cache.Store
	Config        config.Config
	Logger        *zap.Logger
}

// Module provides the order service to Fx.
var Module = fx.Provide(func(p Params) *Service {
	return NewService(
		p.Orders,
		p.Notifications,
		p.Products,
		p.Broadcaster,
		p.Publisher,
		p.Cache,
		p.Config.Cache.DefaultTTL,
		p.Logger,
	)
})
