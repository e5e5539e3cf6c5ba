package invoice

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/config"
	invoicerepo "github.com/Additional-Code/medichain/internal/repository/invoice"
	partyrepo "github.com/Additional-Code/medichain/internal/repository/party"
)

// Module provides the invoice service to Fx.
var Module = fx.Provide(func(store *invoicerepo.Repository, parties *partyrepo.Repository, cfg config.Config, logger *zap.Logger) *Service {
	return NewService(store, parties, cfg.Invoice, logger)
})
