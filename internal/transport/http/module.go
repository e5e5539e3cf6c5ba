package http

import (
	"go.uber.org/fx"

	invoicetransport "github.com/Additional-Code/medichain/internal/transport/http/invoice"
	notificationtransport "github.com/Additional-Code/medichain/internal/transport/http/notification"
	ordertransport "github.com/Additional-Code/medichain/internal/transport/http/order"
	realtimetransport "github.com/Additional-Code/medichain/internal/transport/http/realtime"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	ordertransport.Module,
	notificationtransport.Module,
	invoicetransport.Module,
	realtimetransport.Module,
)
