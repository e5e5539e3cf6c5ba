package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/medichain/internal/cache"
	"github.com/Additional-Code/medichain/internal/config"
	"github.com/Additional-Code/medichain/internal/database"
	"github.com/Additional-Code/medichain/internal/logger"
	"github.com/Additional-Code/medichain/internal/messaging"
	"github.com/Additional-Code/medichain/internal/observability"
	"github.com/Additional-Code/medichain/internal/realtime"
	repositoryinvoice "github.com/Additional-Code/medichain/internal/repository/invoice"
	repositorynotification "github.com/Additional-Code/medichain/internal/repository/notification"
	repositoryorder "github.com/Additional-Code/medichain/internal/repository/order"
	repositoryparty "github.com/Additional-Code/medichain/internal/repository/party"
	repositoryproduct "github.com/Additional-Code/medichain/internal/repository/product"
	grpcserver "github.com/Additional-Code/medichain/internal/server/grpc"
	httpserver "github.com/Additional-Code/medichain/internal/server/http"
	serviceemail "github.com/Additional-Code/medichain/internal/service/email"
	serviceinvoice "github.com/Additional-Code/medichain/internal/service/invoice"
	servicenotification "github.com/Additional-Code/medichain/internal/service/notification"
	serviceorder "github.com/Additional-Code/medichain/internal/service/order"
	transporthttp "github.com/Additional-Code/medichain/internal/transport/http"
	"github.com/Additional-Code/medichain/internal/worker"
	workerorder "github.com/Additional-Code/medichain/internal/worker/order"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	realtime.Module,
	repositoryorder.Module,
	repositorynotification.Module,
	repositoryproduct.Module,
	repositoryparty.Module,
	repositoryinvoice.Module,
	serviceorder.Module,
	servicenotification.Module,
	serviceinvoice.Module,
	serviceemail.Module,
)

// HTTP wires the HTTP and gRPC transports on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
