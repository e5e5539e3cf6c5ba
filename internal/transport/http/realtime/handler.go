package realtime

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/presentation/http/response"
	rt "github.com/Additional-Code/medichain/internal/realtime"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

// Handler streams broadcast events to clients over server-sent events.
type Handler struct {
	broadcaster rt.Broadcaster
	logger      *zap.Logger
}

// NewHandler constructs a realtime Handler.
func NewHandler(broadcaster rt.Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{broadcaster: broadcaster, logger: logger}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	e.GET("/api/realtime/:role/:id/stream", h.stream)
}

func (h *Handler) stream(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return response.New(c).WithError(errorbank.BadRequest("invalid id", errorbank.WithCause(err))).Build()
	}

	var channel string
	switch c.Param("role") {
	case "manufacturer":
		channel = rt.ManufacturerChannel(id)
	case "wholesaler":
		channel = rt.WholesalerChannel(id)
	case "user":
		channel = rt.UserChannel(id)
	default:
		return response.New(c).WithError(errorbank.BadRequest("unknown role: " + c.Param("role"))).Build()
	}

	sub, err := h.broadcaster.Join(c.Request().Context(), channel)
	if err != nil {
		return response.New(c).WithError(err).Build()
	}
	defer sub.Close()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-sub.Events():
			if !ok {
				return nil
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("encode realtime event", zap.String("channel", channel), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event.Name, data); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
