package notification

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/medichain/internal/dto"
	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/presentation/http/response"
	repo "github.com/Additional-Code/medichain/internal/repository/notification"
	service "github.com/Additional-Code/medichain/internal/service/notification"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/Additional-Code/medichain/transport/http/notification")

// Handler exposes the notification log over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a notification Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/api/notifications")
	g.GET("/:userId", h.list)
	g.PATCH("/:notificationId/read", h.markRead)
	g.PATCH("/:userId/read-all", h.markAllRead)
	g.GET("/:userId/unread-count", h.unreadCount)
	g.GET("/:userId/stats", h.stats)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid user id", errorbank.WithCause(err))).Build()
	}

	filter := repo.Filter{}
	if raw := c.QueryParam("type"); raw != "" {
		t := entity.NotificationType(raw)
		if !t.Valid() {
			return b.WithError(errorbank.BadRequest("invalid notification type: " + raw)).Build()
		}
		filter.Type = &t
	}
	if raw := c.QueryParam("is_read"); raw != "" {
		isRead, err := strconv.ParseBool(raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid is_read value", errorbank.WithCause(err))).Build()
		}
		filter.IsRead = &isRead
	}
	if raw := c.QueryParam("unread_only"); raw != "" {
		unreadOnly, err := strconv.ParseBool(raw)
		if err != nil {
			return b.WithError(errorbank.BadRequest("invalid unread_only value", errorbank.WithCause(err))).Build()
		}
		filter.UnreadOnly = unreadOnly
	}
	if raw := c.QueryParam("page"); raw != "" {
		filter.Page, _ = strconv.Atoi(raw)
	}
	if raw := c.QueryParam("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "notifications.list", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	items, page, err := h.svc.List(ctx, userID, filter)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(toDTOs(items)).WithMeta("pagination", page).Build()
}

func (h *Handler) markRead(c echo.Context) error {
	b := response.New(c)

	notificationID, err := strconv.ParseInt(c.Param("notificationId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid notification id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "notifications.markRead", trace.WithAttributes(attribute.Int64("notification.id", notificationID)))
	defer span.End()

	if err := h.svc.MarkRead(ctx, notificationID); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]bool{"read": true}).Build()
}

func (h *Handler) markAllRead(c echo.Context) error {
	b := response.New(c)

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid user id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "notifications.markAllRead", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	affected, err := h.svc.MarkAllRead(ctx, userID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]int64{"updated": affected}).Build()
}

func (h *Handler) unreadCount(c echo.Context) error {
	b := response.New(c)

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid user id", errorbank.WithCause(err))).Build()
	}

	count, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]int64{"unreadCount": count}).Build()
}

func (h *Handler) stats(c echo.Context) error {
	b := response.New(c)

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid user id", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "notifications.stats", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	stats, err := h.svc.Stats(ctx, userID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(stats).Build()
}

func toDTOs(items []entity.Notification) []dto.NotificationResponse {
	out := make([]dto.NotificationResponse, 0, len(items))
	for i := range items {
		n := &items[i]
		out = append(out, dto.NotificationResponse{
			ID:             n.ID,
			UserID:         n.UserID,
			Title:          n.Title,
			Message:        n.Message,
			Type:           string(n.Type),
			RelatedOrderID: n.RelatedOrderID,
			IsRead:         n.IsRead,
			CreatedAt:      n.CreatedAt,
		})
	}
	return out
}
