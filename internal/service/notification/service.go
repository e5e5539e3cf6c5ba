package notification

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/realtime"
	repo "github.com/Additional-Code/medichain/internal/repository/notification"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/medichain/service/notification")

// Store is the persistence seam for the notification log.
type Store interface {
	List(ctx context.Context, userID int64, filter repo.Filter) ([]entity.Notification, int64, int64, error)
	MarkRead(ctx context.Context, notificationID int64) (*entity.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	GetStats(ctx context.Context, userID int64) (*repo.Stats, error)
}

// Pagination describes a page of the notification listing. UnreadCount is
// the user's true unread total, independent of the page's filters.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	UnreadCount int64 `json:"unreadCount"`
	TotalPages  int64 `json:"totalPages"`
}

// Service exposes the durable notification log and keeps connected clients'
// unread badges fresh.
type Service struct {
	store       Store
	broadcaster realtime.Broadcaster
	logger      *zap.Logger
}

// NewService wires a notification Service.
func NewService(store Store, broadcaster realtime.Broadcaster, logger *zap.Logger) *Service {
	return &Service{store: store, broadcaster: broadcaster, logger: logger}
}

// List returns a page of the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID int64, filter repo.Filter) ([]entity.Notification, Pagination, error) {
	ctx, span := serviceTracer.Start(ctx, "NotificationService.List", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	items, total, unread, err := s.store.List(ctx, userID, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, Pagination{}, errorbank.Internal("failed to fetch notifications", errorbank.WithCause(err))
	}

	totalPages := total / int64(filter.Limit)
	if total%int64(filter.Limit) != 0 {
		totalPages++
	}

	return items, Pagination{
		Page:        filter.Page,
		Limit:       filter.Limit,
		Total:       total,
		UnreadCount: unread,
		TotalPages:  totalPages,
	}, nil
}

// MarkRead flips a notification to read. The operation is idempotent:
// marking an already-read notification succeeds again. The owner's unread
// badge is refreshed best-effort.
func (s *Service) MarkRead(ctx context.Context, notificationID int64) error {
	ctx, span := serviceTracer.Start(ctx, "NotificationService.MarkRead", trace.WithAttributes(attribute.Int64("notification.id", notificationID)))
	defer span.End()

	n, err := s.store.MarkRead(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("notification not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update notification", errorbank.WithCause(err))
	}

	s.pushUnreadCount(ctx, n.UserID)
	return nil
}

// MarkAllRead flips every unread notification for the user and returns the
// count flipped.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ctx, span := serviceTracer.Start(ctx, "NotificationService.MarkAllRead", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	affected, err := s.store.MarkAllRead(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return 0, errorbank.Internal("failed to update notifications", errorbank.WithCause(err))
	}

	s.pushUnreadCount(ctx, userID)
	return affected, nil
}

// UnreadCount returns the user's unread total.
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		return 0, errorbank.Internal("failed to fetch unread count", errorbank.WithCause(err))
	}
	return count, nil
}

// Stats aggregates the user's notification counters, recomputed per call.
func (s *Service) Stats(ctx context.Context, userID int64) (*repo.Stats, error) {
	ctx, span := serviceTracer.Start(ctx, "NotificationService.Stats", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	stats, err := s.store.GetStats(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to fetch notification statistics", errorbank.WithCause(err))
	}
	return stats, nil
}

func (s *Service) pushUnreadCount(ctx context.Context, userID int64) {
	unread, err := s.store.UnreadCount(ctx, userID)
	if err != nil {
		s.logger.Warn("unread count lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	payload := map[string]int64{"unreadCount": unread}
	if err := s.broadcaster.Publish(ctx, realtime.UserChannel(userID), realtime.EventUnreadCountUpdate, payload); err != nil {
		s.logger.Error("realtime broadcast failed",
			zap.String("channel", realtime.UserChannel(userID)),
			zap.String("event", realtime.EventUnreadCountUpdate),
			zap.Error(err))
	}
}
