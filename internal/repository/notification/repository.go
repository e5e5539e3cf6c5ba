package notification

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/medichain/internal/database"
	"github.com/Additional-Code/medichain/internal/entity"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/medichain/repository/notification")

// ErrNotFound is returned when a notification is missing.
var ErrNotFound = errors.New("notification not found")

// Filter narrows a notification listing. Filters compose conjunctively.
type Filter struct {
	Type       *entity.NotificationType
	IsRead     *bool
	UnreadOnly bool
	Page       int
	Limit      int
}

// Stats aggregates a user's notification counters, recomputed per call.
type Stats struct {
	Total    int64                           `json:"total"`
	Unread   int64                           `json:"unread"`
	PerType  map[entity.NotificationType]int `json:"per_type"`
	LatestAt *time.Time                      `json:"latest_at,omitempty"`
}

// Repository encapsulates the durable notification log.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create appends a notification. Rows start unread.
func (r *Repository) Create(ctx context.Context, n *entity.Notification) error {
	if n == nil {
		return errors.New("nil notification")
	}
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.Create", trace.WithAttributes(
		attribute.Int64("user.id", n.UserID),
		attribute.String("notification.type", string(n.Type)),
	))
	defer span.End()

	n.IsRead = false
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := r.writer.NewInsert().Model(n).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// List returns a page of a user's notifications, newest first, with the total
// matching the filters and the unread count computed independently so it
// reflects the true unread total even on a filtered page.
func (r *Repository) List(ctx context.Context, userID int64, filter Filter) ([]entity.Notification, int64, int64, error) {
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.List", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := r.reader.NewSelect().
		Model((*entity.Notification)(nil)).
		Where("user_id = ?", userID)
	q = applyFilter(q, filter)

	total, err := q.Count(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return nil, 0, 0, err
	}

	var items []entity.Notification
	err = r.reader.NewSelect().
		Model(&items).
		Where("user_id = ?", userID).
		Apply(func(sq *bun.SelectQuery) *bun.SelectQuery { return applyFilter(sq, filter) }).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, 0, err
	}

	unread, err := r.UnreadCount(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return nil, 0, 0, err
	}

	return items, int64(total), unread, nil
}

func applyFilter(q *bun.SelectQuery, filter Filter) *bun.SelectQuery {
	if filter.Type != nil {
		q = q.Where("type = ?", *filter.Type)
	}
	if filter.IsRead != nil {
		q = q.Where("is_read = ?", *filter.IsRead)
	}
	if filter.UnreadOnly {
		q = q.Where("is_read = ?", false)
	}
	return q
}

// UnreadCount returns the user's unread total.
func (r *Repository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := r.reader.NewSelect().
		Model((*entity.Notification)(nil)).
		Where("user_id = ?", userID).
		Where("is_read = ?", false).
		Count(ctx)
	return int64(count), err
}

// MarkRead flips a single notification to read. Marking an already-read row
// succeeds; a missing row reports ErrNotFound.
func (r *Repository) MarkRead(ctx context.Context, notificationID int64) (*entity.Notification, error) {
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.MarkRead", trace.WithAttributes(attribute.Int64("notification.id", notificationID)))
	defer span.End()

	n := new(entity.Notification)
	err := r.reader.NewSelect().Model(n).Where("id = ?", notificationID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if !n.IsRead {
		_, err = r.writer.NewUpdate().
			Model((*entity.Notification)(nil)).
			Set("is_read = ?", true).
			Where("id = ?", notificationID).
			Exec(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "update failed")
			return nil, err
		}
		n.IsRead = true
	}
	return n, nil
}

// MarkAllRead flips every unread row for the user and returns the count flipped.
func (r *Repository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.MarkAllRead", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	res, err := r.writer.NewUpdate().
		Model((*entity.Notification)(nil)).
		Set("is_read = ?", true).
		Where("user_id = ?", userID).
		Where("is_read = ?", false).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, err
	}
	return res.RowsAffected()
}

// GetStats aggregates the user's notification counters from the source of
// truth. No cached counters; every call recomputes.
func (r *Repository) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	ctx, span := repoTracer.Start(ctx, "NotificationRepository.GetStats", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	var rows []entity.Notification
	err := r.reader.NewSelect().
		Model(&rows).
		Column("type", "is_read", "created_at").
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}

	stats := &Stats{PerType: make(map[entity.NotificationType]int)}
	for _, row := range rows {
		stats.Total++
		if !row.IsRead {
			stats.Unread++
		}
		stats.PerType[row.Type]++
		if stats.LatestAt == nil || row.CreatedAt.After(*stats.LatestAt) {
			t := row.CreatedAt
			stats.LatestAt = &t
		}
	}
	return stats, nil
}
