package notification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/realtime"
	repo "github.com/Additional-Code/medichain/internal/repository/notification"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

type fakeStore struct {
	notifications []entity.Notification
}

func (s *fakeStore) List(_ context.Context, userID int64, filter repo.Filter) ([]entity.Notification, int64, int64, error) {
	var matched []entity.Notification
	var unread int64
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		if !n.IsRead {
			unread++
		}
		if filter.Type != nil && n.Type != *filter.Type {
			continue
		}
		if filter.IsRead != nil && n.IsRead != *filter.IsRead {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		matched = append(matched, n)
	}

	total := int64(len(matched))
	start := (filter.Page - 1) * filter.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, unread, nil
}

func (s *fakeStore) MarkRead(_ context.Context, notificationID int64) (*entity.Notification, error) {
	for i := range s.notifications {
		if s.notifications[i].ID == notificationID {
			s.notifications[i].IsRead = true
			cp := s.notifications[i]
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *fakeStore) MarkAllRead(_ context.Context, userID int64) (int64, error) {
	var affected int64
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].IsRead {
			s.notifications[i].IsRead = true
			affected++
		}
	}
	return affected, nil
}

func (s *fakeStore) UnreadCount(_ context.Context, userID int64) (int64, error) {
	var count int64
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeStore) GetStats(_ context.Context, userID int64) (*repo.Stats, error) {
	stats := &repo.Stats{PerType: make(map[entity.NotificationType]int)}
	for _, n := range s.notifications {
		if n.UserID != userID {
			continue
		}
		stats.Total++
		if !n.IsRead {
			stats.Unread++
		}
		stats.PerType[n.Type]++
	}
	return stats, nil
}

func seedStore() *fakeStore {
	now := time.Now().UTC()
	orderID := "ORD-1"
	return &fakeStore{notifications: []entity.Notification{
		{ID: 1, UserID: 9, Title: "New Order Request!", Type: entity.NotificationOrderRequest, RelatedOrderID: &orderID, CreatedAt: now},
		{ID: 2, UserID: 9, Title: "Order Approved!", Type: entity.NotificationOrderApproved, RelatedOrderID: &orderID, IsRead: true, CreatedAt: now},
		{ID: 3, UserID: 9, Title: "Invoice Sent", Type: entity.NotificationInvoiceSent, RelatedOrderID: &orderID, CreatedAt: now},
		{ID: 4, UserID: 8, Title: "New Order Request!", Type: entity.NotificationOrderRequest, CreatedAt: now},
	}}
}

func newTestService() (*Service, *fakeStore, *realtime.MemoryHub) {
	store := seedStore()
	hub := realtime.NewMemoryHub(8)
	return NewService(store, hub, zap.NewNop()), store, hub
}

func TestListUnreadCountIndependentOfFilter(t *testing.T) {
	svc, _, _ := newTestService()

	isRead := true
	items, page, err := svc.List(context.Background(), 9, repo.Filter{IsRead: &isRead, Page: 1, Limit: 10})
	require.NoError(t, err)

	// The page holds only read items, yet the badge still counts unread ones.
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), page.UnreadCount)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, int64(1), page.TotalPages)
}

func TestListPagination(t *testing.T) {
	svc, _, _ := newTestService()

	items, page, err := svc.List(context.Background(), 9, repo.Filter{Page: 1, Limit: 2})
	require.NoError(t, err)

	assert.Len(t, items, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, int64(2), page.TotalPages)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.MarkRead(ctx, 1))
	require.NoError(t, svc.MarkRead(ctx, 1))

	assert.True(t, store.notifications[0].IsRead)
}

func TestMarkReadMissingNotification(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.MarkRead(context.Background(), 404)

	require.Error(t, err)
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
}

func TestMarkReadPushesUnreadCount(t *testing.T) {
	svc, _, hub := newTestService()
	ctx := context.Background()

	sub, err := hub.Join(ctx, realtime.UserChannel(9))
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(ctx, 1))

	select {
	case event := <-sub.Events():
		assert.Equal(t, realtime.EventUnreadCountUpdate, event.Name)
		var payload map[string]int64
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, int64(1), payload["unreadCount"])
	case <-time.After(time.Second):
		t.Fatal("expected unread count push")
	}
}

func TestMarkAllRead(t *testing.T) {
	svc, store, hub := newTestService()
	ctx := context.Background()

	sub, err := hub.Join(ctx, realtime.UserChannel(9))
	require.NoError(t, err)

	affected, err := svc.MarkAllRead(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	for _, n := range store.notifications {
		if n.UserID == 9 {
			assert.True(t, n.IsRead)
		}
	}

	select {
	case event := <-sub.Events():
		var payload map[string]int64
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, int64(0), payload["unreadCount"])
	case <-time.After(time.Second):
		t.Fatal("expected unread count push")
	}
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestService()

	stats, err := svc.Stats(context.Background(), 9)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.Unread)
	assert.Equal(t, 1, stats.PerType[entity.NotificationInvoiceSent])
}
