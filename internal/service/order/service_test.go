package order

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/realtime"
	repo "github.com/Additional-Code/medichain/internal/repository/order"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[string]*entity.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[string]*entity.Order)}
}

func (s *fakeOrderStore) Create(_ context.Context, order *entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *order
	s.orders[order.OrderID] = &cp
	return nil
}

func (s *fakeOrderStore) GetByOrderID(_ context.Context, orderID string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *order
	return &cp, nil
}

func (s *fakeOrderStore) ListByManufacturer(_ context.Context, manufacturerID int64) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.ManufacturerID == manufacturerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

func (s *fakeOrderStore) ListByWholesaler(_ context.Context, wholesalerID int64) ([]entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Order
	for _, order := range s.orders {
		if order.WholesalerID == wholesalerID {
			out = append(out, *order)
		}
	}
	return out, nil
}

// Transition mimics the conditional UPDATE: the check and the write happen
// under one lock, so exactly one racing caller can win.
func (s *fakeOrderStore) Transition(_ context.Context, orderID string, from, to entity.OrderStatus, rejectionReason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if order.Status != from {
		return repo.ErrStale
	}
	order.Status = to
	order.RejectionReason = rejectionReason
	return nil
}

func (s *fakeOrderStore) UpdateStatus(_ context.Context, orderID string, status entity.OrderStatus, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	order.Status = status
	if notes != nil {
		order.Notes = *notes
	}
	return nil
}

type fakeNotificationStore struct {
	mu      sync.Mutex
	created []entity.Notification
	fail    bool
}

func (s *fakeNotificationStore) Create(_ context.Context, n *entity.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("notification store down")
	}
	s.created = append(s.created, *n)
	return nil
}

func (s *fakeNotificationStore) UnreadCount(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return 0, errors.New("notification store down")
	}
	var count int64
	for _, n := range s.created {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *fakeNotificationStore) byType(t entity.NotificationType) []entity.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []entity.Notification
	for _, n := range s.created {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

type fakeStockStore struct {
	mu         sync.Mutex
	decrements map[int64]int
	fail       bool
}

func newFakeStockStore() *fakeStockStore {
	return &fakeStockStore{decrements: make(map[int64]int)}
}

func (s *fakeStockStore) DecrementStock(_ context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("stock store down")
	}
	s.decrements[productID] += quantity
	return nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *fakePublisher) Publish(_ context.Context, _ []byte, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, value)
	return nil
}

func (p *fakePublisher) events(t *testing.T) []LifecycleEvent {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LifecycleEvent, 0, len(p.messages))
	for _, raw := range p.messages {
		var event LifecycleEvent
		require.NoError(t, json.Unmarshal(raw, &event))
		out = append(out, event)
	}
	return out
}

type testHarness struct {
	svc           *Service
	orders        *fakeOrderStore
	notifications *fakeNotificationStore
	stock         *fakeStockStore
	publisher     *fakePublisher
	hub           *realtime.MemoryHub
}

func newHarness() *testHarness {
	orders := newFakeOrderStore()
	notifications := &fakeNotificationStore{}
	stock := newFakeStockStore()
	publisher := &fakePublisher{}
	hub := realtime.NewMemoryHub(32)

	svc := NewService(orders, notifications, stock, hub, publisher, nil, 0, zap.NewNop())
	return &testHarness{
		svc:           svc,
		orders:        orders,
		notifications: notifications,
		stock:         stock,
		publisher:     publisher,
		hub:           hub,
	}
}

func (h *testHarness) seedOrder(t *testing.T, orderID string, status entity.OrderStatus) {
	t.Helper()
	require.NoError(t, h.orders.Create(context.Background(), &entity.Order{
		OrderID:        orderID,
		ManufacturerID: 1,
		WholesalerID:   2,
		ProductID:      3,
		Quantity:       5,
		UnitPrice:      100,
		TotalAmount:    590,
		GSTPercentage:  18,
		GSTAmount:      90,
		Status:         status,
	}))
}

func drain(sub realtime.Subscription) []realtime.Event {
	var out []realtime.Event
	for {
		select {
		case event := <-sub.Events():
			out = append(out, event)
		default:
			return out
		}
	}
}

func kindOf(t *testing.T, err error) errorbank.Kind {
	t.Helper()
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Kind()
}

func TestPlaceOrderDefaultsAndNotifies(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	sub, err := h.hub.Join(ctx, realtime.ManufacturerChannel(1))
	require.NoError(t, err)

	orderID, err := h.svc.PlaceOrder(ctx, PlaceOrderInput{
		ManufacturerID: 1,
		WholesalerID:   2,
		ProductID:      3,
		Quantity:       10,
		UnitPrice:      100,
		ProductName:    "Paracetamol 500mg",
		WholesalerName: "Metro Medical",
	})
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	order, err := h.orders.GetByOrderID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPending, order.Status)
	assert.Equal(t, 18.0, order.GSTPercentage)
	assert.Equal(t, 180.0, order.GSTAmount)
	assert.Equal(t, 1180.0, order.TotalAmount)

	requests := h.notifications.byType(entity.NotificationOrderRequest)
	require.Len(t, requests, 1)
	assert.Equal(t, int64(1), requests[0].UserID)
	assert.Equal(t, "New Order Request!", requests[0].Title)

	events := drain(sub)
	require.NotEmpty(t, events)
	assert.Equal(t, realtime.EventNewOrder, events[0].Name)

	var push NewOrderPush
	require.NoError(t, json.Unmarshal(events[0].Payload, &push))
	assert.Equal(t, orderID, push.OrderID)
	assert.Equal(t, "Paracetamol 500mg", push.ProductName)
	assert.Equal(t, "Metro Medical", push.WholesalerName)

	lifecycle := h.publisher.events(t)
	require.Len(t, lifecycle, 1)
	assert.Equal(t, entity.OrderStatusPending, lifecycle[0].Status)
}

func TestPlaceOrderValidation(t *testing.T) {
	h := newHarness()

	cases := []struct {
		name string
		in   PlaceOrderInput
	}{
		{"missing parties", PlaceOrderInput{ProductID: 3, Quantity: 1, UnitPrice: 1}},
		{"zero quantity", PlaceOrderInput{ManufacturerID: 1, WholesalerID: 2, ProductID: 3, Quantity: 0, UnitPrice: 1}},
		{"negative price", PlaceOrderInput{ManufacturerID: 1, WholesalerID: 2, ProductID: 3, Quantity: 1, UnitPrice: -1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.PlaceOrder(context.Background(), tc.in)
			require.Error(t, err)
			assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
		})
	}
}

func TestApproveHappyPath(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.seedOrder(t, "ORD-1", entity.OrderStatusPending)

	sub, err := h.hub.Join(ctx, realtime.WholesalerChannel(2))
	require.NoError(t, err)

	require.NoError(t, h.svc.Approve(ctx, "ORD-1"))

	order, err := h.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, order.Status)
	assert.Equal(t, 5, h.stock.decrements[3])

	approved := h.notifications.byType(entity.NotificationOrderApproved)
	require.Len(t, approved, 1)
	assert.Equal(t, int64(2), approved[0].UserID)
	assert.Equal(t, "Order Approved!", approved[0].Title)

	events := drain(sub)
	require.NotEmpty(t, events)
	assert.Equal(t, realtime.EventOrderStatusUpdate, events[0].Name)

	var push StatusUpdatePush
	require.NoError(t, json.Unmarshal(events[0].Payload, &push))
	assert.Equal(t, "ORD-1", push.OrderID)
	assert.Equal(t, entity.OrderStatusApproved, push.Status)
}

func TestApproveNonPendingOrder(t *testing.T) {
	h := newHarness()
	h.seedOrder(t, "ORD-1", entity.OrderStatusApproved)

	err := h.svc.Approve(context.Background(), "ORD-1")

	require.Error(t, err)
	assert.Equal(t, errorbank.KindInvalidTransition, kindOf(t, err))
}

func TestApproveMissingOrder(t *testing.T) {
	h := newHarness()

	err := h.svc.Approve(context.Background(), "ORD-NOPE")

	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
}

func TestConcurrentApproveSingleWinner(t *testing.T) {
	h := newHarness()
	h.seedOrder(t, "ORD-1", entity.OrderStatusPending)

	const racers = 8
	results := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- h.svc.Approve(context.Background(), "ORD-1")
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, errorbank.KindInvalidTransition, kindOf(t, err))
		losses++
	}

	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, losses)

	order, err := h.orders.GetByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusApproved, order.Status)
	assert.Equal(t, 5, h.stock.decrements[3])
}

func TestRejectDefaultsReason(t *testing.T) {
	h := newHarness()
	h.seedOrder(t, "ORD-1", entity.OrderStatusPending)

	require.NoError(t, h.svc.Reject(context.Background(), "ORD-1", "  "))

	order, err := h.orders.GetByOrderID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusRejected, order.Status)
	require.NotNil(t, order.RejectionReason)
	assert.Equal(t, "No reason provided", *order.RejectionReason)

	rejected := h.notifications.byType(entity.NotificationOrderRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "Order Rejected", rejected[0].Title)
	assert.Contains(t, rejected[0].Message, "Reason: No reason provided")
}

func TestSideEffectFailureDoesNotFailTransition(t *testing.T) {
	h := newHarness()
	h.seedOrder(t, "ORD-1", entity.OrderStatusPending)
	h.notifications.fail = true
	h.stock.fail = true

	err := h.svc.Approve(context.Background(), "ORD-1")

	require.NoError(t, err)
	order, getErr := h.orders.GetByOrderID(context.Background(), "ORD-1")
	require.NoError(t, getErr)
	assert.Equal(t, entity.OrderStatusApproved, order.Status)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	h := newHarness()
	h.seedOrder(t, "ORD-1", entity.OrderStatusPending)

	err := h.svc.UpdateStatus(context.Background(), "ORD-1", "in_flight", nil)

	require.Error(t, err)
	assert.Equal(t, errorbank.KindBadRequest, kindOf(t, err))
}

func TestUpdateStatusShippedBroadcastsGenericUpdate(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.seedOrder(t, "ORD-1", entity.OrderStatusApproved)

	sub, err := h.hub.Join(ctx, realtime.WholesalerChannel(2))
	require.NoError(t, err)

	require.NoError(t, h.svc.UpdateStatus(ctx, "ORD-1", entity.OrderStatusShipped, nil))

	order, err := h.orders.GetByOrderID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusShipped, order.Status)

	events := drain(sub)
	require.NotEmpty(t, events)
	var push StatusUpdatePush
	require.NoError(t, json.Unmarshal(events[0].Payload, &push))
	assert.Equal(t, entity.OrderStatusShipped, push.Status)
}

// UpdateStatus to approved re-runs the approval side effects without the
// pending guard. The duplicate notification is tolerated by contract.
func TestUpdateStatusApprovedRerunsSideEffects(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.seedOrder(t, "ORD-1", entity.OrderStatusApproved)

	require.NoError(t, h.svc.UpdateStatus(ctx, "ORD-1", entity.OrderStatusApproved, nil))

	approved := h.notifications.byType(entity.NotificationOrderApproved)
	require.Len(t, approved, 1)
	// Stock is only touched on the guarded Approve path.
	assert.Zero(t, h.stock.decrements[3])
}

func TestGetMissingOrder(t *testing.T) {
	h := newHarness()

	_, err := h.svc.Get(context.Background(), "ORD-NOPE")

	require.Error(t, err)
	assert.Equal(t, errorbank.KindNotFound, kindOf(t, err))
}
