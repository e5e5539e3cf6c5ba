package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/medichain/internal/cache"
	"github.com/Additional-Code/medichain/internal/entity"
	"github.com/Additional-Code/medichain/internal/realtime"
	repo "github.com/Additional-Code/medichain/internal/repository/order"
	"github.com/Additional-Code/medichain/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/Additional-Code/medichain/service/order")

// sideEffectTimeout bounds each non-authoritative side effect so a slow
// notification write or broadcast never holds up the caller's response.
const sideEffectTimeout = 2 * time.Second

const defaultGSTPercentage = 18

// OrderStore is the persistence seam for orders. The store performs
// unconditional writes except for Transition; the coordinator is the sole
// gatekeeper of transition legality.
type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*entity.Order, error)
	ListByManufacturer(ctx context.Context, manufacturerID int64) ([]entity.Order, error)
	ListByWholesaler(ctx context.Context, wholesalerID int64) ([]entity.Order, error)
	Transition(ctx context.Context, orderID string, from, to entity.OrderStatus, rejectionReason *string) error
	UpdateStatus(ctx context.Context, orderID string, status entity.OrderStatus, notes *string) error
}

// NotificationStore is the durable notification log the coordinator appends to.
type NotificationStore interface {
	Create(ctx context.Context, n *entity.Notification) error
	UnreadCount(ctx context.Context, userID int64) (int64, error)
}

// StockStore adjusts product inventory.
type StockStore interface {
	DecrementStock(ctx context.Context, productID int64, quantity int) error
}

// EventPublisher pushes lifecycle events onto the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, key []byte, value []byte) error
}

// Service coordinates the order lifecycle. Every transition runs the same
// sequence: authoritative order write first, then notification write, then
// realtime broadcast, then bus publication. Only the order write decides the
// caller's outcome; each later step is independently best-effort.
type Service struct {
	orders        OrderStore
	notifications NotificationStore
	stock         StockStore
	broadcaster   realtime.Broadcaster
	publisher     EventPublisher
	cache         cache.Store
	cacheTTL      time.Duration
	logger        *zap.Logger
}

// NewService wires a coordinator from its collaborators.
func NewService(orders OrderStore, notifications NotificationStore, stock StockStore, broadcaster realtime.Broadcaster, publisher EventPublisher, cacheStore cache.Store, cacheTTL time.Duration, logger *zap.Logger) *Service {
	return &Service{
		orders:        orders,
		notifications: notifications,
		stock:         stock,
		broadcaster:   broadcaster,
		publisher:     publisher,
		cache:         cacheStore,
		cacheTTL:      cacheTTL,
		logger:        logger,
	}
}

// PlaceOrderInput is the draft a wholesaler submits. Display names ride along
// so the manufacturer's realtime push can render without extra lookups.
type PlaceOrderInput struct {
	OrderID               string
	ManufacturerID        int64
	WholesalerID          int64
	ProductID             int64
	Quantity              int
	UnitPrice             float64
	TotalAmount           float64
	GSTPercentage         float64
	GSTAmount             float64
	PaymentMode           string
	DeliveryAddress       string
	PreferredDeliveryDate string
	Notes                 string
	ProductName           string
	WholesalerName        string
}

// PlaceOrder validates the draft, persists the order in pending state, and
// notifies the manufacturer. The order write is authoritative: notification
// and broadcast failures are logged, never surfaced as order failure.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (string, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.PlaceOrder", trace.WithAttributes(attribute.String("order.id", in.OrderID)))
	defer span.End()

	if in.ManufacturerID <= 0 || in.WholesalerID <= 0 || in.ProductID <= 0 {
		return "", errorbank.BadRequest("manufacturer, wholesaler and product are required")
	}
	if in.Quantity <= 0 {
		return "", errorbank.BadRequest("quantity must be positive")
	}
	if in.UnitPrice < 0 {
		return "", errorbank.BadRequest("unit price must not be negative")
	}

	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		orderID = "ORD-" + uuid.NewString()
	}

	gstPct := in.GSTPercentage
	if gstPct <= 0 {
		gstPct = defaultGSTPercentage
	}
	base := float64(in.Quantity) * in.UnitPrice
	gstAmount := in.GSTAmount
	if gstAmount <= 0 {
		gstAmount = base * gstPct / 100
	}
	total := in.TotalAmount
	if total <= 0 {
		total = base + gstAmount
	}

	now := time.Now().UTC()
	order := &entity.Order{
		OrderID:               orderID,
		ManufacturerID:        in.ManufacturerID,
		WholesalerID:          in.WholesalerID,
		ProductID:             in.ProductID,
		Quantity:              in.Quantity,
		UnitPrice:             in.UnitPrice,
		TotalAmount:           total,
		GSTPercentage:         gstPct,
		GSTAmount:             gstAmount,
		PaymentMode:           in.PaymentMode,
		DeliveryAddress:       in.DeliveryAddress,
		PreferredDeliveryDate: in.PreferredDeliveryDate,
		Notes:                 in.Notes,
		Status:                entity.OrderStatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.orders.Create(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return "", errorbank.Internal("failed to save order", errorbank.WithCause(err))
	}

	s.notify(ctx, order.ManufacturerID, entity.NotificationOrderRequest, orderID, "")
	s.broadcast(ctx, realtime.ManufacturerChannel(order.ManufacturerID), realtime.EventNewOrder, NewOrderPush{
		OrderID:               orderID,
		ProductID:             order.ProductID,
		ProductName:           in.ProductName,
		Quantity:              order.Quantity,
		UnitPrice:             order.UnitPrice,
		TotalAmount:           order.TotalAmount,
		GSTAmount:             order.GSTAmount,
		PaymentMode:           order.PaymentMode,
		DeliveryAddress:       order.DeliveryAddress,
		PreferredDeliveryDate: order.PreferredDeliveryDate,
		Notes:                 order.Notes,
		ManufacturerID:        order.ManufacturerID,
		WholesalerID:          order.WholesalerID,
		WholesalerName:        in.WholesalerName,
		Timestamp:             now.Format(time.RFC3339),
	})
	s.pushUnreadCount(ctx, order.ManufacturerID, realtime.ManufacturerChannel(order.ManufacturerID))
	s.publishLifecycle(ctx, order, "")

	return orderID, nil
}

// Approve moves a pending order to approved, decrements stock, and notifies
// the wholesaler. Losing a race to a concurrent transition yields
// InvalidTransition; the winner's status stands.
func (s *Service) Approve(ctx context.Context, orderID string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Approve", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if strings.TrimSpace(orderID) == "" {
		return errorbank.BadRequest("order id is required")
	}

	if err := s.transition(ctx, orderID, entity.OrderStatusPending, entity.OrderStatusApproved, nil); err != nil {
		span.RecordError(err)
		return err
	}
	s.invalidateCache(ctx, orderID)

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		// The transition is committed; missing context only degrades the
		// side effects.
		s.logger.Error("load approved order for side effects",
			zap.String("order_id", orderID), zap.Error(err))
		return nil
	}

	if err := s.stock.DecrementStock(ctx, order.ProductID, order.Quantity); err != nil {
		s.logger.Warn("product stock update failed",
			zap.String("order_id", orderID),
			zap.Int64("product_id", order.ProductID),
			zap.Error(err))
	}

	s.notify(ctx, order.WholesalerID, entity.NotificationOrderApproved, orderID, "")
	s.broadcast(ctx, realtime.WholesalerChannel(order.WholesalerID), realtime.EventOrderStatusUpdate, StatusUpdatePush{
		OrderID: orderID,
		Status:  entity.OrderStatusApproved,
		Message: "Your order has been approved by the manufacturer",
	})
	s.pushUnreadCount(ctx, order.WholesalerID, realtime.WholesalerChannel(order.WholesalerID))
	s.publishLifecycle(ctx, order, "")

	return nil
}

// Reject moves a pending order to rejected with a reason and notifies the
// wholesaler.
func (s *Service) Reject(ctx context.Context, orderID, reason string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Reject", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if strings.TrimSpace(orderID) == "" {
		return errorbank.BadRequest("order id is required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "No reason provided"
	}

	if err := s.transition(ctx, orderID, entity.OrderStatusPending, entity.OrderStatusRejected, &reason); err != nil {
		span.RecordError(err)
		return err
	}
	s.invalidateCache(ctx, orderID)

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("load rejected order for side effects",
			zap.String("order_id", orderID), zap.Error(err))
		return nil
	}

	s.notify(ctx, order.WholesalerID, entity.NotificationOrderRejected, orderID, reason)
	s.broadcast(ctx, realtime.WholesalerChannel(order.WholesalerID), realtime.EventOrderStatusUpdate, StatusUpdatePush{
		OrderID: orderID,
		Status:  entity.OrderStatusRejected,
		Message: "Order rejected: " + reason,
	})
	s.pushUnreadCount(ctx, order.WholesalerID, realtime.WholesalerChannel(order.WholesalerID))
	s.publishLifecycle(ctx, order, reason)

	return nil
}

// UpdateStatus is the generic override used for shipped/delivered/cancelled.
// It validates enum membership only and writes unconditionally. When the new
// status is approved or rejected it re-runs that branch's notification and
// broadcast; both paths firing for one transition is tolerated, consumers
// treat notifications idempotently.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status entity.OrderStatus, notes *string) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.status", string(status)),
	))
	defer span.End()

	if strings.TrimSpace(orderID) == "" {
		return errorbank.BadRequest("order id is required")
	}
	if !status.Valid() {
		return errorbank.BadRequest(fmt.Sprintf("invalid status: %s", status))
	}

	if err := s.orders.UpdateStatus(ctx, orderID, status, notes); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
	s.invalidateCache(ctx, orderID)

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		s.logger.Error("load updated order for side effects",
			zap.String("order_id", orderID), zap.Error(err))
		return nil
	}

	switch status {
	case entity.OrderStatusApproved:
		s.notify(ctx, order.WholesalerID, entity.NotificationOrderApproved, orderID, "")
		s.broadcast(ctx, realtime.WholesalerChannel(order.WholesalerID), realtime.EventOrderStatusUpdate, StatusUpdatePush{
			OrderID: orderID,
			Status:  entity.OrderStatusApproved,
			Message: "Your order has been approved by the manufacturer",
		})
		s.pushUnreadCount(ctx, order.WholesalerID, realtime.WholesalerChannel(order.WholesalerID))
	case entity.OrderStatusRejected:
		reason := "No reason provided"
		if notes != nil && strings.TrimSpace(*notes) != "" {
			reason = strings.TrimSpace(*notes)
		}
		s.notify(ctx, order.WholesalerID, entity.NotificationOrderRejected, orderID, reason)
		s.broadcast(ctx, realtime.WholesalerChannel(order.WholesalerID), realtime.EventOrderStatusUpdate, StatusUpdatePush{
			OrderID: orderID,
			Status:  entity.OrderStatusRejected,
			Message: "Order rejected: " + reason,
		})
		s.pushUnreadCount(ctx, order.WholesalerID, realtime.WholesalerChannel(order.WholesalerID))
	default:
		s.broadcast(ctx, realtime.WholesalerChannel(order.WholesalerID), realtime.EventOrderStatusUpdate, StatusUpdatePush{
			OrderID: orderID,
			Status:  status,
			Message: fmt.Sprintf("Order status updated to %s", status),
		})
	}

	s.publishLifecycle(ctx, order, "")
	return nil
}

// Get retrieves an order by its public identifier, consulting cache first.
func (s *Service) Get(ctx context.Context, orderID string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if cached, err := s.getFromCache(ctx, orderID); err == nil {
		return cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.String("order_id", orderID), zap.Error(err))
	}

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.String("order_id", orderID), zap.Error(err))
	}

	return order, nil
}

// ListByManufacturer returns a manufacturer's orders, newest first.
func (s *Service) ListByManufacturer(ctx context.Context, manufacturerID int64) ([]entity.Order, error) {
	orders, err := s.orders.ListByManufacturer(ctx, manufacturerID)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// ListByWholesaler returns a wholesaler's orders, newest first.
func (s *Service) ListByWholesaler(ctx context.Context, wholesalerID int64) ([]entity.Order, error) {
	orders, err := s.orders.ListByWholesaler(ctx, wholesalerID)
	if err != nil {
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

func (s *Service) transition(ctx context.Context, orderID string, from, to entity.OrderStatus, reason *string) error {
	err := s.orders.Transition(ctx, orderID, from, to, reason)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return errorbank.NotFound("order not found")
	case errors.Is(err, repo.ErrStale):
		return errorbank.InvalidTransition(
			fmt.Sprintf("order is no longer %s", from),
			errorbank.WithDetail("order_id", orderID),
		)
	default:
		return errorbank.Internal("failed to update order status", errorbank.WithCause(err))
	}
}

// sideEffectCtx detaches a side effect from the caller's cancellation while
// still bounding its runtime.
func sideEffectCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

// notify appends a durable notification. Failures are logged with enough
// context to reconstruct intent and never propagate.
func (s *Service) notify(ctx context.Context, userID int64, t entity.NotificationType, orderID, reason string) {
	nCtx, cancel := sideEffectCtx(ctx)
	defer cancel()

	n := orderNotification(userID, t, orderID, reason)
	if err := s.notifications.Create(nCtx, n); err != nil {
		s.logger.Error("notification write failed",
			zap.String("order_id", orderID),
			zap.Int64("user_id", userID),
			zap.String("type", string(t)),
			zap.Error(err))
	}
}

// broadcast fires a realtime event. Delivery is best-effort by contract;
// failures are logged only.
func (s *Service) broadcast(ctx context.Context, channel, event string, payload any) {
	bCtx, cancel := sideEffectCtx(ctx)
	defer cancel()

	if err := s.broadcaster.Publish(bCtx, channel, event, payload); err != nil {
		s.logger.Error("realtime broadcast failed",
			zap.String("channel", channel),
			zap.String("event", event),
			zap.Error(err))
	}
}

func (s *Service) pushUnreadCount(ctx context.Context, userID int64, channel string) {
	nCtx, cancel := sideEffectCtx(ctx)
	defer cancel()

	unread, err := s.notifications.UnreadCount(nCtx, userID)
	if err != nil {
		s.logger.Warn("unread count lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return
	}
	s.broadcast(ctx, channel, realtime.EventUnreadCountUpdate, UnreadCountPush{UnreadCount: unread})
}

func (s *Service) publishLifecycle(ctx context.Context, order *entity.Order, reason string) {
	if s.publisher == nil {
		return
	}
	pCtx, cancel := sideEffectCtx(ctx)
	defer cancel()

	event := LifecycleEvent{
		EventID:        uuid.NewString(),
		OrderID:        order.OrderID,
		Status:         order.Status,
		Reason:         reason,
		ManufacturerID: order.ManufacturerID,
		WholesalerID:   order.WholesalerID,
		ProductID:      order.ProductID,
		Quantity:       order.Quantity,
		TotalAmount:    order.TotalAmount,
		OccurredAt:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal lifecycle event", zap.String("order_id", order.OrderID), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(pCtx, []byte(order.OrderID), payload); err != nil {
		s.logger.Error("publish lifecycle event",
			zap.String("order_id", order.OrderID),
			zap.String("status", string(order.Status)),
			zap.Error(err))
	}
}

// orderNotification builds the per-event notification copy.
func orderNotification(userID int64, t entity.NotificationType, orderID, reason string) *entity.Notification {
	n := &entity.Notification{
		UserID:         userID,
		Type:           t,
		RelatedOrderID: &orderID,
	}
	switch t {
	case entity.NotificationOrderRequest:
		n.Title = "New Order Request!"
		n.Message = fmt.Sprintf("New order #%s has been placed.", orderID)
	case entity.NotificationOrderApproved:
		n.Title = "Order Approved!"
		n.Message = fmt.Sprintf("Your order #%s has been approved by the manufacturer.", orderID)
	case entity.NotificationOrderRejected:
		n.Title = "Order Rejected"
		n.Message = fmt.Sprintf("Order #%s was rejected. Reason: %s", orderID, reason)
	case entity.NotificationInvoiceSent:
		n.Title = "Invoice Sent"
		n.Message = fmt.Sprintf("Invoice for order #%s has been generated and sent.", orderID)
	}
	return n
}

func (s *Service) cacheKey(orderID string) string {
	return "orders:" + orderID
}

func (s *Service) getFromCache(ctx context.Context, orderID string) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(orderID))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.OrderID), bytes, s.cacheTTL)
}

func (s *Service) invalidateCache(ctx context.Context, orderID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(orderID)); err != nil {
		s.logger.Warn("orders cache invalidation failed", zap.String("order_id", orderID), zap.Error(err))
	}
}
