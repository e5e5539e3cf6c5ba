package order

import (
	"time"

	"github.com/Additional-Code/medichain/internal/entity"
)

// LifecycleEvent is emitted to the message bus after every order transition.
// The background worker picks approved/rejected events up for invoice and
// email processing.
type LifecycleEvent struct {
	EventID        string             `json:"event_id"`
	OrderID        string             `json:"order_id"`
	Status         entity.OrderStatus `json:"status"`
	Reason         string             `json:"reason,omitempty"`
	ManufacturerID int64              `json:"manufacturer_id"`
	WholesalerID   int64              `json:"wholesaler_id"`
	ProductID      int64              `json:"product_id"`
	Quantity       int                `json:"quantity"`
	TotalAmount    float64            `json:"total_amount"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// NewOrderPush is the realtime payload sent to the manufacturer when a
// wholesaler places an order. It carries the full order context so the
// dashboard can render without a follow-up fetch.
type NewOrderPush struct {
	OrderID               string  `json:"order_id"`
	ProductID             int64   `json:"product_id"`
	ProductName           string  `json:"product_name"`
	Quantity              int     `json:"quantity"`
	UnitPrice             float64 `json:"unit_price"`
	TotalAmount           float64 `json:"total_amount"`
	GSTAmount             float64 `json:"gst_amount"`
	PaymentMode           string  `json:"payment_mode"`
	DeliveryAddress       string  `json:"delivery_address"`
	PreferredDeliveryDate string  `json:"preferred_delivery_date"`
	Notes                 string  `json:"notes"`
	ManufacturerID        int64   `json:"manufacturer_id"`
	WholesalerID          int64   `json:"wholesaler_id"`
	WholesalerName        string  `json:"wholesaler_name"`
	Timestamp             string  `json:"timestamp"`
}

// StatusUpdatePush is the realtime payload sent to the wholesaler when the
// manufacturer moves their order.
type StatusUpdatePush struct {
	OrderID string             `json:"orderId"`
	Status  entity.OrderStatus `json:"status"`
	Message string             `json:"message"`
}

// UnreadCountPush refreshes a client's notification badge.
type UnreadCountPush struct {
	UnreadCount int64 `json:"unreadCount"`
}
