package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// NotificationType enumerates supported notification categories.
type NotificationType string

const (
	NotificationOrderRequest  NotificationType = "order_request"
	NotificationOrderApproved NotificationType = "order_approved"
	NotificationOrderRejected NotificationType = "order_rejected"
	NotificationInvoiceSent   NotificationType = "invoice_sent"
)

// Valid reports whether the type is a recognized notification category.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationOrderRequest, NotificationOrderApproved,
		NotificationOrderRejected, NotificationInvoiceSent:
		return true
	}
	return false
}

// Notification is a durable, user-owned record of a lifecycle event. The
// realtime path may drop events; this row is the source of truth.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	ID             int64            `bun:",pk,autoincrement" json:"id"`
	UserID         int64            `bun:"user_id" json:"user_id"`
	Title          string           `bun:"title" json:"title"`
	Message        string           `bun:"message" json:"message"`
	Type           NotificationType `bun:"type" json:"type"`
	RelatedOrderID *string          `bun:"related_order_id" json:"related_order_id,omitempty"`
	IsRead         bool             `bun:"is_read" json:"is_read"`
	CreatedAt      time.Time        `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
