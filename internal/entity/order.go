package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusRejected  OrderStatus = "rejected"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether the status is a recognized lifecycle state.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusApproved, OrderStatusRejected,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted from the status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusRejected, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order represents a wholesaler's purchase order against a manufacturer's product.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID                    int64       `bun:",pk,autoincrement" json:"id"`
	OrderID               string      `bun:"order_id" json:"order_id"`
	ManufacturerID        int64       `bun:"manufacturer_id" json:"manufacturer_id"`
	WholesalerID          int64       `bun:"wholesaler_id" json:"wholesaler_id"`
	ProductID             int64       `bun:"product_id" json:"product_id"`
	Quantity              int         `bun:"quantity" json:"quantity"`
	UnitPrice             float64     `bun:"unit_price" json:"unit_price"`
	TotalAmount           float64     `bun:"total_amount" json:"total_amount"`
	GSTPercentage         float64     `bun:"gst_percentage" json:"gst_percentage"`
	GSTAmount             float64     `bun:"gst_amount" json:"gst_amount"`
	PaymentMode           string      `bun:"payment_mode" json:"payment_mode"`
	DeliveryAddress       string      `bun:"delivery_address" json:"delivery_address"`
	PreferredDeliveryDate string      `bun:"preferred_delivery_date" json:"preferred_delivery_date"`
	Notes                 string      `bun:"notes" json:"notes"`
	Status                OrderStatus `bun:"status" json:"status"`
	RejectionReason       *string     `bun:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt             time.Time   `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt             time.Time   `bun:"updated_at,nullzero" json:"updated_at"`
}
