package dto

import "time"

// NotificationResponse represents a notification as exposed via transport layers.
type NotificationResponse struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           string    `json:"type"`
	RelatedOrderID *string   `json:"related_order_id,omitempty"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}
