package dto

import "time"

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID                    int64     `json:"id"`
	OrderID               string    `json:"order_id"`
	ManufacturerID        int64     `json:"manufacturer_id"`
	WholesalerID          int64     `json:"wholesaler_id"`
	ProductID             int64     `json:"product_id"`
	ProductName           string    `json:"product_name,omitempty"`
	ManufacturerName      string    `json:"manufacturer_name,omitempty"`
	WholesalerName        string    `json:"wholesaler_name,omitempty"`
	Quantity              int       `json:"quantity"`
	UnitPrice             float64   `json:"unit_price"`
	TotalAmount           float64   `json:"total_amount"`
	GSTPercentage         float64   `json:"gst_percentage"`
	GSTAmount             float64   `json:"gst_amount"`
	PaymentMode           string    `json:"payment_mode,omitempty"`
	DeliveryAddress       string    `json:"delivery_address,omitempty"`
	PreferredDeliveryDate string    `json:"preferred_delivery_date,omitempty"`
	Notes                 string    `json:"notes,omitempty"`
	Status                string    `json:"status"`
	RejectionReason       *string   `json:"rejection_reason,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
