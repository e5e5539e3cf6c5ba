package dto

import "time"

// InvoiceResponse represents an invoice record as exposed via transport layers.
type InvoiceResponse struct {
	ID             int64     `json:"id"`
	InvoiceNumber  string    `json:"invoice_number"`
	OrderID        string    `json:"order_id"`
	ManufacturerID int64     `json:"manufacturer_id"`
	WholesalerID   int64     `json:"wholesaler_id"`
	FileName       string    `json:"file_name"`
	DownloadURL    string    `json:"download_url"`
	CreatedAt      time.Time `json:"created_at"`
}
