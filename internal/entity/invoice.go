package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Invoice is the persisted record of a generated invoice artifact.
type Invoice struct {
	bun.BaseModel `bun:"table:invoices"`

	ID             int64     `bun:",pk,autoincrement" json:"id"`
	InvoiceNumber  string    `bun:"invoice_number" json:"invoice_number"`
	OrderID        string    `bun:"order_id" json:"order_id"`
	ManufacturerID int64     `bun:"manufacturer_id" json:"manufacturer_id"`
	WholesalerID   int64     `bun:"wholesaler_id" json:"wholesaler_id"`
	FileName       string    `bun:"file_name" json:"file_name"`
	DownloadURL    string    `bun:"download_url" json:"download_url"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
