package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is a manufacturer-listed item available to wholesalers.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID             int64     `bun:",pk,autoincrement" json:"id"`
	ManufacturerID int64     `bun:"manufacturer_id" json:"manufacturer_id"`
	Name           string    `bun:"product_name" json:"product_name"`
	UnitPrice      float64   `bun:"unit_price" json:"unit_price"`
	StockQty       int       `bun:"stock_qty" json:"stock_qty"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero" json:"updated_at"`
}
