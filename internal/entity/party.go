package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// PartyRole distinguishes the two sides of the marketplace.
type PartyRole string

const (
	PartyManufacturer PartyRole = "manufacturer"
	PartyWholesaler   PartyRole = "wholesaler"
)

// Party is a registered business on the platform, either a manufacturer or a
// wholesaler. Display names and contact emails for events come from here.
type Party struct {
	bun.BaseModel `bun:"table:parties"`

	ID           int64     `bun:",pk,autoincrement" json:"id"`
	Role         PartyRole `bun:"role" json:"role"`
	CompanyName  string    `bun:"company_name" json:"company_name"`
	ContactEmail string    `bun:"contact_email" json:"contact_email"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP" json:"created_at"`
}
