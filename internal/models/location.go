package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DefaultCountry is stored when a location is created without a country.
const DefaultCountry = "US"

// OriginLocation is a shipping origin address owned by a user. At most one
// location per user carries IsDefault.
type OriginLocation struct {
	bun.BaseModel `bun:"table:origin_locations,alias:ol"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64     `bun:"user_id,notnull" json:"user_id"`
	Name         string    `bun:"name,notnull" json:"name"`
	CompanyName  *string   `bun:"company_name" json:"company_name"`
	AddressLine1 string    `bun:"address_line1,notnull" json:"address_line1"`
	AddressLine2 *string   `bun:"address_line2" json:"address_line2"`
	City         string    `bun:"city,notnull" json:"city"`
	State        string    `bun:"state,notnull" json:"state"`
	ZipCode      string    `bun:"zip_code,notnull" json:"zip_code"`
	Country      string    `bun:"country,notnull,default:'US'" json:"country"`
	Phone        *string   `bun:"phone" json:"phone"`
	IsDefault    bool      `bun:"is_default,notnull" json:"is_default"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	User *User `bun:"rel:belongs-to,join:user_id=id" json:"-"`
}
