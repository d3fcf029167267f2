package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
)

type ShipmentStatus string

const (
	ShipmentQuoted    ShipmentStatus = "QUOTED"
	ShipmentBooked    ShipmentStatus = "BOOKED"
	ShipmentShipped   ShipmentStatus = "SHIPPED"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
	ShipmentCancelled ShipmentStatus = "CANCELLED"
)

type UserShipment struct {
	bun.BaseModel `bun:"table:user_shipments,alias:us"`

	ID               int64           `bun:"id,pk,autoincrement" json:"id"`
	UserID           int64           `bun:"user_id,notnull" json:"user_id"`
	OriginLocationID int64           `bun:"origin_location_id,notnull" json:"origin_location_id"`
	DestinationData  json.RawMessage `bun:"destination_data,type:text,notnull" json:"destination_data"`
	QuotesData       json.RawMessage `bun:"quotes_data,type:text" json:"quotes_data"`
	Carriers         []carriers.Code `bun:"carriers,type:text" json:"carriers"`
	SelectedCarrier  *string         `bun:"selected_carrier" json:"selected_carrier"`
	TrackingNumber   *string         `bun:"tracking_number" json:"tracking_number"`
	Status           ShipmentStatus  `bun:"status,notnull,default:'QUOTED'" json:"status"`
	CreatedAt        time.Time       `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time       `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`

	User           *User           `bun:"rel:belongs-to,join:user_id=id" json:"-"`
	OriginLocation *OriginLocation `bun:"rel:belongs-to,join:origin_location_id=id" json:"-"`
}
