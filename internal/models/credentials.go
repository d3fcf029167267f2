package models

import (
	"time"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/uptrace/bun"
)

// CarrierCredentials holds one user's API credentials for one carrier.
// (user_id, carrier_code) is unique. ClientSecret may hold sealed text.
type CarrierCredentials struct {
	bun.BaseModel `bun:"table:carrier_credentials,alias:cc"`

	ID            int64         `bun:"id,pk,autoincrement"`
	UserID        int64         `bun:"user_id,notnull,unique:uq_carrier_credentials_user_carrier"`
	CarrierCode   carriers.Code `bun:"carrier_code,notnull,unique:uq_carrier_credentials_user_carrier"`
	ClientID      string        `bun:"client_id,notnull"`
	ClientSecret  string        `bun:"client_secret,notnull"`
	AccountNumber string        `bun:"account_number,notnull"`
	IsActive      bool          `bun:"is_active,notnull"`
	Description   *string       `bun:"description"`
	CreatedAt     time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`

	User *User `bun:"rel:belongs-to,join:user_id=id"`
}

// CredentialView is the only outward representation of CarrierCredentials.
type CredentialView struct {
	ID                 int64         `json:"id"`
	UserID             int64         `json:"user_id"`
	CarrierCode        carriers.Code `json:"carrier_code"`
	ClientID           string        `json:"client_id"`
	ClientSecretMasked string        `json:"client_secret_masked"`
	AccountNumber      string        `json:"account_number"`
	IsActive           bool          `json:"is_active"`
	Description        *string       `json:"description"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}
