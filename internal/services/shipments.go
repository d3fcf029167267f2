package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/models"
)

type ShipmentInput struct {
	// OriginLocationID falls back to the user's default location when nil.
	OriginLocationID *int64
	Destination      json.RawMessage
	// CarrierPreference falls back to the user's active carriers when empty.
	// Repeated codes are kept once.
	CarrierPreference []carriers.Code
}

// ShipmentService records shipment requests. Quoting and booking are not
// performed; new shipments stay QUOTED with no quotes.
type ShipmentService struct {
	db          bun.IDB
	locations   *LocationManager
	credentials *CredentialStore
}

func NewShipmentService(db bun.IDB, locations *LocationManager, credentials *CredentialStore) *ShipmentService {
	return &ShipmentService{db: db, locations: locations, credentials: credentials}
}

func (s *ShipmentService) Create(ctx context.Context, userID int64, in ShipmentInput) (*models.UserShipment, error) {
	dest := bytes.TrimSpace(in.Destination)
	if len(dest) == 0 || dest[0] != '{' || !json.Valid(dest) {
		return nil, invalid("invalid shipment", goerrors.FieldError{Field: "destination", Message: "destination must be a JSON object"})
	}

	var (
		origin *models.OriginLocation
		err    error
	)
	if in.OriginLocationID != nil {
		origin, err = s.locations.Get(ctx, userID, *in.OriginLocationID)
	} else {
		origin, err = s.locations.Default(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	codes := dedupeCodes(in.CarrierPreference)
	if len(codes) == 0 {
		codes, err = s.credentials.ActiveCarriers(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(codes) == 0 {
			return nil, invalid("no carrier credentials configured", goerrors.FieldError{Field: "carrier_preference", Message: "configure carrier credentials or name carriers explicitly"})
		}
	}
	for _, c := range codes {
		if !c.Valid() {
			return nil, invalid("invalid shipment", goerrors.FieldError{Field: "carrier_preference", Message: "unsupported carrier", Value: string(c)})
		}
	}

	now := time.Now().UTC()
	shipment := &models.UserShipment{
		UserID:           userID,
		OriginLocationID: origin.ID,
		DestinationData:  json.RawMessage(dest),
		QuotesData:       json.RawMessage("[]"),
		Carriers:         codes,
		Status:           models.ShipmentQuoted,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := s.db.NewInsert().Model(shipment).Exec(ctx); err != nil {
		return nil, storeError(err, "failed to create shipment")
	}
	return shipment, nil
}

func dedupeCodes(codes []carriers.Code) []carriers.Code {
	seen := make(map[carriers.Code]bool, len(codes))
	out := make([]carriers.Code, 0, len(codes))
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

func (s *ShipmentService) List(ctx context.Context, userID int64) ([]models.UserShipment, error) {
	var out []models.UserShipment
	err := s.db.NewSelect().
		Model(&out).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "failed to list shipments")
	}
	return out, nil
}

func (s *ShipmentService) Get(ctx context.Context, userID, shipmentID int64) (*models.UserShipment, error) {
	shipment := new(models.UserShipment)
	err := s.db.NewSelect().
		Model(shipment).
		Where("id = ?", shipmentID).
		Where("user_id = ?", userID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("shipment not found")
	}
	if err != nil {
		return nil, storeError(err, "failed to load shipment")
	}
	return shipment, nil
}
