package services

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/models"
)

func TestCreateShipmentUsesDefaultsAndActiveCarriers(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := insertUser(t, db, "shipper")
	locations := NewLocationManager(db)
	creds := NewCredentialStore(db, nil)
	svc := NewShipmentService(db, locations, creds)

	dest := json.RawMessage(`{"city":"Denver","zip_code":"80202"}`)
	if _, err := svc.Create(ctx, user.ID, ShipmentInput{Destination: dest}); !goerrors.IsNotFound(err) {
		t.Fatalf("expected not found without a default location, got %v", err)
	}

	origin, _ := locations.Create(ctx, user.ID, sampleLocation("HQ", false))
	if _, err := svc.Create(ctx, user.ID, ShipmentInput{Destination: dest}); !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error without carriers, got %v", err)
	}

	creds.Upsert(ctx, user.ID, CredentialInput{CarrierCode: carriers.UPS, ClientID: "a", ClientSecret: "b", IsActive: true})
	rec, err := svc.Create(ctx, user.ID, ShipmentInput{Destination: dest})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.OriginLocationID != origin.ID || rec.Status != models.ShipmentQuoted || string(rec.QuotesData) != "[]" {
		t.Fatalf("unexpected shipment %+v", rec)
	}
	if len(rec.Carriers) != 1 || rec.Carriers[0] != carriers.UPS {
		t.Fatalf("expected active carriers [UPS], got %v", rec.Carriers)
	}

	got, err := svc.Get(ctx, user.ID, rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var stored map[string]string
	if err := json.Unmarshal(got.DestinationData, &stored); err != nil || stored["city"] != "Denver" {
		t.Fatalf("destination not stored: %s (%v)", got.DestinationData, err)
	}

	list, err := svc.List(ctx, user.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %v %v", list, err)
	}
}

func TestCreateShipmentExplicitOriginAndPreference(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := insertUser(t, db, "explicit")
	other := insertUser(t, db, "stranger")
	locations := NewLocationManager(db)
	svc := NewShipmentService(db, locations, NewCredentialStore(db, nil))

	locations.Create(ctx, user.ID, sampleLocation("HQ", false))
	second, _ := locations.Create(ctx, user.ID, sampleLocation("Depot", false))
	foreign, _ := locations.Create(ctx, other.ID, sampleLocation("Theirs", false))
	dest := json.RawMessage(`{"city":"Reno"}`)

	rec, err := svc.Create(ctx, user.ID, ShipmentInput{
		OriginLocationID:  &second.ID,
		Destination:       dest,
		CarrierPreference: []carriers.Code{carriers.FedEx, carriers.USPS, carriers.FedEx},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := []carriers.Code{carriers.FedEx, carriers.USPS}
	if rec.OriginLocationID != second.ID || !slices.Equal(rec.Carriers, want) {
		t.Fatalf("unexpected shipment %+v", rec)
	}
	stored, err := svc.Get(ctx, user.ID, rec.ID)
	if err != nil || !slices.Equal(stored.Carriers, want) {
		t.Fatalf("carriers must be stored, got %v (%v)", stored, err)
	}
	listed, _ := svc.List(ctx, user.ID)
	if len(listed) != 1 || !slices.Equal(listed[0].Carriers, want) {
		t.Fatalf("carriers must be listed, got %+v", listed)
	}

	if _, err := svc.Create(ctx, user.ID, ShipmentInput{OriginLocationID: &foreign.ID, Destination: dest, CarrierPreference: []carriers.Code{carriers.UPS}}); !goerrors.IsNotFound(err) {
		t.Fatalf("foreign origin must not resolve, got %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, ShipmentInput{Destination: json.RawMessage(`"nope"`), CarrierPreference: []carriers.Code{carriers.UPS}}); !goerrors.IsValidation(err) {
		t.Fatalf("expected validation error for bad destination, got %v", err)
	}

	if err := locations.Delete(ctx, user.ID, second.ID); !goerrors.IsCategory(err, goerrors.CategoryConflict) {
		t.Fatalf("deleting a referenced location should conflict, got %v", err)
	}
}

func TestDeletingUserRemovesShipments(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := insertUser(t, db, "leaver")
	locations := NewLocationManager(db)
	svc := NewShipmentService(db, locations, NewCredentialStore(db, nil))

	locations.Create(ctx, user.ID, sampleLocation("HQ", false))
	if _, err := svc.Create(ctx, user.ID, ShipmentInput{Destination: json.RawMessage(`{"city":"Reno"}`), CarrierPreference: []carriers.Code{carriers.UPS}}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := NewUserService(db).Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	n, err := db.NewSelect().Model((*models.UserShipment)(nil)).Where("user_id = ?", user.ID).Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("expected shipments to cascade, got %d (%v)", n, err)
	}
}
