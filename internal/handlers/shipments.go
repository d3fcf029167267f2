package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/models"
	"github.com/AnshRaj112/shipments-backend/internal/services"
)

type shipmentRequest struct {
	OriginLocationID  *int64          `json:"origin_location_id" validate:"omitempty,gt=0"`
	Destination       json.RawMessage `json:"destination" validate:"required"`
	CarrierPreference []carriers.Code `json:"carrier_preference" validate:"omitempty,max=3,dive,carrier"`
}

func (a *API) ListShipments(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shipments, err := a.svc.Shipments.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if shipments == nil {
		shipments = []models.UserShipment{}
	}
	writeJSON(w, http.StatusOK, shipments)
}

// CreateShipment records a shipment request in QUOTED state.
func (a *API) CreateShipment(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req shipmentRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := a.svc.Shipments.Create(r.Context(), userID, services.ShipmentInput{
		OriginLocationID:  req.OriginLocationID,
		Destination:       req.Destination,
		CarrierPreference: req.CarrierPreference,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (a *API) GetShipment(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	shipment, err := a.svc.Shipments.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shipment)
}
