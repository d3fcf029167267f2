package handlers

import (
	"net/http"

	"github.com/AnshRaj112/shipments-backend/internal/services"
)

type locationRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	CompanyName  *string `json:"company_name" validate:"omitempty,max=100"`
	AddressLine1 string  `json:"address_line1" validate:"required,max=255"`
	AddressLine2 *string `json:"address_line2" validate:"omitempty,max=255"`
	City         string  `json:"city" validate:"required,max=100"`
	State        string  `json:"state" validate:"required,max=50"`
	ZipCode      string  `json:"zip_code" validate:"required,max=20"`
	Country      string  `json:"country" validate:"omitempty,max=2"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	IsDefault    bool    `json:"is_default"`
}

type locationPatchRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	CompanyName  *string `json:"company_name" validate:"omitempty,max=100"`
	AddressLine1 *string `json:"address_line1" validate:"omitempty,min=1,max=255"`
	AddressLine2 *string `json:"address_line2" validate:"omitempty,max=255"`
	City         *string `json:"city" validate:"omitempty,min=1,max=100"`
	State        *string `json:"state" validate:"omitempty,min=1,max=50"`
	ZipCode      *string `json:"zip_code" validate:"omitempty,min=1,max=20"`
	Country      *string `json:"country" validate:"omitempty,min=1,max=2"`
	Phone        *string `json:"phone" validate:"omitempty,max=20"`
	IsDefault    *bool   `json:"is_default"`
}

func (a *API) ListLocations(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	locations, err := a.svc.Locations.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locations)
}

func (a *API) CreateLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req locationRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	loc, err := a.svc.Locations.Create(r.Context(), userID, services.LocationInput{
		Name:         req.Name,
		CompanyName:  req.CompanyName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Country:      req.Country,
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (a *API) GetLocation(w http.ResponseWriter, r *http.Request) {
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
	loc, err := a.svc.Locations.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// UpdateLocation applies only the fields present in the body.
func (a *API) UpdateLocation(w http.ResponseWriter, r *http.Request) {
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
	var req locationPatchRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	loc, err := a.svc.Locations.Update(r.Context(), userID, id, services.LocationPatch{
		Name:         req.Name,
		CompanyName:  req.CompanyName,
		AddressLine1: req.AddressLine1,
		AddressLine2: req.AddressLine2,
		City:         req.City,
		State:        req.State,
		ZipCode:      req.ZipCode,
		Country:      req.Country,
		Phone:        req.Phone,
		IsDefault:    req.IsDefault,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (a *API) DeleteLocation(w http.ResponseWriter, r *http.Request) {
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
	if err := a.svc.Locations.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "Location deleted")
}
