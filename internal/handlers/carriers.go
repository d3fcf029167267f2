package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	goerrors "github.com/goliatone/go-errors"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/services"
)

type credentialRequest struct {
	CarrierCode   carriers.Code `json:"carrier_code" validate:"required,carrier"`
	ClientID      string        `json:"client_id" validate:"required,max=255"`
	ClientSecret  string        `json:"client_secret" validate:"required,max=255"`
	AccountNumber string        `json:"account_number" validate:"max=50"`
	IsActive      *bool         `json:"is_active"`
	Description   *string       `json:"description" validate:"omitempty,max=255"`
}

type credentialPatchRequest struct {
	ClientID      *string `json:"client_id" validate:"omitempty,min=1,max=255"`
	ClientSecret  *string `json:"client_secret" validate:"omitempty,min=1,max=255"`
	AccountNumber *string `json:"account_number" validate:"omitempty,max=50"`
	IsActive      *bool   `json:"is_active"`
	Description   *string `json:"description" validate:"omitempty,max=255"`
}

type tokenRequest struct {
	CarrierCode   carriers.Code `json:"carrier_code" validate:"required,carrier"`
	ClientID      string        `json:"client_id" validate:"required"`
	ClientSecret  string        `json:"client_secret" validate:"required"`
	AccountNumber string        `json:"account_number"`
}

// batchTokensRequest leaves size, duplicate and carrier checks to
// carriers.ValidateSubmission.
type batchTokensRequest struct {
	Carriers []batchEntry `json:"carriers" validate:"dive"`
}

type batchEntry struct {
	CarrierCode   carriers.Code `json:"carrier_code" validate:"required"`
	ClientID      string        `json:"client_id" validate:"required"`
	ClientSecret  string        `json:"client_secret" validate:"required"`
	AccountNumber string        `json:"account_number"`
}

func carrierParam(r *http.Request) (carriers.Code, error) {
	raw := chi.URLParam(r, "code")
	code, ok := carriers.ParseCode(raw)
	if !ok {
		return "", goerrors.NewValidation("invalid carrier code",
			goerrors.FieldError{Field: "code", Message: unsupportedCarrier, Value: raw})
	}
	return code, nil
}

func (a *API) ListCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views, err := a.svc.Credentials.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// UpsertCredentials creates or overwrites the user's credentials for one
// carrier. Responds 201 on insert and 200 on overwrite.
func (a *API) UpsertCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req credentialRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	view, created, err := a.svc.Credentials.Upsert(r.Context(), userID, services.CredentialInput{
		CarrierCode:   req.CarrierCode,
		ClientID:      req.ClientID,
		ClientSecret:  req.ClientSecret,
		AccountNumber: req.AccountNumber,
		IsActive:      active,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, view)
}

func (a *API) GetCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code, err := carrierParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := a.svc.Credentials.Get(r.Context(), userID, code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code, err := carrierParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req credentialPatchRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	view, err := a.svc.Credentials.Update(r.Context(), userID, code, services.CredentialPatch{
		ClientID:      req.ClientID,
		ClientSecret:  req.ClientSecret,
		AccountNumber: req.AccountNumber,
		IsActive:      req.IsActive,
		Description:   req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *API) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	code, err := carrierParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	deleted, err := a.svc.Credentials.Delete(r.Context(), userID, code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !deleted {
		writeError(w, r, goerrors.New("carrier credentials not found", goerrors.CategoryNotFound).WithTextCode(services.TextCodeNotFound))
		return
	}
	writeMessage(w, code.String()+" credentials deleted")
}

func (a *API) ActiveCarriers(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	codes, err := a.svc.Credentials.ActiveCarriers(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if codes == nil {
		codes = []carriers.Code{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"carriers": codes})
}

// TestStoredTokens runs a batch token test against the user's active stored
// credentials. Only token previews leave the server.
func (a *API) TestStoredTokens(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := a.svc.Credentials.Submission(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	outcome, err := a.svc.Tokens.TestTokens(r.Context(), entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[CARRIERS] stored token test for user %d: %d ok, %d failed", userID, outcome.Successful, outcome.Failed)
	writeJSON(w, http.StatusOK, outcome.Previewed())
}

// TestToken requests a token for one carrier. A successful response carries
// only a preview of the token.
func (a *API) TestToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	outcome := a.svc.Gateway.AcquireToken(r.Context(), req.CarrierCode, req.ClientID, req.ClientSecret, req.AccountNumber)
	if t, ok := outcome.(*carriers.Token); ok {
		writeJSON(w, http.StatusOK, t.Preview())
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// BatchTokens requests tokens for up to three carriers and returns the full
// aggregate, tokens included.
func (a *API) BatchTokens(w http.ResponseWriter, r *http.Request) {
	var req batchTokensRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entries := make([]carriers.Credential, len(req.Carriers))
	for i, e := range req.Carriers {
		entries[i] = carriers.Credential{
			Carrier:       e.CarrierCode,
			ClientID:      e.ClientID,
			ClientSecret:  e.ClientSecret,
			AccountNumber: e.AccountNumber,
		}
	}

	outcome, err := a.svc.Tokens.TestTokens(r.Context(), entries)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}
