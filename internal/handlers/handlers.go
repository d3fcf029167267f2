package handlers

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/services"
)

// Services groups everything the HTTP layer calls into.
type Services struct {
	Users       *services.UserService
	Auth        *services.AuthService
	Credentials *services.CredentialStore
	Locations   *services.LocationManager
	Shipments   *services.ShipmentService
	Gateway     carriers.TokenAcquirer
	Tokens      *carriers.Orchestrator
	// Checks are run by /health, keyed by component name.
	Checks map[string]func(context.Context) error
}

// API holds the request handlers. Every handler behind RequireAuth reads
// the user id from the request context.
type API struct {
	svc      Services
	validate *validator.Validate
}

func New(svc Services) *API {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterValidation("carrier", func(fl validator.FieldLevel) bool {
		_, ok := carriers.ParseCode(fl.Field().String())
		return ok
	})
	return &API{svc: svc, validate: v}
}
