package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AnshRaj112/shipments-backend/internal/handlers"
)

// SetupRoutes mounts the API. requireAuth guards everything except the
// root, health, registration and login routes.
func SetupRoutes(r chi.Router, api *handlers.API, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", api.Root)
	r.Get("/health", api.Health)

	// Public auth routes
	r.Post("/api/auth/register", api.Register)
	r.Post("/api/auth/login", api.Login)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		// Account
		r.Post("/api/auth/logout", api.Logout)
		r.Get("/api/auth/me", api.Me)
		r.Delete("/api/auth/me", api.DeleteAccount)
		r.Put("/api/auth/password", api.ChangePassword)

		// Origin locations
		r.Route("/api/user/locations", func(r chi.Router) {
			r.Get("/", api.ListLocations)
			r.Post("/", api.CreateLocation)
			r.Get("/{id}", api.GetLocation)
			r.Put("/{id}", api.UpdateLocation)
			r.Delete("/{id}", api.DeleteLocation)
		})

		// Stored carrier credentials
		r.Route("/api/user/carriers", func(r chi.Router) {
			r.Get("/", api.ListCredentials)
			r.Post("/", api.UpsertCredentials)
			r.Get("/active", api.ActiveCarriers)
			r.Post("/test-tokens", api.TestStoredTokens)
			r.Get("/{code}", api.GetCredentials)
			r.Put("/{code}", api.UpdateCredentials)
			r.Delete("/{code}", api.DeleteCredentials)
		})

		// Ad-hoc token tests
		r.Post("/api/carriers/test-token", api.TestToken)
		r.Post("/api/carriers/tokens", api.BatchTokens)

		// Shipments
		r.Route("/api/shipments", func(r chi.Router) {
			r.Get("/", api.ListShipments)
			r.Post("/", api.CreateShipment)
			r.Get("/{id}", api.GetShipment)
		})
	})
}
