package handlers

import (
	"net/http"
	"sort"
	"time"

	"github.com/AnshRaj112/shipments-backend/internal/config"
)

func (a *API) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Shipments API",
		"version": config.Version,
	})
}

// Health runs every configured dependency check. Any failure turns the status
// to unhealthy and the response to 503.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(a.svc.Checks))
	for name := range a.svc.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	body := map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   config.Version,
	}
	healthy := true
	for _, name := range names {
		if err := a.svc.Checks[name](r.Context()); err != nil {
			healthy = false
			body[name] = "disconnected"
			continue
		}
		body[name] = "connected"
	}

	status := http.StatusOK
	body["status"] = "healthy"
	if !healthy {
		status = http.StatusServiceUnavailable
		body["status"] = "unhealthy"
	}
	writeJSON(w, status, body)
}
