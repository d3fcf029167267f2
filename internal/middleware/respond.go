package middleware

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// reject writes the same error envelope the handlers use.
func reject(w http.ResponseWriter, status int, category goerrors.Category, textCode, message string) {
	e := goerrors.New(message, category).WithCode(status).WithTextCode(textCode)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(e.ToErrorResponse(false, nil))
}

func tooManyRequests(w http.ResponseWriter, message string) {
	reject(w, http.StatusTooManyRequests, goerrors.CategoryRateLimit, "RATE_LIMITED", message)
}
