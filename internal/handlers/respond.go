package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	goerrors "github.com/goliatone/go-errors"

	"github.com/AnshRaj112/shipments-backend/internal/carriers"
	"github.com/AnshRaj112/shipments-backend/internal/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// writeError renders err as the go-errors envelope. Uncategorized and
// internal errors are logged and replaced by a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		rich = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected error occurred")
	}

	status := rich.Code
	if status == 0 {
		status = httpStatus(rich.Category)
	}

	var out *goerrors.Error
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", r.Method, r.URL.Path, err)
		out = goerrors.New("An unexpected error occurred", goerrors.CategoryInternal).WithTextCode("INTERNAL_ERROR")
	} else {
		out = rich.Clone()
		out.Source = nil
	}
	out.Code = status
	out.RequestID = chimw.GetReqID(r.Context())

	writeJSON(w, status, out.ToErrorResponse(false, nil))
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into dst and runs the struct validations.
func (a *API) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return goerrors.New("request body is required", goerrors.CategoryBadInput).WithTextCode("INVALID_BODY")
		}
		return goerrors.New("invalid request body: "+err.Error(), goerrors.CategoryBadInput).WithTextCode("INVALID_BODY")
	}
	if err := a.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return goerrors.New(err.Error(), goerrors.CategoryBadInput)
	}
	fields := make([]goerrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, goerrors.FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
	}
	return goerrors.NewValidation("validation failed", fields...).WithTextCode("VALIDATION_ERROR")
}

// fieldPath drops the root struct name, leaving e.g. carriers[0].client_id.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

var unsupportedCarrier = "must be one of " + joinCodes(carriers.All())

func joinCodes(codes []carriers.Code) string {
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "carrier":
		return unsupportedCarrier
	case "dive":
		return "is invalid"
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// currentUser returns the user id set by RequireAuth.
func currentUser(r *http.Request) (int64, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return 0, goerrors.New("authentication required", goerrors.CategoryAuth).WithTextCode("UNAUTHORIZED")
	}
	return id, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, goerrors.NewValidation("invalid path parameter",
			goerrors.FieldError{Field: name, Message: "must be a positive integer", Value: chi.URLParam(r, name)})
	}
	return id, nil
}
