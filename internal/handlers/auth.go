package handlers

import (
	"log"
	"net/http"

	"github.com/AnshRaj112/shipments-backend/internal/middleware"
	"github.com/AnshRaj112/shipments-backend/internal/services"
)

type registerRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=8"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// Register handles user registration
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := a.svc.Users.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Printf("[AUTH] registered user %d", user.ID)
	writeJSON(w, http.StatusCreated, user)
}

// Login exchanges username and password for a bearer token.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := a.svc.Auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Auth.Logout(r.Context(), middleware.SessionID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "Logged out")
}

func (a *API) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := a.svc.Users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword ends every session of the user, including the current one.
func (a *API) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req changePasswordRequest
	if err := a.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.Auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, "Password updated. Please log in again.")
}

func (a *API) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := a.svc.Auth.DeleteAccount(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}
	log.Printf("[AUTH] deleted user %d", userID)
	writeMessage(w, "Account deleted")
}
