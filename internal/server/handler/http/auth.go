// Package http provides the JSON HTTP handlers of the habit tracker API.
package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/middleware"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/atinyakov/habittracker/internal/service"
)

// AuthService defines the credential operations required by the HTTP handlers.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	Profile(ctx context.Context, userID string) (*models.PublicUser, error)
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) (*models.PublicUser, error)
	ListUsers(ctx context.Context) ([]models.PublicUser, error)
}

// AuthHandler handles registration, login and the current user's profile.
type AuthHandler struct {
	// AuthService performs the underlying credential operations.
	AuthService AuthService
	Errors      *ErrorWriter
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Username  string  `json:"username" validate:"required,min=3,max=50"`
	Password  string  `json:"password" validate:"required,min=6,max=72"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest represents the JSON payload for a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// UpdateProfileRequest lists the profile fields a user may change.
type UpdateProfileRequest struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Username  *string `json:"username" validate:"omitempty,min=3,max=50"`
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
}

type authResponse struct {
	Message string            `json:"message"`
	User    models.PublicUser `json:"user"`
	Token   string            `json:"token"`
}

// userID returns the authenticated caller or an Unauthenticated error.
func userID(r *http.Request) (string, error) {
	id := middleware.GetUserIDFromContext(r.Context())
	if id == "" {
		return "", apperr.New(apperr.Unauthenticated, "Unauthorized")
	}
	return id, nil
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	res, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Message: "User registered successfully", User: res.User, Token: res.Token})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: res.User, Token: res.Token})
}

// ListUsers handles GET /api/users.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.AuthService.ListUsers(r.Context())
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// Me handles GET /api/users/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	u, err := h.AuthService.Profile(r.Context(), uid)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// UpdateMe handles PUT /api/users/me.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	u, err := h.AuthService.UpdateProfile(r.Context(), uid, models.ProfilePatch{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User updated successfully", "user": u})
}

// ChangePassword handles PUT /api/users/me/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}
