package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/go-chi/chi/v5"
)

// HabitService defines the habit operations required by HabitHandler.
type HabitService interface {
	Create(ctx context.Context, ownerID string, fields models.HabitFields, tagIDs []string) (*models.Habit, error)
	Update(ctx context.Context, ownerID, habitID string, patch models.HabitPatch, tagIDs *[]string) (*models.Habit, error)
	Get(ctx context.Context, ownerID, habitID string) (*models.Habit, error)
	List(ctx context.Context, ownerID string) ([]models.Habit, error)
	Delete(ctx context.Context, ownerID, habitID string) error
	Complete(ctx context.Context, ownerID, habitID string, date *time.Time, note *string) (*models.Entry, error)
	Entries(ctx context.Context, ownerID, habitID string) ([]models.Entry, error)
}

// HabitHandler handles the /api/habits endpoints. Every operation is
// scoped to the authenticated user.
type HabitHandler struct {
	HabitService HabitService
	Errors       *ErrorWriter
}

// CreateHabitRequest represents the JSON payload for creating a habit.
type CreateHabitRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Frequency   string   `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	TargetCount *int     `json:"targetCount" validate:"omitempty,gte=1"`
	IsActive    *bool    `json:"isActive"`
	TagIDs      []string `json:"tagIds" validate:"omitempty,dive,uuid"`
}

// UpdateHabitRequest represents the JSON payload for updating a habit.
// TagIDs distinguishes an absent field (nil) from an empty list.
type UpdateHabitRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string   `json:"description" validate:"omitempty,max=500"`
	Frequency   *string   `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	TargetCount *int      `json:"targetCount" validate:"omitempty,gte=1"`
	IsActive    *bool     `json:"isActive"`
	TagIDs      *[]string `json:"tagIds" validate:"omitempty,dive,uuid"`
}

// CompleteHabitRequest is the optional body of a completion.
type CompleteHabitRequest struct {
	// CompletionDate is "2006-01-02" or RFC 3339. Empty means today.
	CompletionDate string  `json:"completionDate"`
	Note           *string `json:"note" validate:"omitempty,max=500"`
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, &apperr.Error{
		Kind: apperr.Validation,
		Msg:  "Validation failed",
		Err: &validationError{
			msg:    "bad completionDate " + s,
			fields: []FieldError{{Field: "completionDate", Message: "must be a date (YYYY-MM-DD) or RFC 3339 timestamp"}},
		},
	}
}

// owned extracts the caller and the {id} path parameter.
func owned(r *http.Request) (string, string, error) {
	uid, err := userID(r)
	if err != nil {
		return "", "", err
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		return "", "", err
	}
	return uid, id, nil
}

// List handles GET /api/habits.
func (h *HabitHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	habits, err := h.HabitService.List(r.Context(), uid)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "User habits retrieved successfully", "habits": habits})
}

// Create handles POST /api/habits.
func (h *HabitHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	var req CreateHabitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	fields := models.HabitFields{
		Name:        req.Name,
		Description: req.Description,
		Frequency:   models.Frequency(req.Frequency),
		IsActive:    true,
	}
	if req.TargetCount != nil {
		fields.TargetCount = *req.TargetCount
	}
	if req.IsActive != nil {
		fields.IsActive = *req.IsActive
	}

	habit, err := h.HabitService.Create(r.Context(), uid, fields, req.TagIDs)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Habit created successfully", "habit": habit})
}

// Get handles GET /api/habits/{id}.
func (h *HabitHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, id, err := owned(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	habit, err := h.HabitService.Get(r.Context(), uid, id)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"habit": habit})
}

// Update handles PUT /api/habits/{id}.
func (h *HabitHandler) Update(w http.ResponseWriter, r *http.Request) {
	uid, id, err := owned(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	var req UpdateHabitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	patch := models.HabitPatch{
		Name:        req.Name,
		Description: req.Description,
		TargetCount: req.TargetCount,
		IsActive:    req.IsActive,
	}
	if req.Frequency != nil {
		f := models.Frequency(*req.Frequency)
		patch.Frequency = &f
	}

	habit, err := h.HabitService.Update(r.Context(), uid, id, patch, req.TagIDs)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Habit updated successfully", "habit": habit})
}

// Delete handles DELETE /api/habits/{id}.
func (h *HabitHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, id, err := owned(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	if err := h.HabitService.Delete(r.Context(), uid, id); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Habit deleted successfully"})
}

// Complete handles POST /api/habits/{id}/complete. The body is optional.
func (h *HabitHandler) Complete(w http.ResponseWriter, r *http.Request) {
	uid, id, err := owned(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	var req CompleteHabitRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.Errors.Write(w, r, err)
		return
	}
	date, err := parseDate(req.CompletionDate)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}

	entry, err := h.HabitService.Complete(r.Context(), uid, id, date, req.Note)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Habit completed", "entry": entry})
}

// Entries handles GET /api/habits/{id}/entries.
func (h *HabitHandler) Entries(w http.ResponseWriter, r *http.Request) {
	uid, id, err := owned(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	entries, err := h.HabitService.Entries(r.Context(), uid, id)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
