package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/habittracker/internal/models"
	"github.com/go-chi/chi/v5"
)

// TagService defines the tag operations required by TagHandler.
type TagService interface {
	Create(ctx context.Context, name, color string) (*models.Tag, error)
	Get(ctx context.Context, ownerID, id string) (*models.TagDetail, error)
	List(ctx context.Context) ([]models.Tag, error)
	Update(ctx context.Context, id string, name, color *string) (*models.Tag, error)
	Delete(ctx context.Context, id string) error
}

// TagHandler handles the /api/tags endpoints.
type TagHandler struct {
	TagService TagService
	Errors     *ErrorWriter
}

// CreateTagRequest represents the JSON payload for creating a tag.
type CreateTagRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=50"`
	Color string `json:"color" validate:"omitempty,tagcolor"`
}

// UpdateTagRequest represents the JSON payload for updating a tag.
type UpdateTagRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=50"`
	Color *string `json:"color" validate:"omitempty,tagcolor"`
}

// List handles GET /api/tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := h.TagService.List(r.Context())
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// Create handles POST /api/tags.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	tag, err := h.TagService.Create(r.Context(), req.Name, req.Color)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Tag created successfully", "tag": tag})
}

// Get handles GET /api/tags/{id}.
func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, id, err := owned(r)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	tag, err := h.TagService.Get(r.Context(), uid, id)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tag": tag})
}

// Update handles PUT /api/tags/{id}.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	var req UpdateTagRequest
	if err := decodeJSON(r, &req); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	tag, err := h.TagService.Update(r.Context(), id, req.Name, req.Color)
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Tag updated successfully", "tag": tag})
}

// Delete handles DELETE /api/tags/{id}.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	if err := h.TagService.Delete(r.Context(), id); err != nil {
		h.Errors.Write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tag deleted successfully"})
}
