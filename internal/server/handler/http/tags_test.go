package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/models"
)

type mockTagService struct {
	CreateFunc func(ctx context.Context, name, color string) (*models.Tag, error)
	GetFunc    func(ctx context.Context, ownerID, id string) (*models.TagDetail, error)
	ListFunc   func(ctx context.Context) ([]models.Tag, error)
	UpdateFunc func(ctx context.Context, id string, name, color *string) (*models.Tag, error)
	DeleteFunc func(ctx context.Context, id string) error
}

func (m *mockTagService) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	return m.CreateFunc(ctx, name, color)
}
func (m *mockTagService) Get(ctx context.Context, ownerID, id string) (*models.TagDetail, error) {
	return m.GetFunc(ctx, ownerID, id)
}
func (m *mockTagService) List(ctx context.Context) ([]models.Tag, error) { return m.ListFunc(ctx) }
func (m *mockTagService) Update(ctx context.Context, id string, name, color *string) (*models.Tag, error) {
	return m.UpdateFunc(ctx, id, name, color)
}
func (m *mockTagService) Delete(ctx context.Context, id string) error { return m.DeleteFunc(ctx, id) }

func TestTagHandler_Create(t *testing.T) {
	svc := &mockTagService{
		CreateFunc: func(_ context.Context, name, color string) (*models.Tag, error) {
			if name == "Health" {
				return nil, apperr.New(apperr.Conflict, "Tag with this name already exists")
			}
			return &models.Tag{ID: tagID, Name: name, Color: color}, nil
		},
	}
	h := &TagHandler{TagService: svc}

	cases := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"created", `{"name":"Mind","color":"#aBcDeF"}`, http.StatusCreated},
		{"default color", `{"name":"Mind"}`, http.StatusCreated},
		{"bad color", `{"name":"Mind","color":"red"}`, http.StatusBadRequest},
		{"short color", `{"name":"Mind","color":"#fff"}`, http.StatusBadRequest},
		{"empty name", `{"name":""}`, http.StatusBadRequest},
		{"duplicate", `{"name":"Health"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Create(rec, asCaller(jsonRequest(http.MethodPost, "/api/tags", tc.body)))
			if rec.Code != tc.wantCode {
				t.Errorf("status = %d; want %d (%s)", rec.Code, tc.wantCode, rec.Body.String())
			}
		})
	}
}

func TestTagHandler_ColorMessage(t *testing.T) {
	h := &TagHandler{TagService: &mockTagService{}}
	rec := httptest.NewRecorder()
	h.Create(rec, jsonRequest(http.MethodPost, "/api/tags", `{"name":"Mind","color":"#12345G"}`))

	details, _ := decodeBody(t, rec)["details"].([]any)
	if len(details) != 1 {
		t.Fatalf("details = %v", details)
	}
	d := details[0].(map[string]any)
	if d["field"] != "color" || d["message"] != "Color must be a valid hex color" {
		t.Errorf("detail = %v", d)
	}
}

func TestTagHandler_GetUsesCaller(t *testing.T) {
	svc := &mockTagService{
		GetFunc: func(_ context.Context, ownerID, id string) (*models.TagDetail, error) {
			if ownerID != callerID || id != tagID {
				t.Errorf("owner=%q id=%q", ownerID, id)
			}
			return &models.TagDetail{Tag: models.Tag{ID: id, Name: "Health"}, Habits: []models.Habit{}}, nil
		},
	}
	h := &TagHandler{TagService: svc}
	rec := httptest.NewRecorder()
	h.Get(rec, withID(asCaller(httptest.NewRequest(http.MethodGet, "/", nil)), tagID))

	tag, _ := decodeBody(t, rec)["tag"].(map[string]any)
	if rec.Code != http.StatusOK || tag["name"] != "Health" {
		t.Errorf("got %d %v", rec.Code, tag)
	}
	if _, ok := tag["habits"]; !ok {
		t.Error("tag detail should list habits")
	}
}

func TestTagHandler_UpdateDeleteList(t *testing.T) {
	var gotName, gotColor *string
	svc := &mockTagService{
		UpdateFunc: func(_ context.Context, id string, name, color *string) (*models.Tag, error) {
			gotName, gotColor = name, color
			return &models.Tag{ID: id}, nil
		},
		DeleteFunc: func(context.Context, string) error {
			return apperr.New(apperr.NotFound, "Tag not found")
		},
		ListFunc: func(context.Context) ([]models.Tag, error) {
			return []models.Tag{{Name: "A"}, {Name: "B"}}, nil
		},
	}
	h := &TagHandler{TagService: svc}

	rec := httptest.NewRecorder()
	h.Update(rec, withID(jsonRequest(http.MethodPut, "/", `{"color":"#000000"}`), tagID))
	if rec.Code != http.StatusOK || gotName != nil || gotColor == nil || *gotColor != "#000000" {
		t.Errorf("update: %d name=%v color=%v", rec.Code, gotName, gotColor)
	}

	rec = httptest.NewRecorder()
	h.Delete(rec, withID(httptest.NewRequest(http.MethodDelete, "/", nil), tagID))
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete status = %d; want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/tags", nil))
	tags, _ := decodeBody(t, rec)["tags"].([]any)
	if len(tags) != 2 {
		t.Errorf("tags = %v", tags)
	}
}
