package service

import (
	"context"

	"github.com/atinyakov/habittracker/internal/models"
)

// TagRepository defines the tag persistence operations.
type TagRepository interface {
	CreateTag(ctx context.Context, name, color string) (*models.Tag, error)
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	UpdateTag(ctx context.Context, id string, name, color *string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id string) error
}

// TaggedHabitLister finds the habits of an owner that carry a tag.
type TaggedHabitLister interface {
	ListHabitsByTag(ctx context.Context, ownerID, tagID string) ([]models.Habit, error)
}

const (
	msgTagNotFound = "Tag not found"
	msgTagExists   = "Tag with this name already exists"
)

// TagService manages the global tag list.
type TagService struct {
	tags   TagRepository
	habits TaggedHabitLister
}

// NewTagService constructs a TagService.
func NewTagService(tags TagRepository, habits TaggedHabitLister) *TagService {
	return &TagService{tags: tags, habits: habits}
}

// Create adds a tag. An empty color becomes models.DefaultTagColor.
func (s *TagService) Create(ctx context.Context, name, color string) (*models.Tag, error) {
	if color == "" {
		color = models.DefaultTagColor
	}
	t, err := s.tags.CreateTag(ctx, name, color)
	if err != nil {
		return nil, translate(err, msgTagNotFound, msgTagExists)
	}
	return t, nil
}

// Get returns a tag together with the habits of ownerID that use it.
// Habits of other users are never included.
func (s *TagService) Get(ctx context.Context, ownerID, id string) (*models.TagDetail, error) {
	t, err := s.tags.GetTag(ctx, id)
	if err != nil {
		return nil, translate(err, msgTagNotFound, msgTagExists)
	}
	habits, err := s.habits.ListHabitsByTag(ctx, ownerID, id)
	if err != nil {
		return nil, translate(err, msgTagNotFound, msgTagExists)
	}
	return &models.TagDetail{Tag: *t, Habits: habits}, nil
}

// List returns all tags ordered by name.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	ts, err := s.tags.ListTags(ctx)
	if err != nil {
		return nil, translate(err, msgTagNotFound, msgTagExists)
	}
	return ts, nil
}

// Update renames or recolors a tag.
func (s *TagService) Update(ctx context.Context, id string, name, color *string) (*models.Tag, error) {
	t, err := s.tags.UpdateTag(ctx, id, name, color)
	if err != nil {
		return nil, translate(err, msgTagNotFound, msgTagExists)
	}
	return t, nil
}

// Delete removes a tag and its habit links.
func (s *TagService) Delete(ctx context.Context, id string) error {
	return translate(s.tags.DeleteTag(ctx, id), msgTagNotFound, msgTagExists)
}
