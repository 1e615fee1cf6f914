package service

import (
	"context"
	"errors"
	"time"

	"github.com/atinyakov/habittracker/internal/apperr"
	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/models"
)

// HabitRepository defines the habit persistence operations. The two
// *WithTags methods are the only writes that touch more than one table.
type HabitRepository interface {
	CreateHabitWithTags(ctx context.Context, ownerID string, fields models.HabitFields, tagIDs []string) (*models.Habit, error)
	// UpdateHabitWithTags leaves tags untouched when tagIDs is nil.
	UpdateHabitWithTags(ctx context.Context, ownerID, habitID string, patch models.HabitPatch, tagIDs *[]string) (*models.Habit, error)
	GetHabit(ctx context.Context, ownerID, habitID string) (*models.Habit, error)
	ListHabits(ctx context.Context, ownerID string) ([]models.Habit, error)
	ListHabitsByTag(ctx context.Context, ownerID, tagID string) ([]models.Habit, error)
	DeleteHabit(ctx context.Context, ownerID, habitID string) error
}

// EntryRepository defines the completion entry persistence operations.
type EntryRepository interface {
	CreateEntry(ctx context.Context, ownerID, habitID string, date time.Time, note *string) (*models.Entry, error)
	ListEntries(ctx context.Context, habitID string) ([]models.Entry, error)
}

const (
	msgHabitNotFound = "Habit not found"
	msgBadTags       = "One or more tags do not exist"
)

// HabitService manages the habits of one owner at a time.
type HabitService struct {
	habits  HabitRepository
	entries EntryRepository
	now     func() time.Time
}

// NewHabitService constructs a HabitService.
func NewHabitService(habits HabitRepository, entries EntryRepository) *HabitService {
	return &HabitService{habits: habits, entries: entries, now: time.Now}
}

// habitErr translates habit storage errors. Habits carry no unique key of
// their own, so a duplicate key can only come from habit_tags and means the
// tag set was not de-duplicated.
func habitErr(err error) error {
	if errors.Is(err, db.ErrDuplicateKey) {
		return apperr.Wrap(apperr.Internal, msgInternal, err)
	}
	err = translate(err, msgHabitNotFound, msgInternal)
	if apperr.Is(err, apperr.Validation) {
		return apperr.Wrap(apperr.Validation, msgBadTags, err)
	}
	return err
}

// Create stores a habit with its tags atomically.
func (s *HabitService) Create(ctx context.Context, ownerID string, fields models.HabitFields, tagIDs []string) (*models.Habit, error) {
	if fields.Frequency == "" {
		fields.Frequency = models.Daily
	}
	if fields.TargetCount == 0 {
		fields.TargetCount = 1
	}
	h, err := s.habits.CreateHabitWithTags(ctx, ownerID, fields, tagIDs)
	if err != nil {
		return nil, habitErr(err)
	}
	return h, nil
}

// Update applies patch and, when tagIDs is non-nil, replaces the tag set.
func (s *HabitService) Update(ctx context.Context, ownerID, habitID string, patch models.HabitPatch, tagIDs *[]string) (*models.Habit, error) {
	h, err := s.habits.UpdateHabitWithTags(ctx, ownerID, habitID, patch, tagIDs)
	if err != nil {
		return nil, habitErr(err)
	}
	return h, nil
}

// Get returns one habit of ownerID.
func (s *HabitService) Get(ctx context.Context, ownerID, habitID string) (*models.Habit, error) {
	h, err := s.habits.GetHabit(ctx, ownerID, habitID)
	if err != nil {
		return nil, habitErr(err)
	}
	return h, nil
}

// List returns all habits of ownerID.
func (s *HabitService) List(ctx context.Context, ownerID string) ([]models.Habit, error) {
	hs, err := s.habits.ListHabits(ctx, ownerID)
	if err != nil {
		return nil, habitErr(err)
	}
	return hs, nil
}

// Delete soft-deletes a habit of ownerID.
func (s *HabitService) Delete(ctx context.Context, ownerID, habitID string) error {
	return habitErr(s.habits.DeleteHabit(ctx, ownerID, habitID))
}

// Complete records a completion. A nil date means today (UTC).
func (s *HabitService) Complete(ctx context.Context, ownerID, habitID string, date *time.Time, note *string) (*models.Entry, error) {
	day := s.now().UTC()
	if date != nil {
		day = date.UTC()
	}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	e, err := s.entries.CreateEntry(ctx, ownerID, habitID, day, note)
	if err != nil {
		return nil, habitErr(err)
	}
	return e, nil
}

// Entries lists completions of a habit owned by ownerID.
func (s *HabitService) Entries(ctx context.Context, ownerID, habitID string) ([]models.Entry, error) {
	if _, err := s.habits.GetHabit(ctx, ownerID, habitID); err != nil {
		return nil, habitErr(err)
	}
	es, err := s.entries.ListEntries(ctx, habitID)
	if err != nil {
		return nil, habitErr(err)
	}
	return es, nil
}
