package main

import (
	"context"
	"fmt"
	"time"

	"github.com/atinyakov/habittracker/internal/models"
	"github.com/atinyakov/habittracker/internal/service"
	"go.uber.org/zap"
)

type registrar interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
}

type tagCreator interface {
	Create(ctx context.Context, name, color string) (*models.Tag, error)
}

type habitTracker interface {
	Create(ctx context.Context, ownerID string, fields models.HabitFields, tagIDs []string) (*models.Habit, error)
	Complete(ctx context.Context, ownerID, habitID string, date *time.Time, note *string) (*models.Entry, error)
}

type demoUser struct {
	Email    string
	Username string
	Password string
}

const seedDays = 6

type seeder struct {
	users  registrar
	tags   tagCreator
	habits habitTracker
	now    func() time.Time
	log    *zap.Logger
}

// run creates the demo user, a "Health" tag, an "Exercise" habit carrying
// it, and one completion at noon for each of the previous seedDays days.
func (s *seeder) run(ctx context.Context, u demoUser) error {
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	res, err := s.users.Register(ctx, service.RegisterInput{
		Email:    u.Email,
		Username: u.Username,
		Password: u.Password,
	})
	if err != nil {
		return fmt.Errorf("create demo user: %w", err)
	}
	owner := res.User.ID
	s.log.Info("created demo user", zap.String("email", res.User.Email), zap.String("id", owner))

	tag, err := s.tags.Create(ctx, "Health", "#f0f0f0")
	if err != nil {
		return fmt.Errorf("create tag: %w", err)
	}

	desc := "Daily workout routine"
	habit, err := s.habits.Create(ctx, owner, models.HabitFields{
		Name:        "Exercise",
		Description: &desc,
		Frequency:   models.Daily,
		TargetCount: 1,
		IsActive:    true,
	}, []string{tag.ID})
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}

	today := now()
	for i := 1; i <= seedDays; i++ {
		d := time.Date(today.Year(), today.Month(), today.Day()-i, 12, 0, 0, 0, today.Location())
		if _, err := s.habits.Complete(ctx, owner, habit.ID, &d, nil); err != nil {
			return fmt.Errorf("create entry for %s: %w", d.Format(time.DateOnly), err)
		}
	}
	s.log.Info("seeded demo data",
		zap.String("habit", habit.ID),
		zap.String("tag", tag.ID),
		zap.Int("entries", seedDays),
	)
	return nil
}
