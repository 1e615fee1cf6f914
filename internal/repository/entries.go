package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/google/uuid"
)

// PostgresEntryRepository stores habit completion entries.
type PostgresEntryRepository struct {
	DB *sql.DB
}

// NewPostgresEntryRepository creates a new PostgresEntryRepository.
func NewPostgresEntryRepository(conn *sql.DB) *PostgresEntryRepository {
	return &PostgresEntryRepository{DB: conn}
}

// CreateEntry records a completion of habitID on date. The insert only
// happens when the habit is live and owned by ownerID; otherwise the
// result is db.ErrNotFound.
func (r *PostgresEntryRepository) CreateEntry(
	ctx context.Context,
	ownerID, habitID string,
	date time.Time,
	note *string,
) (*models.Entry, error) {
	var e models.Entry
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO entries (id, habit_id, completion_date, note)
		SELECT $1, h.id, $3, $4 FROM habits h
		WHERE h.id = $2 AND h.user_id = $5 AND h.deleted_at IS NULL
		RETURNING id, habit_id, completion_date, note, created_at
	`, uuid.NewString(), habitID, date, note, ownerID).
		Scan(&e.ID, &e.HabitID, &e.CompletionDate, &e.Note, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", db.Classify(err))
	}
	return &e, nil
}

// ListEntries returns the entries of habitID, newest first. Ownership is
// checked by the caller.
func (r *PostgresEntryRepository) ListEntries(ctx context.Context, habitID string) ([]models.Entry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, habit_id, completion_date, note, created_at
		FROM entries WHERE habit_id = $1
		ORDER BY completion_date DESC, created_at DESC
	`, habitID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", db.Classify(err))
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.ID, &e.HabitID, &e.CompletionDate, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list entries: %w", db.Classify(err))
	}
	return entries, nil
}
