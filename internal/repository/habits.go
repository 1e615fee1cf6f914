package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresHabitRepository stores habits and their tag links. Every write
// that touches both habits and habit_tags runs inside one transaction.
type PostgresHabitRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresHabitRepository creates a new PostgresHabitRepository using the provided *sql.DB.
func NewPostgresHabitRepository(conn *sql.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{DB: conn}
}

const habitColumns = `id, user_id, name, description, frequency, target_count, is_active, created_at, updated_at`

func scanHabit(row interface{ Scan(...any) error }) (*models.Habit, error) {
	var h models.Habit
	if err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Description, &h.Frequency,
		&h.TargetCount, &h.IsActive, &h.CreatedAt, &h.UpdatedAt); err != nil {
		return nil, err
	}
	h.Tags = []models.Tag{}
	return &h, nil
}

// uniqueIDs canonicalises UUIDs to their lowercase hyphenated form and
// drops repeats, keeping the first occurrence order. Ids that do not parse
// are kept verbatim for the database to reject.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, err := uuid.Parse(id); err == nil {
			id = u.String()
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func insertHabitTags(ctx context.Context, q querier, habitID string, tagIDs []string) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO habit_tags (habit_id, tag_id)
		SELECT $1, unnest($2::uuid[])
	`, habitID, pq.Array(uniqueIDs(tagIDs)))
	if err != nil {
		return fmt.Errorf("insert habit tags: %w", db.Classify(err))
	}
	return nil
}

func tagsOfHabit(ctx context.Context, q querier, habitID string) ([]models.Tag, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.name, t.color, t.created_at, t.updated_at
		FROM tags t JOIN habit_tags ht ON ht.tag_id = t.id
		WHERE ht.habit_id = $1
		ORDER BY t.name
	`, habitID)
	if err != nil {
		return nil, fmt.Errorf("load habit tags: %w", db.Classify(err))
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load habit tags: %w", db.Classify(err))
	}
	return tags, nil
}

// attachTags fills Tags on every habit with one query.
func attachTags(ctx context.Context, q querier, habits []models.Habit) error {
	if len(habits) == 0 {
		return nil
	}
	ids := make([]string, len(habits))
	index := make(map[string]int, len(habits))
	for i, h := range habits {
		ids[i] = h.ID
		index[h.ID] = i
	}

	rows, err := q.QueryContext(ctx, `
		SELECT ht.habit_id, t.id, t.name, t.color, t.created_at, t.updated_at
		FROM habit_tags ht JOIN tags t ON t.id = ht.tag_id
		WHERE ht.habit_id = ANY($1)
		ORDER BY t.name
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load habit tags: %w", db.Classify(err))
	}
	defer rows.Close()

	for rows.Next() {
		var habitID string
		var t models.Tag
		if err := rows.Scan(&habitID, &t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if i, ok := index[habitID]; ok {
			habits[i].Tags = append(habits[i].Tags, t)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load habit tags: %w", db.Classify(err))
	}
	return nil
}

// CreateHabitWithTags inserts a habit owned by ownerID together with links
// to tagIDs. Either everything is written or nothing is.
func (r *PostgresHabitRepository) CreateHabitWithTags(
	ctx context.Context,
	ownerID string,
	fields models.HabitFields,
	tagIDs []string,
) (*models.Habit, error) {
	tx, err := begin(ctx, r.DB)
	if err != nil {
		return nil, err
	}
	defer tx.Close()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO habits (id, user_id, name, description, frequency, target_count, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+habitColumns,
		uuid.NewString(), ownerID, fields.Name, fields.Description, string(fields.Frequency),
		fields.TargetCount, fields.IsActive,
	)
	habit, err := scanHabit(row)
	if err != nil {
		return nil, fmt.Errorf("insert habit: %w", db.Classify(err))
	}

	if err := insertHabitTags(ctx, tx, habit.ID, tagIDs); err != nil {
		return nil, err
	}
	if habit.Tags, err = tagsOfHabit(ctx, tx, habit.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return habit, nil
}

// UpdateHabitWithTags applies patch to the habit (id, ownerID). A nil
// tagIDs leaves its tags alone; a non-nil one, even empty, replaces them.
// A habit that does not exist or belongs to someone else yields db.ErrNotFound.
func (r *PostgresHabitRepository) UpdateHabitWithTags(
	ctx context.Context,
	ownerID, habitID string,
	patch models.HabitPatch,
	tagIDs *[]string,
) (*models.Habit, error) {
	tx, err := begin(ctx, r.DB)
	if err != nil {
		return nil, err
	}
	defer tx.Close()

	var frequency *string
	if patch.Frequency != nil {
		f := string(*patch.Frequency)
		frequency = &f
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE habits SET
			name = COALESCE($3, name),
			description = COALESCE($4, description),
			frequency = COALESCE($5, frequency),
			target_count = COALESCE($6, target_count),
			is_active = COALESCE($7, is_active),
			updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
		RETURNING `+habitColumns,
		habitID, ownerID, patch.Name, patch.Description, frequency, patch.TargetCount, patch.IsActive,
	)
	habit, err := scanHabit(row)
	if err != nil {
		return nil, fmt.Errorf("update habit: %w", db.Classify(err))
	}

	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, `DELETE FROM habit_tags WHERE habit_id = $1`, habit.ID); err != nil {
			return nil, fmt.Errorf("clear habit tags: %w", db.Classify(err))
		}
		if err := insertHabitTags(ctx, tx, habit.ID, *tagIDs); err != nil {
			return nil, err
		}
	}
	if habit.Tags, err = tagsOfHabit(ctx, tx, habit.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return habit, nil
}

// GetHabit returns the live habit (id, ownerID) with its tags.
func (r *PostgresHabitRepository) GetHabit(ctx context.Context, ownerID, habitID string) (*models.Habit, error) {
	habit, err := scanHabit(r.DB.QueryRowContext(ctx, `
		SELECT `+habitColumns+` FROM habits
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, habitID, ownerID))
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", db.Classify(err))
	}
	if habit.Tags, err = tagsOfHabit(ctx, r.DB, habit.ID); err != nil {
		return nil, err
	}
	return habit, nil
}

func (r *PostgresHabitRepository) listHabits(ctx context.Context, query string, args ...any) ([]models.Habit, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", db.Classify(err))
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list habits: %w", db.Classify(err))
	}

	if err := attachTags(ctx, r.DB, habits); err != nil {
		return nil, err
	}
	return habits, nil
}

// ListHabits returns the live habits of ownerID, newest first, with tags.
func (r *PostgresHabitRepository) ListHabits(ctx context.Context, ownerID string) ([]models.Habit, error) {
	return r.listHabits(ctx, `
		SELECT `+habitColumns+` FROM habits
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, ownerID)
}

// ListHabitsByTag returns the live habits of ownerID that carry tagID.
func (r *PostgresHabitRepository) ListHabitsByTag(ctx context.Context, ownerID, tagID string) ([]models.Habit, error) {
	return r.listHabits(ctx, `
		SELECT h.id, h.user_id, h.name, h.description, h.frequency, h.target_count, h.is_active, h.created_at, h.updated_at
		FROM habits h JOIN habit_tags ht ON ht.habit_id = h.id
		WHERE ht.tag_id = $1 AND h.user_id = $2 AND h.deleted_at IS NULL
		ORDER BY h.created_at DESC
	`, tagID, ownerID)
}

// DeleteHabit soft-deletes the habit (id, ownerID). The row is purged later
// by db.StartSoftDeleteCleaner.
func (r *PostgresHabitRepository) DeleteHabit(ctx context.Context, ownerID, habitID string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE habits SET deleted_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
	`, habitID, ownerID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", db.Classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete habit: %w", db.ErrNotFound)
	}
	return nil
}
