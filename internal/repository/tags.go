package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/google/uuid"
)

// PostgresTagRepository stores the global tag list.
type PostgresTagRepository struct {
	DB *sql.DB
}

// NewPostgresTagRepository creates a new PostgresTagRepository.
func NewPostgresTagRepository(conn *sql.DB) *PostgresTagRepository {
	return &PostgresTagRepository{DB: conn}
}

const tagColumns = `id, name, color, created_at, updated_at`

func scanTag(row interface{ Scan(...any) error }) (*models.Tag, error) {
	var t models.Tag
	if err := row.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTag inserts a tag. A taken name yields db.ErrDuplicateKey.
func (r *PostgresTagRepository) CreateTag(ctx context.Context, name, color string) (*models.Tag, error) {
	t, err := scanTag(r.DB.QueryRowContext(ctx, `
		INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)
		RETURNING `+tagColumns,
		uuid.NewString(), name, color,
	))
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", db.Classify(err))
	}
	return t, nil
}

// GetTag returns the tag with the given id or db.ErrNotFound.
func (r *PostgresTagRepository) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	t, err := scanTag(r.DB.QueryRowContext(ctx, `SELECT `+tagColumns+` FROM tags WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get tag: %w", db.Classify(err))
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func (r *PostgresTagRepository) ListTags(ctx context.Context) ([]models.Tag, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+tagColumns+` FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", db.Classify(err))
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tags: %w", db.Classify(err))
	}
	return tags, nil
}

// UpdateTag changes the non-nil fields of tag id.
func (r *PostgresTagRepository) UpdateTag(ctx context.Context, id string, name, color *string) (*models.Tag, error) {
	t, err := scanTag(r.DB.QueryRowContext(ctx, `
		UPDATE tags SET
			name = COALESCE($2, name),
			color = COALESCE($3, color),
			updated_at = now()
		WHERE id = $1
		RETURNING `+tagColumns,
		id, name, color,
	))
	if err != nil {
		return nil, fmt.Errorf("update tag: %w", db.Classify(err))
	}
	return t, nil
}

// DeleteTag removes tag id. Its habit links are removed by cascade.
func (r *PostgresTagRepository) DeleteTag(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", db.Classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete tag: %w", db.ErrNotFound)
	}
	return nil
}
