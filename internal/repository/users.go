package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/habittracker/internal/db"
	"github.com/atinyakov/habittracker/internal/models"
	"github.com/google/uuid"
)

// PostgresUserRepository stores credentials and profiles in the users table.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
func NewPostgresUserRepository(conn *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: conn}
}

const userColumns = `id, email, username, password, first_name, last_name, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new user. A taken email or username yields db.ErrDuplicateKey.
func (r *PostgresUserRepository) CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (id, email, username, password, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userColumns,
		uuid.NewString(), nu.Email, nu.Username, nu.PasswordHash, nu.FirstName, nu.LastName,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", db.Classify(err))
	}
	return u, nil
}

// GetUserByEmail returns the user with the given email or db.ErrNotFound.
func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", db.Classify(err))
	}
	return u, nil
}

// GetUserByID returns the user with the given id or db.ErrNotFound.
func (r *PostgresUserRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", db.Classify(err))
	}
	return u, nil
}

// ListUsers returns every user ordered by creation time. Password hashes
// are not read.
func (r *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, email, username, first_name, last_name, created_at
		FROM users ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", db.Classify(err))
	}
	defer rows.Close()

	users := []models.PublicUser{}
	for rows.Next() {
		var u models.PublicUser
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FirstName, &u.LastName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", db.Classify(err))
	}
	return users, nil
}

// UpdatePassword replaces the password hash of user id and bumps updated_at.
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", db.Classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update password: %w", db.ErrNotFound)
	}
	return nil
}

// UpdateProfile applies the non-nil fields of patch to user id.
func (r *PostgresUserRepository) UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.User, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE users SET
			email = COALESCE($2, email),
			username = COALESCE($3, username),
			first_name = COALESCE($4, first_name),
			last_name = COALESCE($5, last_name),
			updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.Email, patch.Username, patch.FirstName, patch.LastName,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", db.Classify(err))
	}
	return u, nil
}
