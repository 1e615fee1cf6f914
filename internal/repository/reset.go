package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/habittracker/internal/db"
)

// ResetAll deletes every row of every table in one transaction.
func ResetAll(ctx context.Context, conn *sql.DB) error {
	tx, err := begin(ctx, conn)
	if err != nil {
		return err
	}
	defer tx.Close()

	for _, stmt := range []string{
		`DELETE FROM entries`,
		`DELETE FROM habit_tags`,
		`DELETE FROM habits`,
		`DELETE FROM tags`,
		`DELETE FROM users`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", db.Classify(err))
		}
	}
	return tx.Commit()
}
