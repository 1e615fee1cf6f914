// Package repository provides PostgreSQL persistence for users, habits,
// tags and completion entries.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/atinyakov/habittracker/internal/db"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scopedTx is a transaction that is rolled back by Close unless Commit
// succeeded first. Callers defer Close right after begin.
type scopedTx struct {
	*sql.Tx
	done bool
}

func begin(ctx context.Context, conn *sql.DB) (*scopedTx, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", db.Classify(err))
	}
	return &scopedTx{Tx: tx}, nil
}

// Commit commits the transaction. After a failed commit Close is a no-op.
func (t *scopedTx) Commit() error {
	t.done = true
	if err := t.Tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", db.Classify(err))
	}
	return nil
}

// Close rolls back the transaction if it has not been committed.
func (t *scopedTx) Close() {
	if t.done {
		return
	}
	t.done = true
	_ = t.Tx.Rollback()
}
