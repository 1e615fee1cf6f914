package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/atinyakov/habittracker/internal/db"
	"github.com/lib/pq"
)

func setupTagMock(t *testing.T) (*PostgresTagRepository, *PostgresEntryRepository, sqlmock.Sqlmock, func()) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	return NewPostgresTagRepository(conn), NewPostgresEntryRepository(conn), mock, func() { conn.Close() }
}

func TestCreateTag(t *testing.T) {
	repo, _, mock, cleanup := setupTagMock(t)
	defer cleanup()

	q := regexp.QuoteMeta(`INSERT INTO tags (id, name, color) VALUES ($1, $2, $3)`)
	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "Health", "#f0f0f0").
		WillReturnRows(sqlmock.NewRows(tagCols).AddRow(tagA, "Health", "#f0f0f0", fixedTime, fixedTime))
	tag, err := repo.CreateTag(context.Background(), "Health", "#f0f0f0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag.ID != tagA || tag.Color != "#f0f0f0" {
		t.Errorf("unexpected tag: %+v", tag)
	}

	mock.ExpectQuery(q).WillReturnError(&pq.Error{Code: "23505", Constraint: "tags_name_key"})
	if _, err := repo.CreateTag(context.Background(), "Health", "#f0f0f0"); !errors.Is(err, db.ErrDuplicateKey) {
		t.Errorf("error = %v; want ErrDuplicateKey", err)
	}
}

func TestListTags_OrderedByName(t *testing.T) {
	repo, _, mock, cleanup := setupTagMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tags ORDER BY name`)).
		WillReturnRows(sqlmock.NewRows(tagCols).
			AddRow(tagA, "Health", "#f0f0f0", fixedTime, fixedTime).
			AddRow(tagB, "Work", "#6B7280", fixedTime, fixedTime))

	tags, err := repo.ListTags(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tags) != 2 || tags[0].Name != "Health" {
		t.Errorf("unexpected tags: %+v", tags)
	}
}

func TestGetUpdateDeleteTag(t *testing.T) {
	repo, _, mock, cleanup := setupTagMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM tags WHERE id = $1`)).
		WithArgs(tagB).
		WillReturnRows(sqlmock.NewRows(tagCols))
	if _, err := repo.GetTag(context.Background(), tagB); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("GetTag error = %v; want ErrNotFound", err)
	}

	color := "#123ABC"
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE tags SET name = COALESCE($2, name)`)).
		WithArgs(tagA, nil, color).
		WillReturnRows(sqlmock.NewRows(tagCols).AddRow(tagA, "Health", color, fixedTime, fixedTime))
	tag, err := repo.UpdateTag(context.Background(), tagA, nil, &color)
	if err != nil || tag.Color != color {
		t.Errorf("UpdateTag = %+v, %v", tag, err)
	}

	q := regexp.QuoteMeta(`DELETE FROM tags WHERE id = $1`)
	mock.ExpectExec(q).WithArgs(tagA).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.DeleteTag(context.Background(), tagA); err != nil {
		t.Errorf("DeleteTag: %v", err)
	}
	mock.ExpectExec(q).WithArgs(tagA).WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.DeleteTag(context.Background(), tagA); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("DeleteTag error = %v; want ErrNotFound", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateEntry(t *testing.T) {
	_, repo, mock, cleanup := setupTagMock(t)
	defer cleanup()

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	q := regexp.QuoteMeta(`INSERT INTO entries (id, habit_id, completion_date, note) SELECT $1, h.id, $3, $4 FROM habits h`)
	cols := []string{"id", "habit_id", "completion_date", "note", "created_at"}

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), habitA, day, nil, owner1).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("e1", habitA, day, nil, fixedTime))
	e, err := repo.CreateEntry(context.Background(), owner1, habitA, day, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.HabitID != habitA || !e.CompletionDate.Equal(day) {
		t.Errorf("unexpected entry: %+v", e)
	}

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), habitA, day, nil, owner2).
		WillReturnRows(sqlmock.NewRows(cols))
	if _, err := repo.CreateEntry(context.Background(), owner2, habitA, day, nil); !errors.Is(err, db.ErrNotFound) {
		t.Errorf("error = %v; want ErrNotFound", err)
	}
}

func TestListEntries(t *testing.T) {
	_, repo, mock, cleanup := setupTagMock(t)
	defer cleanup()

	note := "felt good"
	mock.ExpectQuery(regexp.QuoteMeta(`FROM entries WHERE habit_id = $1 ORDER BY completion_date DESC`)).
		WithArgs(habitA).
		WillReturnRows(sqlmock.NewRows([]string{"id", "habit_id", "completion_date", "note", "created_at"}).
			AddRow("e2", habitA, fixedTime, note, fixedTime).
			AddRow("e1", habitA, fixedTime.AddDate(0, 0, -1), nil, fixedTime))

	entries, err := repo.ListEntries(context.Background(), habitA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 || entries[0].Note == nil || *entries[0].Note != note {
		t.Errorf("unexpected entries: %+v", entries)
	}
}
