package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fyrsmithlabs/voicetask/internal/extraction"
	"github.com/fyrsmithlabs/voicetask/internal/sanitize"
	"github.com/fyrsmithlabs/voicetask/internal/task"
)

//go:embed schema.sql
var schema string

// Timestamps are stored as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	clean, err := sanitize.ValidatePath(path, "")
	if err != nil {
		return nil, fmt.Errorf("invalid sqlite path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0700); err != nil {
		return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite3", clean+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent Create calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Create inserts d for userID.
func (s *SQLiteStore) Create(ctx context.Context, userID string, d task.Draft) (task.Record, error) {
	if userID == "" {
		return task.Record{}, ErrMissingUser
	}
	rec := task.Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
		Draft:     copyDraft(d),
	}

	var due sql.NullString
	if rec.DueDate != nil {
		due = sql.NullString{String: rec.DueDate.UTC().Format(timeLayout), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, description, priority, category, due_date, contact_person, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.UserID, rec.Title, rec.Description, string(rec.Priority), string(rec.Category),
		due, rec.ContactPerson, rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return task.Record{}, fmt.Errorf("failed to insert task: %w", err)
	}
	return rec, nil
}

// Get returns the record with id or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) (task.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, title, description, priority, category, due_date, contact_person, created_at
		FROM tasks WHERE id = ?
	`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Record{}, ErrNotFound
	}
	return rec, err
}

// List returns up to limit records for userID, newest first. A limit of
// zero or less returns everything.
func (s *SQLiteStore) List(ctx context.Context, userID string, limit int) ([]task.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, description, priority, category, due_date, contact_person, created_at
		FROM tasks WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	out := make([]task.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (task.Record, error) {
	var (
		rec           task.Record
		priority, cat string
		due           sql.NullString
		createdAt     string
	)
	err := sc.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Description, &priority, &cat,
		&due, &rec.ContactPerson, &createdAt)
	if err != nil {
		return task.Record{}, err
	}
	rec.Priority = extraction.Priority(priority)
	rec.Category = extraction.Category(cat)

	if rec.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return task.Record{}, fmt.Errorf("corrupt created_at for task %s: %w", rec.ID, err)
	}
	if due.Valid {
		t, err := time.Parse(timeLayout, due.String)
		if err != nil {
			return task.Record{}, fmt.Errorf("corrupt due_date for task %s: %w", rec.ID, err)
		}
		rec.DueDate = &t
	}
	return rec, nil
}
