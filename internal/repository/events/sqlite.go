package events

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
)

const (
	// dirPermissions is the permission mode for the database directory.
	dirPermissions = 0o750

	// busyTimeout is how long SQLite waits for a lock before failing (ms).
	busyTimeout = 5000

	// connectTimeout bounds the connectivity check on Open.
	connectTimeout = 5 * time.Second
)

// schema is applied on every Open; CREATE TABLE IF NOT EXISTS keeps it
// idempotent across restarts.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	kind            TEXT    NOT NULL,
	installation_id TEXT    NOT NULL DEFAULT '',
	mode            TEXT    NOT NULL DEFAULT '',
	success         INTEGER NOT NULL,
	message         TEXT    NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);
`

// Repository defines the append-only audit log operations.
type Repository interface {
	Record(ctx context.Context, event domain.Event) error
	Recent(ctx context.Context, limit int) ([]domain.Event, error)
	Close() error
}

// SQLiteRepository stores audit events in an embedded SQLite database.
type SQLiteRepository struct {
	// db is the underlying connection pool.
	db *sql.DB
}

// Open creates (or reuses) the database at the given path and ensures the
// schema exists. The parent directory is created when missing.
func Open(path string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	connStr := fmt.Sprintf(
		"file:%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on",
		path, busyTimeout,
	)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open events database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping events database: %w", err)
	}

	if _, err = db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply events schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Record appends one event to the log.
func (r *SQLiteRepository) Record(ctx context.Context, event domain.Event) error {
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (kind, installation_id, mode, success, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(event.Kind), event.InstallationID, event.Mode,
		event.Success, event.Message, timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// Recent returns up to limit events, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, installation_id, mode, success, message, created_at
		 FROM events ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var result []domain.Event

	for rows.Next() {
		var (
			event domain.Event
			kind  string
		)

		if err = rows.Scan(&kind, &event.InstallationID, &event.Mode,
			&event.Success, &event.Message, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		event.Kind = domain.EventKind(kind)
		result = append(result, event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return result, nil
}

// Close releases the underlying database handle.
func (r *SQLiteRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}

	return r.db.Close()
}
