package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store is an embedded TaskStore and Directory for single-node deployments.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping is used by the health monitor.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		email       TEXT NOT NULL UNIQUE,
		first_name  TEXT NOT NULL DEFAULT '',
		surname     TEXT NOT NULL DEFAULT '',
		role        TEXT NOT NULL,
		enabled     INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pools (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL UNIQUE,
		description TEXT,
		enabled     INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pool_members (
		pool_id     INTEGER NOT NULL REFERENCES pools(id),
		user_id     INTEGER NOT NULL REFERENCES users(id),
		PRIMARY KEY (pool_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		is_urgent           INTEGER NOT NULL DEFAULT 0,
		contact_name        TEXT NOT NULL,
		contact_email       TEXT NOT NULL,
		contact_telephone   TEXT,
		contact_notes       TEXT,
		description         TEXT NOT NULL,
		deadline            TEXT NOT NULL,
		assigned_user_id    INTEGER REFERENCES users(id),
		assigned_pool_id    INTEGER REFERENCES pools(id),
		created_by_user_id  INTEGER NOT NULL REFERENCES users(id),
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_assigned_user ON tasks(assigned_user_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_assigned_pool ON tasks(assigned_pool_id);

	CREATE TABLE IF NOT EXISTS task_notes (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id         INTEGER NOT NULL REFERENCES tasks(id),
		author_user_id  INTEGER NOT NULL REFERENCES users(id),
		body            TEXT NOT NULL,
		created_at      TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_time_entries (
		id                  INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id             INTEGER NOT NULL REFERENCES tasks(id),
		logged_by_user_id   INTEGER NOT NULL REFERENCES users(id),
		hours               INTEGER NOT NULL CHECK (hours >= 0),
		minutes             INTEGER NOT NULL CHECK (minutes BETWEEN 0 AND 59),
		created_at          TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notes_task   ON task_notes(task_id);
	CREATE INDEX IF NOT EXISTS idx_entries_task ON task_time_entries(task_id);
	`
	_, err := s.db.Exec(ddl)
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, value)
	}
	return t
}

func now() string {
	return formatTime(time.Now())
}
