// Package remote provides the hosted, owner-scoped table store for oclock.
//
// Every row carries an owner column and all reads and writes are
// filtered or stamped by the current principal; a principal can never
// observe another principal's rows. The store backs three tables:
//
//   - todos: per-row upsert/delete keyed by id
//   - work_sessions: bulk replace (delete-all-by-owner + insert)
//   - user_settings: single row per owner, upsert-by-owner
//
// The asymmetry between the todo path and the session/settings path is
// deliberate: it mirrors the synchronization policy the tracker applies
// per collection.
//
// The database runs in embedded mode using SQLite with WAL for
// concurrency support.
package remote

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boudmaker/oclock/internal/schema"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DB wraps the SQLite connection with oclock-specific table operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent
// reads. If the database doesn't exist, it is created; call InitSchema
// before first use. The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{
		conn: conn,
		path: path,
	}

	if _, err := db.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// RawDB returns the underlying sql.DB connection.
func (db *DB) RawDB() *sql.DB {
	return db.conn
}

// Close closes the database connection.
// Performs a WAL checkpoint to ensure all changes are persisted.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
// This is idempotent - safe to call multiple times.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS todos (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		text TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS work_sessions (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration INTEGER NOT NULL DEFAULT 0,
		earnings REAL NOT NULL DEFAULT 0,
		hourly_rate REAL NOT NULL DEFAULT 0,
		is_manual INTEGER NOT NULL DEFAULT 0,
		task_name TEXT,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS user_settings (
		owner TEXT PRIMARY KEY,
		hourly_rate REAL NOT NULL,
		user_name TEXT,
		user_email TEXT,
		updated_at TEXT NOT NULL
	);

	-- Indexes for owner-scoped queries
	CREATE INDEX IF NOT EXISTS idx_todos_owner ON todos(owner, created_at);
	CREATE INDEX IF NOT EXISTS idx_sessions_owner ON work_sessions(owner, start_time);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// =====================================================
// Todos: per-row upsert / delete
// =====================================================

// UpsertTodo inserts or updates a single todo row stamped with owner.
func (db *DB) UpsertTodo(owner string, item *schema.TodoItem) error {
	return db.UpsertTodoContext(context.Background(), owner, item)
}

// UpsertTodoContext inserts or updates a todo with context support.
func (db *DB) UpsertTodoContext(ctx context.Context, owner string, item *schema.TodoItem) error {
	if owner == "" {
		return fmt.Errorf("owner is required")
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid todo: %w", err)
	}

	query := `
	INSERT INTO todos (id, owner, text, completed, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		text = excluded.text,
		completed = excluded.completed
	`

	_, err := db.conn.ExecContext(ctx, query,
		item.ID,
		owner,
		item.Text,
		boolToInt(item.Completed),
		item.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert todo %s: %w", item.ID, err)
	}

	return nil
}

// DeleteTodo removes a todo row matching both id and owner.
// Returns nil if the row doesn't exist (idempotent).
func (db *DB) DeleteTodo(owner, id string) error {
	return db.DeleteTodoContext(context.Background(), owner, id)
}

// DeleteTodoContext removes a todo with context support.
func (db *DB) DeleteTodoContext(ctx context.Context, owner, id string) error {
	query := `DELETE FROM todos WHERE id = ? AND owner = ?`
	_, err := db.conn.ExecContext(ctx, query, id, owner)
	if err != nil {
		return fmt.Errorf("failed to delete todo %s: %w", id, err)
	}
	return nil
}

// DeleteAllTodos removes every todo row owned by owner.
func (db *DB) DeleteAllTodos(ctx context.Context, owner string) error {
	query := `DELETE FROM todos WHERE owner = ?`
	if _, err := db.conn.ExecContext(ctx, query, owner); err != nil {
		return fmt.Errorf("failed to delete todos for owner: %w", err)
	}
	return nil
}

// InsertTodos bulk-inserts todo rows for owner inside one transaction.
func (db *DB) InsertTodos(ctx context.Context, owner string, items []*schema.TodoItem) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO todos (id, owner, text, completed, created_at) VALUES (?, ?, ?, ?, ?)`
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("invalid todo %s: %w", item.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			item.ID, owner, item.Text, boolToInt(item.Completed),
			item.CreatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert todo %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListTodos returns all todo rows owned by owner, ordered by creation
// time ascending. An empty result is an empty slice, not an error.
func (db *DB) ListTodos(ctx context.Context, owner string) ([]*schema.TodoItem, error) {
	query := `
	SELECT id, text, completed, created_at
	FROM todos
	WHERE owner = ?
	ORDER BY created_at ASC
	`

	rows, err := db.conn.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	items := []*schema.TodoItem{}
	for rows.Next() {
		var item schema.TodoItem
		var completed int
		var createdAt string

		if err := rows.Scan(&item.ID, &item.Text, &completed, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}

		item.Completed = completed != 0
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			item.CreatedAt = t
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating todos: %w", err)
	}

	return items, nil
}

// CountTodos returns the number of todo rows owned by owner.
func (db *DB) CountTodos(ctx context.Context, owner string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM todos WHERE owner = ?", owner).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count todos: %w", err)
	}
	return count, nil
}

// =====================================================
// Work sessions: bulk replace
// =====================================================

// ReplaceSessions replaces every session row owned by owner with the
// given sequence: delete-all-by-owner followed by a bulk insert, in one
// transaction. Passing an empty slice clears the owner's sessions.
func (db *DB) ReplaceSessions(ctx context.Context, owner string, sessions []*schema.WorkSession) error {
	if owner == "" {
		return fmt.Errorf("owner is required")
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_sessions WHERE owner = ?`, owner); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}

	query := `
	INSERT INTO work_sessions (
		id, owner, start_time, end_time, duration,
		earnings, hourly_rate, is_manual, task_name, description
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, s := range sessions {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("invalid session %s: %w", s.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query,
			s.ID,
			owner,
			s.StartTime.Format(time.RFC3339Nano),
			s.EndTime.Format(time.RFC3339Nano),
			s.Duration,
			s.Earnings,
			s.HourlyRate,
			boolToInt(s.IsManual),
			s.TaskName,
			s.Description,
		); err != nil {
			return fmt.Errorf("failed to insert session %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSessions returns all session rows owned by owner, ordered by
// start time descending (newest first).
func (db *DB) ListSessions(ctx context.Context, owner string) ([]*schema.WorkSession, error) {
	query := `
	SELECT id, start_time, end_time, duration, earnings,
	       hourly_rate, is_manual, task_name, description
	FROM work_sessions
	WHERE owner = ?
	ORDER BY start_time DESC
	`

	rows, err := db.conn.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []*schema.WorkSession{}
	for rows.Next() {
		var s schema.WorkSession
		var startTime, endTime string
		var isManual int
		var taskName, description sql.NullString

		if err := rows.Scan(
			&s.ID, &startTime, &endTime, &s.Duration, &s.Earnings,
			&s.HourlyRate, &isManual, &taskName, &description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		if t, err := time.Parse(time.RFC3339Nano, startTime); err == nil {
			s.StartTime = t
		}
		if t, err := time.Parse(time.RFC3339Nano, endTime); err == nil {
			s.EndTime = t
		}
		s.IsManual = isManual != 0
		s.TaskName = taskName.String
		s.Description = description.String

		sessions = append(sessions, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// CountSessions returns the number of session rows owned by owner.
func (db *DB) CountSessions(ctx context.Context, owner string) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM work_sessions WHERE owner = ?", owner).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// =====================================================
// Settings: single row per owner
// =====================================================

// UpsertSettings inserts or updates the settings row for owner.
func (db *DB) UpsertSettings(owner string, settings *schema.UserSettings) error {
	return db.UpsertSettingsContext(context.Background(), owner, settings)
}

// UpsertSettingsContext inserts or updates settings with context support.
func (db *DB) UpsertSettingsContext(ctx context.Context, owner string, settings *schema.UserSettings) error {
	if owner == "" {
		return fmt.Errorf("owner is required")
	}

	query := `
	INSERT INTO user_settings (owner, hourly_rate, user_name, user_email, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(owner) DO UPDATE SET
		hourly_rate = excluded.hourly_rate,
		user_name = excluded.user_name,
		user_email = excluded.user_email,
		updated_at = excluded.updated_at
	`

	_, err := db.conn.ExecContext(ctx, query,
		owner,
		settings.HourlyRate,
		settings.UserName,
		settings.UserEmail,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}

	return nil
}

// GetSettings retrieves the settings row for owner.
// Returns sql.ErrNoRows if no row exists yet.
func (db *DB) GetSettings(ctx context.Context, owner string) (*schema.UserSettings, error) {
	query := `
	SELECT hourly_rate, user_name, user_email
	FROM user_settings
	WHERE owner = ?
	`

	row := db.conn.QueryRowContext(ctx, query, owner)

	var settings schema.UserSettings
	var userName, userEmail sql.NullString
	if err := row.Scan(&settings.HourlyRate, &userName, &userEmail); err != nil {
		return nil, err
	}
	settings.UserName = userName.String
	settings.UserEmail = userEmail.String

	return &settings, nil
}

// boolToInt converts a bool to the 0/1 representation SQLite stores.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
