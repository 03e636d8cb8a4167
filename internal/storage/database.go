package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an insert loses to a uniqueness
	// constraint, e.g. a concurrent finalize of the same media file.
	ErrConflict = errors.New("conflicting record exists")
)

// DBTX is the subset of database/sql methods the repositories need.
// It is satisfied by both *sql.DB and *sql.Tx, which lets the import
// engine run every repository inside a single transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			imported_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS files (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS codes (
			id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL,
			code_name TEXT NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			start_offset INTEGER NOT NULL,
			end_offset INTEGER NOT NULL,
			position_x REAL NOT NULL DEFAULT 0,
			position_y REAL NOT NULL DEFAULT 0,
			size_width REAL NOT NULL DEFAULT 0,
			size_height REAL NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (file_id) REFERENCES files(id) ON DELETE CASCADE,
			CHECK (start_offset >= 0 AND end_offset >= start_offset)
		);`,
		`CREATE TABLE IF NOT EXISTS themes (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			code_ids TEXT NOT NULL DEFAULT '',
			position_x REAL NOT NULL DEFAULT 0,
			position_y REAL NOT NULL DEFAULT 0,
			size_width REAL NOT NULL DEFAULT 0,
			size_height REAL NOT NULL DEFAULT 0,
			style_color TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			name TEXT NOT NULL,
			theme_ids TEXT NOT NULL DEFAULT '',
			position_x REAL NOT NULL DEFAULT 0,
			position_y REAL NOT NULL DEFAULT 0,
			size_width REAL NOT NULL DEFAULT 0,
			size_height REAL NOT NULL DEFAULT 0,
			style_color TEXT NOT NULL DEFAULT '',
			expanded INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS annotations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			content TEXT NOT NULL DEFAULT '',
			position_x REAL NOT NULL DEFAULT 0,
			position_y REAL NOT NULL DEFAULT 0,
			size_width REAL NOT NULL DEFAULT 0,
			size_height REAL NOT NULL DEFAULT 0,
			style_color TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS media_files (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT '',
			storage_path TEXT NOT NULL DEFAULT '',
			size_bytes INTEGER NOT NULL DEFAULT 0,
			duration_sec REAL NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'uploaded',
			error_message TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS participants (
			id TEXT PRIMARY KEY,
			media_file_id TEXT NOT NULL,
			name TEXT NOT NULL,
			canonical_key TEXT NOT NULL,
			color TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (media_file_id) REFERENCES media_files(id) ON DELETE CASCADE,
			UNIQUE (media_file_id, canonical_key)
		);`,
		`CREATE TABLE IF NOT EXISTS transcript_segments (
			id TEXT PRIMARY KEY,
			media_file_id TEXT NOT NULL,
			participant_id TEXT,
			idx INTEGER NOT NULL,
			start_ms INTEGER NOT NULL,
			end_ms INTEGER NOT NULL,
			text TEXT NOT NULL DEFAULT '',
			FOREIGN KEY (media_file_id) REFERENCES media_files(id) ON DELETE CASCADE,
			FOREIGN KEY (participant_id) REFERENCES participants(id) ON DELETE SET NULL,
			CHECK (start_ms >= 0 AND end_ms >= start_ms)
		);`,
		`CREATE TABLE IF NOT EXISTS finalize_mappings (
			media_file_id TEXT PRIMARY KEY,
			file_id TEXT NOT NULL,
			finalized_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			original_segment_count INTEGER NOT NULL,
			FOREIGN KEY (media_file_id) REFERENCES media_files(id) ON DELETE CASCADE,
			FOREIGN KEY (file_id) REFERENCES files(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_files_project ON files(project_id);`,
		`CREATE INDEX IF NOT EXISTS idx_codes_file ON codes(file_id);`,
		`CREATE INDEX IF NOT EXISTS idx_segments_media ON transcript_segments(media_file_id, idx);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// parseTimestamp parses a SQLite DATETIME column value.
// SQLite stores CURRENT_TIMESTAMP as "2006-01-02 15:04:05" but drivers
// may hand back RFC3339 depending on how the value was written.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
