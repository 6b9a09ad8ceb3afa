package watermark

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// migration pairs a schema version with the SQL that brings the
// database up to that version.
type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			);
			CREATE TABLE IF NOT EXISTS watermarks (
				key   TEXT PRIMARY KEY,
				value INTEGER NOT NULL DEFAULT 0
			);
			CREATE TABLE IF NOT EXISTS flags (
				key TEXT PRIMARY KEY
			);
			INSERT INTO schema_version (version) VALUES (1);
		`,
	},
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Get returns the persisted counter for key, or 0 if it was never set.
func (s *SQLiteStore) Get(ctx context.Context, key string) (int, error) {
	var value int
	err := s.db.GetContext(ctx, &value, "SELECT value FROM watermarks WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading watermark %q: %w", key, err)
	}
	return value, nil
}

// Set persists the counter for key, replacing any previous value.
func (s *SQLiteStore) Set(ctx context.Context, key string, value int) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO watermarks (key, value) VALUES (?, ?)",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("writing watermark %q: %w", key, err)
	}
	return nil
}

// GetFlag returns whether the boolean flag for key was ever set.
func (s *SQLiteStore) GetFlag(ctx context.Context, key string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM flags WHERE key = ?", key)
	if err != nil {
		return false, fmt.Errorf("reading flag %q: %w", key, err)
	}
	return count > 0, nil
}

// SetFlag marks the boolean flag for key.
func (s *SQLiteStore) SetFlag(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO flags (key) VALUES (?)", key,
	)
	if err != nil {
		return fmt.Errorf("writing flag %q: %w", key, err)
	}
	return nil
}
