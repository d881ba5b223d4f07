package db

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database session. A Store must be released with
// Close on every exit path; Close finalizes pending writes.
type Store struct {
	*sql.DB
}

// Options are applied once when the session is opened, not per call.
type Options struct {
	// ForeignKeys enables referential-integrity enforcement for the
	// whole session.
	ForeignKeys bool
	// BusyTimeout bounds how long the driver waits on a locked database.
	BusyTimeout time.Duration
}

// DefaultOptions enforces foreign keys with a five second busy timeout.
func DefaultOptions() Options {
	return Options{ForeignKeys: true, BusyTimeout: 5 * time.Second}
}

// Open creates or opens a SQLite database at the given path.
func Open(path string, opts Options) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// One logical session per caller: the layer assumes single-writer
	// discipline, and a single connection keeps :memory: databases from
	// being split across the pool.
	sqlDB.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	// NOTE: On some filesystems (notably Windows bind mounts under Docker
	// Desktop), changing journal modes can fail with "disk I/O error". In
	// that case, we log and continue with SQLite's default journaling
	// rather than refusing to start.
	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Printf("Warning: failed to enable WAL mode (%v); continuing without WAL", err)
	}

	fk := "OFF"
	if opts.ForeignKeys {
		fk = "ON"
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys=" + fk); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("set foreign keys %s: %w", fk, err)
	}

	if opts.BusyTimeout > 0 {
		if _, err := sqlDB.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds())); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}

	return &Store{DB: sqlDB}, nil
}

// ForeignKeysEnabled reports whether referential integrity is enforced
// on this session.
func (s *Store) ForeignKeysEnabled() (bool, error) {
	var on int
	if err := s.QueryRow("PRAGMA foreign_keys").Scan(&on); err != nil {
		return false, fmt.Errorf("query foreign keys pragma: %w", err)
	}
	return on == 1, nil
}

// CreateSchema applies all pending schema migrations.
func (s *Store) CreateSchema() error {
	// Create migrations tracking table
	if _, err := s.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	for i, m := range migrations {
		version := i + 1
		var count int
		if err := s.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("check migration %d: %w", version, err)
		}
		if count > 0 {
			continue
		}

		log.Printf("Running migration %d: %s", version, m.name)
		if _, err := s.Exec(m.sql); err != nil {
			return fmt.Errorf("migration %d (%s): %w", version, m.name, err)
		}
		if _, err := s.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("record migration %d: %w", version, err)
		}
	}

	return nil
}

// CreateSchemaFromFile executes a .sql schema dump instead of the
// built-in migrations.
func (s *Store) CreateSchemaFromFile(path string) error {
	return s.execFile("schema", path)
}

// Seed inserts the built-in sample records.
func (s *Store) Seed() error {
	for _, stmt := range seedStatements {
		if _, err := s.Exec(stmt); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}
	return nil
}

// SeedFromFile executes a .sql data dump.
func (s *Store) SeedFromFile(path string) error {
	return s.execFile("seed", path)
}

// PurgeAll removes every message and user while keeping the schema.
// Profile rows are removed by the users cascade.
func (s *Store) PurgeAll() error {
	if _, err := s.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("purge messages: %w", err)
	}
	if _, err := s.Exec("DELETE FROM users"); err != nil {
		return fmt.Errorf("purge users: %w", err)
	}
	return nil
}

func (s *Store) execFile(kind, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", kind, path, err)
	}
	if _, err := s.Exec(string(script)); err != nil {
		return fmt.Errorf("execute %s %s: %w", kind, path, err)
	}
	return nil
}

// Remove deletes the database file. Missing files are not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove database %s: %w", path, err)
	}
	return nil
}
