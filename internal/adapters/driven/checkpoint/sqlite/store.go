// Package sqlite provides a durable checkpoint store so incremental
// runs survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/beaconsearch/connector-sdk/internal/adapters/driven/checkpoint/sqlite/migrations"
	"github.com/beaconsearch/connector-sdk/internal/core/domain"
	"github.com/beaconsearch/connector-sdk/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.CheckpointStore = (*Store)(nil)

// Store is a SQLite-backed checkpoint store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a checkpoint store at the specified data directory.
// If dataDir is empty, defaults to ~/.beacon-connector/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".beacon-connector", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "checkpoints.db")

	// WAL mode for better concurrency between a run and status queries.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Save stores or updates the checkpoint for a datasource.
func (s *Store) Save(ctx context.Context, checkpoint domain.Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (datasource, cursor, last_run)
		VALUES (?, ?, ?)
		ON CONFLICT(datasource) DO UPDATE SET
			cursor = excluded.cursor,
			last_run = excluded.last_run
	`, checkpoint.Datasource, checkpoint.Cursor, checkpoint.LastRun.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	return nil
}

// Get retrieves the checkpoint for a datasource.
func (s *Store) Get(ctx context.Context, datasource string) (*domain.Checkpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT datasource, cursor, last_run FROM checkpoints WHERE datasource = ?
	`, datasource)

	var checkpoint domain.Checkpoint
	var lastRun string
	if err := row.Scan(&checkpoint.Datasource, &checkpoint.Cursor, &lastRun); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning checkpoint: %w", err)
	}

	parsed, err := time.Parse(time.RFC3339Nano, lastRun)
	if err != nil {
		return nil, fmt.Errorf("parsing checkpoint last_run: %w", err)
	}
	checkpoint.LastRun = parsed
	return &checkpoint, nil
}

// Delete removes the checkpoint for a datasource.
func (s *Store) Delete(ctx context.Context, datasource string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM checkpoints WHERE datasource = ?", datasource)
	if err != nil {
		return fmt.Errorf("deleting checkpoint: %w", err)
	}
	return nil
}

func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_checkpoints.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
