// ABOUTME: SQLite-backed store for updoot-server using modernc.org/sqlite
// ABOUTME: Owns the connection, schema bootstrap, and the singleton limit row

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store is the SQLite persistence layer for recommendations, comments and
// limits. All methods are safe for concurrent use; writes are serialized by
// SQLite itself.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx, so limit and count
// reads can run either standalone or inside the toggle transaction.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (creating if necessary) the SQLite database at the given path.
// Parent directories are created if needed. The schema is NOT touched here;
// call Migrate before serving.
func New(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pool connection to :memory: would otherwise get its own empty
	// database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	logger.Info("SQLite store opened", "path", path)
	return s, nil
}

// createSchema creates the current-shape tables if they don't exist
func (s *Store) createSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS recommendations (
			actor_id     TEXT,
			item_id      TEXT,
			display_name TEXT,
			PRIMARY KEY (actor_id, item_id)
		);

		CREATE TABLE IF NOT EXISTS comments (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			actor_id     TEXT,
			item_id      TEXT,
			display_name TEXT,
			body         TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_comments_item ON comments(item_id);
		CREATE INDEX IF NOT EXISTS idx_comments_actor ON comments(actor_id);

		CREATE TABLE IF NOT EXISTS global_limit (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			max_total INTEGER
		);

		CREATE TABLE IF NOT EXISTS actor_limit (
			actor_id      TEXT PRIMARY KEY,
			max_for_actor INTEGER
		);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// ensureGlobalLimitRow guarantees exactly one global_limit row exists,
// inserting the unlimited default when none is present. The guarded insert
// is a single statement, so two concurrent bootstraps cannot both insert.
func (s *Store) ensureGlobalLimitRow(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO global_limit (max_total)
		SELECT 0
		WHERE NOT EXISTS (SELECT 1 FROM global_limit)
	`)
	if err != nil {
		return fmt.Errorf("ensuring global limit row: %w", err)
	}
	return nil
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}

// Close closes the database connection
func (s *Store) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}
