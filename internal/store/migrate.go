// ABOUTME: Forward migration of legacy camelCase table shapes to the current schema
// ABOUTME: Detection is structural (column names via pragma_table_info), never row content

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersion classifies one table's on-disk shape.
type schemaVersion int

const (
	schemaMissing schemaVersion = iota
	schemaLegacy
	schemaCurrent
)

// legacyMarkerColumn only exists in the old shapes. Its presence alone
// decides that a table is legacy, so detection works on empty tables too.
const legacyMarkerColumn = "userId"

// legacyMigration describes one table's forward rewrite. The statements run
// inside a single transaction: create the new-shaped table, copy-transform
// the rows, drop the old table, rename the new one into place.
type legacyMigration struct {
	table           string
	expectedColumns []string
	statements      []string
}

var legacyMigrations = []legacyMigration{
	{
		table:           "recommendations",
		expectedColumns: []string{"userId", "itemId", "username"},
		statements: []string{
			`CREATE TABLE recommendations_new (
				actor_id     TEXT,
				item_id      TEXT,
				display_name TEXT,
				PRIMARY KEY (actor_id, item_id)
			)`,
			`INSERT INTO recommendations_new (actor_id, item_id, display_name)
				SELECT userId, itemId, username FROM recommendations`,
			`DROP TABLE recommendations`,
			`ALTER TABLE recommendations_new RENAME TO recommendations`,
		},
	},
	{
		table:           "comments",
		expectedColumns: []string{"userId", "itemId", "username", "comment"},
		statements: []string{
			`CREATE TABLE comments_new (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				actor_id     TEXT,
				item_id      TEXT,
				display_name TEXT,
				body         TEXT
			)`,
			`INSERT INTO comments_new (id, actor_id, item_id, display_name, body)
				SELECT id, userId, itemId, username, comment FROM comments`,
			`DROP TABLE comments`,
			`ALTER TABLE comments_new RENAME TO comments`,
		},
	},
	{
		// The legacy settings table mixed two concerns: a row with NULL
		// userId held the global limit, rows with a userId held per-actor
		// limits. The split drops any extra NULL-userId rows, whose scope
		// is ambiguous.
		table:           "settings",
		expectedColumns: []string{"userId", "globalLimit", "perUserLimit"},
		statements: []string{
			`CREATE TABLE global_limit (
				id        INTEGER PRIMARY KEY AUTOINCREMENT,
				max_total INTEGER
			)`,
			`CREATE TABLE actor_limit (
				actor_id      TEXT PRIMARY KEY,
				max_for_actor INTEGER
			)`,
			`INSERT INTO global_limit (max_total)
				SELECT globalLimit FROM settings WHERE userId IS NULL LIMIT 1`,
			`INSERT INTO actor_limit (actor_id, max_for_actor)
				SELECT userId, perUserLimit FROM settings WHERE userId IS NOT NULL`,
			`DROP TABLE settings`,
		},
	},
}

// Migrate brings the store to the current schema. It is safe to call on a
// fresh database, a current-shape database, or one holding the recognized
// legacy shapes, and is idempotent: a second run is a no-op. Any failure
// rolls the affected table back and must abort startup.
func (s *Store) Migrate(ctx context.Context) error {
	for _, m := range legacyMigrations {
		if err := s.migrateTable(ctx, m); err != nil {
			return err
		}
	}

	if err := s.createSchema(ctx); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return s.ensureGlobalLimitRow(ctx)
}

// migrateTable rewrites one legacy table as a single atomic unit. Tables
// that are absent or already current are left untouched.
func (s *Store) migrateTable(ctx context.Context, m legacyMigration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning migration of %s: %w", m.table, err)
	}
	defer tx.Rollback()

	version, columns, err := detectVersion(ctx, tx, m.table)
	if err != nil {
		return fmt.Errorf("detecting schema of %s: %w", m.table, err)
	}
	if version != schemaLegacy {
		return nil
	}

	var missing []string
	for _, col := range m.expectedColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return &MigrationError{Table: m.table, MissingColumns: missing}
	}

	s.logger.Info("migrating legacy table", "table", m.table)
	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrating %s: %w", m.table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration of %s: %w", m.table, err)
	}
	return nil
}

// detectVersion judges a table's shape from structural metadata only.
// It also returns the table's column set for the fail-closed check.
func detectVersion(ctx context.Context, tx *sql.Tx, table string) (schemaVersion, map[string]bool, error) {
	var count int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&count)
	if err != nil {
		return schemaMissing, nil, err
	}
	if count == 0 {
		return schemaMissing, nil, nil
	}

	rows, err := tx.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return schemaMissing, nil, err
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return schemaMissing, nil, err
		}
		columns[name] = true
	}
	if err := rows.Err(); err != nil {
		return schemaMissing, nil, err
	}

	if columns[legacyMarkerColumn] {
		return schemaLegacy, columns, nil
	}
	return schemaCurrent, columns, nil
}
