// Package store provides persistent storage for updoot-server using SQLite.
//
// # Schema
//
// Current tables:
//
//   - recommendations(actor_id, item_id, display_name) with a composite
//     primary key; row existence is the recommended state
//   - comments(id, actor_id, item_id, display_name, body)
//   - global_limit(id, max_total) — exactly one row after Migrate
//   - actor_limit(actor_id, max_for_actor)
//
// # Migration
//
// Earlier releases used camelCase columns (userId, itemId, username) and a
// single settings table mixing the global limit with per-user limits.
// Migrate detects those shapes structurally via pragma_table_info — the
// userId column is the marker — and rewrites each table forward in one
// transaction. Detection never reads row content, so empty legacy tables
// migrate too. A legacy table missing expected columns fails the whole
// startup with a MigrationError naming the gap.
//
// # Toggle semantics
//
// ToggleRecommendation deletes the row when present (never quota-checked)
// and otherwise applies the quota policy and inserts, all inside a single
// transaction. The composite primary key resolves concurrent creates of the
// same row; the losing insert is reported as already recommended.
//
// # SQLite configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use New(":memory:", logger) for tests.
package store
