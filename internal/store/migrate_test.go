// ABOUTME: Tests for the legacy schema migration engine
// ABOUTME: Covers detection, idempotence, the settings split, and fail-closed column checks

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
)

func seedLegacyRecommendations(t *testing.T, s *Store, rows [][3]string) {
	t.Helper()
	mustExec(t, s, `CREATE TABLE recommendations (userId TEXT, itemId TEXT, username TEXT)`)
	for _, r := range rows {
		mustExec(t, s, `INSERT INTO recommendations (userId, itemId, username) VALUES (?, ?, ?)`,
			r[0], r[1], r[2])
	}
}

func seedLegacyComments(t *testing.T, s *Store) {
	t.Helper()
	mustExec(t, s, `CREATE TABLE comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		userId TEXT, itemId TEXT, username TEXT, comment TEXT)`)
	mustExec(t, s, `INSERT INTO comments (userId, itemId, username, comment) VALUES ('a', 'i', 'Alice', 'great film')`)
}

func seedLegacySettings(t *testing.T, s *Store) {
	t.Helper()
	mustExec(t, s, `CREATE TABLE settings (globalLimit INTEGER, userId TEXT, perUserLimit INTEGER)`)
	mustExec(t, s, `INSERT INTO settings (globalLimit, userId, perUserLimit) VALUES (5, NULL, NULL)`)
	mustExec(t, s, `INSERT INTO settings (globalLimit, userId, perUserLimit) VALUES (NULL, 'A', 2)`)
	mustExec(t, s, `INSERT INTO settings (globalLimit, userId, perUserLimit) VALUES (NULL, 'B', 0)`)
}

func mustExec(t *testing.T, s *Store, query string, args ...any) {
	t.Helper()
	if _, err := s.db.Exec(query, args...); err != nil {
		t.Fatalf("exec %q: %v", query, err)
	}
}

func tableColumns(t *testing.T, s *Store, table string) []string {
	t.Helper()
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		t.Fatalf("pragma_table_info(%s): %v", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scanning column name: %v", err)
		}
		cols = append(cols, name)
	}
	sort.Strings(cols)
	return cols
}

func countRows(t *testing.T, s *Store, table string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		t.Fatalf("counting %s: %v", table, err)
	}
	return n
}

func TestMigrate_FreshStore(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate on fresh store failed: %v", err)
	}

	for _, table := range []string{"recommendations", "comments", "global_limit", "actor_limit"} {
		if got := tableColumns(t, s, table); len(got) == 0 {
			t.Errorf("table %s missing after migration", table)
		}
	}

	if n := countRows(t, s, "global_limit"); n != 1 {
		t.Errorf("global_limit rows = %d, want 1", n)
	}

	limit, err := s.GlobalLimit(ctx)
	if err != nil {
		t.Fatalf("GlobalLimit failed: %v", err)
	}
	if limit != 0 {
		t.Errorf("default global limit = %d, want 0 (unlimited)", limit)
	}
}

func TestMigrate_LegacyRecommendations(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	seedLegacyRecommendations(t, s, [][3]string{
		{"u1", "i1", "Alice"},
		{"u2", "i1", "Bob"},
		{"u1", "i2", "Alice"},
	})

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	cols := tableColumns(t, s, "recommendations")
	want := []string{"actor_id", "display_name", "item_id"}
	if strings.Join(cols, ",") != strings.Join(want, ",") {
		t.Errorf("columns = %v, want %v", cols, want)
	}

	recs, err := s.ListRecommendations(ctx)
	if err != nil {
		t.Fatalf("ListRecommendations failed: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("migrated rows = %d, want 3", len(recs))
	}

	byKey := make(map[string]string)
	for _, r := range recs {
		byKey[r.ActorID+"/"+r.ItemID] = r.DisplayName
	}
	if byKey["u1/i1"] != "Alice" || byKey["u2/i1"] != "Bob" || byKey["u1/i2"] != "Alice" {
		t.Errorf("migrated data mismatch: %v", byKey)
	}
}

func TestMigrate_EmptyLegacyTable(t *testing.T) {
	// Detection is structural, so an empty legacy table must still migrate.
	s := newBareStore(t)
	seedLegacyRecommendations(t, s, nil)

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	cols := tableColumns(t, s, "recommendations")
	if strings.Join(cols, ",") != "actor_id,display_name,item_id" {
		t.Errorf("columns = %v, want current shape", cols)
	}
}

func TestMigrate_LegacyComments(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()
	seedLegacyComments(t, s)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	comments, err := s.ListAllComments(ctx)
	if err != nil {
		t.Fatalf("ListAllComments failed: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("comments = %d, want 1", len(comments))
	}
	c := comments[0]
	if c.ActorID != "a" || c.ItemID != "i" || c.DisplayName != "Alice" || c.Body != "great film" {
		t.Errorf("migrated comment mismatch: %+v", c)
	}
}

func TestMigrate_SettingsSplit(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()
	seedLegacySettings(t, s)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if n := countRows(t, s, "global_limit"); n != 1 {
		t.Errorf("global_limit rows = %d, want 1", n)
	}

	limit, err := s.GlobalLimit(ctx)
	if err != nil {
		t.Fatalf("GlobalLimit failed: %v", err)
	}
	if limit != 5 {
		t.Errorf("global limit = %d, want 5", limit)
	}

	limits, err := s.ActorLimits(ctx)
	if err != nil {
		t.Fatalf("ActorLimits failed: %v", err)
	}
	if len(limits) != 2 || limits["A"] != 2 || limits["B"] != 0 {
		t.Errorf("actor limits = %v, want {A:2 B:0}", limits)
	}

	// The legacy table itself is gone.
	var n int
	err = s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='settings'`).Scan(&n)
	if err != nil {
		t.Fatalf("checking for settings table: %v", err)
	}
	if n != 0 {
		t.Error("legacy settings table still present after migration")
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	seedLegacyRecommendations(t, s, [][3]string{{"u1", "i1", "Alice"}})
	seedLegacySettings(t, s)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}

	firstRecs, _ := s.ListRecommendations(ctx)
	firstCols := tableColumns(t, s, "recommendations")

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	secondRecs, _ := s.ListRecommendations(ctx)
	secondCols := tableColumns(t, s, "recommendations")

	if strings.Join(firstCols, ",") != strings.Join(secondCols, ",") {
		t.Errorf("schema changed on re-run: %v vs %v", firstCols, secondCols)
	}
	if len(firstRecs) != len(secondRecs) {
		t.Errorf("data changed on re-run: %d vs %d rows", len(firstRecs), len(secondRecs))
	}
	if n := countRows(t, s, "global_limit"); n != 1 {
		t.Errorf("global_limit rows after re-run = %d, want 1", n)
	}
}

func TestMigrate_SingletonSurvivesRepeatedRuns(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Migrate(ctx); err != nil {
			t.Fatalf("Migrate run %d failed: %v", i, err)
		}
	}
	if n := countRows(t, s, "global_limit"); n != 1 {
		t.Errorf("global_limit rows = %d, want 1", n)
	}
}

func TestMigrate_MissingLegacyColumnFailsClosed(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	// Legacy-marked (has userId) but missing the username column.
	mustExec(t, s, `CREATE TABLE recommendations (userId TEXT, itemId TEXT)`)
	mustExec(t, s, `INSERT INTO recommendations (userId, itemId) VALUES ('u1', 'i1')`)

	err := s.Migrate(ctx)
	var migErr *MigrationError
	if !errors.As(err, &migErr) {
		t.Fatalf("expected MigrationError, got %v", err)
	}
	if migErr.Table != "recommendations" {
		t.Errorf("Table = %q, want recommendations", migErr.Table)
	}
	if len(migErr.MissingColumns) != 1 || migErr.MissingColumns[0] != "username" {
		t.Errorf("MissingColumns = %v, want [username]", migErr.MissingColumns)
	}
	if !strings.Contains(migErr.Error(), "username") {
		t.Errorf("error %q does not name the missing column", migErr.Error())
	}

	// The table is left untouched for diagnosis.
	cols := tableColumns(t, s, "recommendations")
	if strings.Join(cols, ",") != "itemId,userId" {
		t.Errorf("table changed despite failed migration: %v", cols)
	}
	if n := countRows(t, s, "recommendations"); n != 1 {
		t.Errorf("rows = %d, want untouched 1", n)
	}
}

func TestMigrate_CurrentShapeIsNoOp(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if _, err := s.ToggleRecommendation(ctx, Recommendation{ActorID: "a", ItemID: "i", DisplayName: "Alice"}); err != nil {
		t.Fatalf("ToggleRecommendation failed: %v", err)
	}

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("re-Migrate failed: %v", err)
	}

	recs, err := s.ListRecommendations(ctx)
	if err != nil {
		t.Fatalf("ListRecommendations failed: %v", err)
	}
	if len(recs) != 1 || recs[0].DisplayName != "Alice" {
		t.Errorf("data lost by re-migration: %v", recs)
	}
}

func TestMigrate_AllLegacyTablesTogether(t *testing.T) {
	s := newBareStore(t)
	ctx := context.Background()

	seedLegacyRecommendations(t, s, [][3]string{{"u1", "i1", "Alice"}})
	seedLegacyComments(t, s)
	seedLegacySettings(t, s)

	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if n := countRows(t, s, "recommendations"); n != 1 {
		t.Errorf("recommendations = %d, want 1", n)
	}
	if n := countRows(t, s, "comments"); n != 1 {
		t.Errorf("comments = %d, want 1", n)
	}
	limit, _ := s.GlobalLimit(ctx)
	if limit != 5 {
		t.Errorf("global limit = %d, want 5", limit)
	}
}
