// ABOUTME: Data types and sentinel errors for updoot-server persistence
// ABOUTME: Defines Recommendation, Comment, limit rows and the toggle outcome

package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Recommendation is one actor's upvote of one item. Existence of the row is
// the recommended state; there is no separate flag.
type Recommendation struct {
	ActorID     string
	ItemID      string
	DisplayName string
}

// Comment is a free-text note an actor left on an item
type Comment struct {
	ID          int64
	ActorID     string
	ItemID      string
	DisplayName string
	Body        string
}

// ToggleOutcome reports which way a recommendation toggle flipped
type ToggleOutcome string

const (
	ToggleCreated ToggleOutcome = "created"
	ToggleRemoved ToggleOutcome = "removed"
)

// MigrationError reports a legacy-shaped table that is missing columns the
// legacy shape is expected to have. Migration fails closed rather than
// proceeding with partial data.
type MigrationError struct {
	Table          string
	MissingColumns []string
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("legacy table %s is missing expected columns: %s",
		e.Table, strings.Join(e.MissingColumns, ", "))
}
