// ABOUTME: Global and per-actor recommendation limit persistence
// ABOUTME: A stored 0 and an absent actor row both mean unlimited

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GlobalLimit returns the singleton global recommendation limit.
// 0 means unlimited.
func (s *Store) GlobalLimit(ctx context.Context) (int, error) {
	return globalLimitValue(ctx, s.db)
}

// SetGlobalLimit updates the singleton row's value in place. The row itself
// is created at bootstrap and is never deleted, so reads can't observe an
// empty table.
func (s *Store) SetGlobalLimit(ctx context.Context, limit int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE global_limit SET max_total = ?`, limit)
	if err != nil {
		return fmt.Errorf("updating global limit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating global limit: %w", err)
	}
	if n == 0 {
		return errors.New("global limit row missing; store not migrated")
	}
	s.logger.Info("global limit updated", "limit", limit)
	return nil
}

// ActorLimit returns the per-actor override for the given actor, or 0
// (unlimited) when no override row exists.
func (s *Store) ActorLimit(ctx context.Context, actorID string) (int, error) {
	return actorLimitValue(ctx, s.db, actorID)
}

// SetActorLimit upserts the per-actor override row.
func (s *Store) SetActorLimit(ctx context.Context, actorID string, limit int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO actor_limit (actor_id, max_for_actor) VALUES (?, ?)
		ON CONFLICT(actor_id) DO UPDATE SET max_for_actor = excluded.max_for_actor
	`, actorID, limit)
	if err != nil {
		return fmt.Errorf("upserting actor limit: %w", err)
	}
	s.logger.Info("actor limit updated", "actor_id", actorID, "limit", limit)
	return nil
}

// ClearActorLimit removes the actor's override row. Absence means unlimited,
// same as an explicit 0.
func (s *Store) ClearActorLimit(ctx context.Context, actorID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM actor_limit WHERE actor_id = ?`, actorID)
	if err != nil {
		return fmt.Errorf("clearing actor limit: %w", err)
	}
	s.logger.Info("actor limit cleared", "actor_id", actorID)
	return nil
}

// ActorLimits returns all per-actor overrides keyed by actor ID.
func (s *Store) ActorLimits(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT actor_id, COALESCE(max_for_actor, 0) FROM actor_limit`)
	if err != nil {
		return nil, fmt.Errorf("listing actor limits: %w", err)
	}
	defer rows.Close()

	limits := make(map[string]int)
	for rows.Next() {
		var actorID string
		var limit int
		if err := rows.Scan(&actorID, &limit); err != nil {
			return nil, fmt.Errorf("scanning actor limit: %w", err)
		}
		limits[actorID] = limit
	}
	return limits, rows.Err()
}

// CountRecommendations returns the total number of recommendation rows.
func (s *Store) CountRecommendations(ctx context.Context) (int, error) {
	return countRecommendations(ctx, s.db)
}

// CountRecommendationsForActor returns the number of rows for one actor.
func (s *Store) CountRecommendationsForActor(ctx context.Context, actorID string) (int, error) {
	return countRecommendationsForActor(ctx, s.db, actorID)
}

// The helpers below run against either the pool or an open transaction, so
// the toggle can read limits and counts at the same logical instant as its
// insert.

func globalLimitValue(ctx context.Context, q rowQuerier) (int, error) {
	var limit int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(max_total, 0) FROM global_limit LIMIT 1`).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading global limit: %w", err)
	}
	return limit, nil
}

func actorLimitValue(ctx context.Context, q rowQuerier, actorID string) (int, error) {
	var limit int
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(max_for_actor, 0) FROM actor_limit WHERE actor_id = ?`, actorID).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading actor limit: %w", err)
	}
	return limit, nil
}

func countRecommendations(ctx context.Context, q rowQuerier) (int, error) {
	var count int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting recommendations: %w", err)
	}
	return count, nil
}

func countRecommendationsForActor(ctx context.Context, q rowQuerier, actorID string) (int, error) {
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recommendations WHERE actor_id = ?`, actorID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting recommendations for actor: %w", err)
	}
	return count, nil
}
