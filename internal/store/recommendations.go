// ABOUTME: Recommendation persistence including the atomic quota-gated toggle
// ABOUTME: The whole flip (probe, counts, write) runs in one transaction

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/updootapp/updoot-server/internal/quota"
)

// HasRecommendation reports whether the (actor, item) row exists.
func (s *Store) HasRecommendation(ctx context.Context, actorID, itemID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM recommendations WHERE actor_id = ? AND item_id = ?`,
		actorID, itemID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probing recommendation: %w", err)
	}
	return true, nil
}

// ToggleRecommendation flips membership for the (actor, item) pair. If the
// row exists it is deleted with no quota check. If it is absent, the quota
// limits and counts are read and the row inserted inside the same
// transaction, so the admission decision and the write observe the same
// logical instant and two near-limit toggles cannot both slip under a quota.
//
// rec.DisplayName is only used on the create path; callers resolve it
// beforehand and staleness is accepted.
func (s *Store) ToggleRecommendation(ctx context.Context, rec Recommendation) (ToggleOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning toggle: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM recommendations WHERE actor_id = ? AND item_id = ?`,
		rec.ActorID, rec.ItemID,
	).Scan(&one)
	switch {
	case err == nil:
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recommendations WHERE actor_id = ? AND item_id = ?`,
			rec.ActorID, rec.ItemID,
		); err != nil {
			return "", fmt.Errorf("deleting recommendation: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return "", fmt.Errorf("committing toggle: %w", err)
		}
		s.logger.Info("recommendation removed", "actor_id", rec.ActorID, "item_id", rec.ItemID)
		return ToggleRemoved, nil
	case errors.Is(err, sql.ErrNoRows):
		// fall through to the create path
	default:
		return "", fmt.Errorf("probing recommendation: %w", err)
	}

	if err := s.admitInTx(ctx, tx, rec.ActorID); err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recommendations (actor_id, item_id, display_name) VALUES (?, ?, ?)`,
		rec.ActorID, rec.ItemID, rec.DisplayName,
	)
	if err != nil {
		// Another writer created the same row first; the end state the
		// caller asked for already holds.
		if isConstraintViolation(err) {
			s.logger.Debug("recommendation already present", "actor_id", rec.ActorID, "item_id", rec.ItemID)
			return ToggleCreated, nil
		}
		return "", fmt.Errorf("inserting recommendation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing toggle: %w", err)
	}
	s.logger.Info("recommendation created",
		"actor_id", rec.ActorID, "item_id", rec.ItemID, "display_name", rec.DisplayName)
	return ToggleCreated, nil
}

// admitInTx applies the quota policy using limits and counts read inside the
// toggle transaction. Global scope is evaluated before actor scope.
func (s *Store) admitInTx(ctx context.Context, tx *sql.Tx, actorID string) error {
	globalLimit, err := globalLimitValue(ctx, tx)
	if err != nil {
		return err
	}
	actorLimit, err := actorLimitValue(ctx, tx, actorID)
	if err != nil {
		return err
	}

	var total, actorCount int
	if globalLimit > 0 {
		if total, err = countRecommendations(ctx, tx); err != nil {
			return err
		}
	}
	if actorLimit > 0 {
		if actorCount, err = countRecommendationsForActor(ctx, tx, actorID); err != nil {
			return err
		}
	}

	if err := quota.Decide(globalLimit, actorLimit, total, actorCount); err != nil {
		s.logger.Warn("recommendation rejected by quota", "actor_id", actorID, "error", err)
		return err
	}
	return nil
}

// ListRecommendations returns every recommendation row. No ordering is
// guaranteed.
func (s *Store) ListRecommendations(ctx context.Context) ([]Recommendation, error) {
	return s.queryRecommendations(ctx,
		`SELECT actor_id, item_id, COALESCE(display_name, '') FROM recommendations`)
}

// ListRecommendationsForItem returns the rows for one item. No ordering is
// guaranteed.
func (s *Store) ListRecommendationsForItem(ctx context.Context, itemID string) ([]Recommendation, error) {
	return s.queryRecommendations(ctx,
		`SELECT actor_id, item_id, COALESCE(display_name, '') FROM recommendations WHERE item_id = ?`,
		itemID)
}

func (s *Store) queryRecommendations(ctx context.Context, query string, args ...any) ([]Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing recommendations: %w", err)
	}
	defer rows.Close()

	var recs []Recommendation
	for rows.Next() {
		var rec Recommendation
		if err := rows.Scan(&rec.ActorID, &rec.ItemID, &rec.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
