// ABOUTME: Comment CRUD for updoot-server
// ABOUTME: Ownership checks live at the HTTP layer; this is plain persistence

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AddComment inserts a comment and returns its generated ID.
func (s *Store) AddComment(ctx context.Context, c Comment) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (actor_id, item_id, display_name, body) VALUES (?, ?, ?, ?)`,
		c.ActorID, c.ItemID, c.DisplayName, c.Body,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inserting comment: %w", err)
	}
	s.logger.Info("comment added", "id", id, "actor_id", c.ActorID, "item_id", c.ItemID)
	return id, nil
}

// GetComment returns one comment by ID, or ErrNotFound.
func (s *Store) GetComment(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, COALESCE(actor_id, ''), COALESCE(item_id, ''),
		       COALESCE(display_name, ''), COALESCE(body, '')
		FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.ActorID, &c.ItemID, &c.DisplayName, &c.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading comment: %w", err)
	}
	return &c, nil
}

// ListCommentsForItem returns the comments on one item.
func (s *Store) ListCommentsForItem(ctx context.Context, itemID string) ([]Comment, error) {
	return s.queryComments(ctx, `
		SELECT id, COALESCE(actor_id, ''), COALESCE(item_id, ''),
		       COALESCE(display_name, ''), COALESCE(body, '')
		FROM comments WHERE item_id = ?`, itemID)
}

// ListAllComments returns every comment, for the admin surface.
func (s *Store) ListAllComments(ctx context.Context) ([]Comment, error) {
	return s.queryComments(ctx, `
		SELECT id, COALESCE(actor_id, ''), COALESCE(item_id, ''),
		       COALESCE(display_name, ''), COALESCE(body, '')
		FROM comments`)
}

// UpdateCommentBody replaces the body of an existing comment.
// Returns ErrNotFound when the comment does not exist.
func (s *Store) UpdateCommentBody(ctx context.Context, id int64, body string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE comments SET body = ? WHERE id = ?`, body, id)
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.Info("comment edited", "id", id)
	return nil
}

// DeleteComment removes one comment. Returns ErrNotFound when absent.
func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	s.logger.Info("comment deleted", "id", id)
	return nil
}

// DeleteCommentsByActor removes every comment by one actor and returns how
// many rows went away. Deleting zero rows is not an error.
func (s *Store) DeleteCommentsByActor(ctx context.Context, actorID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE actor_id = ?`, actorID)
	if err != nil {
		return 0, fmt.Errorf("deleting comments for actor: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting comments for actor: %w", err)
	}
	s.logger.Info("comments deleted for actor", "actor_id", actorID, "rows", n)
	return n, nil
}

func (s *Store) queryComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.ActorID, &c.ItemID, &c.DisplayName, &c.Body); err != nil {
			return nil, fmt.Errorf("scanning comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
