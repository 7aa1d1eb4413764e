// ABOUTME: Recommendation toggle service: validation, name enrichment, atomic flip
// ABOUTME: The store transaction is what actually gates quota; this wires it up

package recs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/updootapp/updoot-server/internal/store"
)

// InvalidInputError reports an empty or missing identifier from the caller.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("missing or empty %s", e.Field)
}

// Store is the persistence surface the service needs.
type Store interface {
	HasRecommendation(ctx context.Context, actorID, itemID string) (bool, error)
	ToggleRecommendation(ctx context.Context, rec store.Recommendation) (store.ToggleOutcome, error)
	ListRecommendations(ctx context.Context) ([]store.Recommendation, error)
	ListRecommendationsForItem(ctx context.Context, itemID string) ([]store.Recommendation, error)
}

// NameResolver resolves an actor ID to a display name. Implementations never
// fail; they fall back to a placeholder instead.
type NameResolver interface {
	Resolve(ctx context.Context, actorID string) string
}

// Service flips recommendation membership under quota control.
type Service struct {
	store  Store
	names  NameResolver
	logger *slog.Logger
}

// NewService creates a Service.
func NewService(st Store, names NameResolver, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  st,
		names:  names,
		logger: logger.With("component", "recs"),
	}
}

// Toggle creates the (actor, item) recommendation if absent, or removes it if
// present. The display name is resolved only on the create path, fresh on
// every toggle; a stale or fallback name on an existing row is accepted.
func (s *Service) Toggle(ctx context.Context, actorID, itemID string) (store.ToggleOutcome, error) {
	if actorID == "" {
		return "", &InvalidInputError{Field: "userId"}
	}
	if itemID == "" {
		return "", &InvalidInputError{Field: "itemId"}
	}

	rec := store.Recommendation{ActorID: actorID, ItemID: itemID}

	// Probe first so the (possibly slow) name lookup only happens when a
	// row will be created. The store re-checks inside its transaction, so a
	// row appearing or vanishing between here and the flip is still handled.
	exists, err := s.store.HasRecommendation(ctx, actorID, itemID)
	if err != nil {
		return "", err
	}
	if !exists {
		rec.DisplayName = s.names.Resolve(ctx, actorID)
	}

	outcome, err := s.store.ToggleRecommendation(ctx, rec)
	if err != nil {
		return "", err
	}

	s.logger.Debug("toggled recommendation",
		"actor_id", actorID, "item_id", itemID, "outcome", string(outcome))
	return outcome, nil
}

// List returns every recommendation. No ordering is guaranteed.
func (s *Service) List(ctx context.Context) ([]store.Recommendation, error) {
	return s.store.ListRecommendations(ctx)
}

// ListForItem returns the recommendations for one item. No ordering is
// guaranteed.
func (s *Service) ListForItem(ctx context.Context, itemID string) ([]store.Recommendation, error) {
	return s.store.ListRecommendationsForItem(ctx, itemID)
}
