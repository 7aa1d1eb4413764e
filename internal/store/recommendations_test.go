// ABOUTME: Tests for recommendation toggle and listing at the store level
// ABOUTME: Quota gating inside the toggle transaction is covered here too

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/updootapp/updoot-server/internal/quota"
)

func TestToggleRecommendation_CreateThenRemove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	outcome, err := s.ToggleRecommendation(ctx, Recommendation{ActorID: "a", ItemID: "i", DisplayName: "Alice"})
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if outcome != ToggleCreated {
		t.Errorf("outcome = %q, want created", outcome)
	}

	exists, err := s.HasRecommendation(ctx, "a", "i")
	if err != nil {
		t.Fatalf("HasRecommendation failed: %v", err)
	}
	if !exists {
		t.Error("row missing after create")
	}

	outcome, err = s.ToggleRecommendation(ctx, Recommendation{ActorID: "a", ItemID: "i"})
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if outcome != ToggleRemoved {
		t.Errorf("outcome = %q, want removed", outcome)
	}

	exists, err = s.HasRecommendation(ctx, "a", "i")
	if err != nil {
		t.Fatalf("HasRecommendation failed: %v", err)
	}
	if exists {
		t.Error("row still present after removal")
	}
}

func TestToggleRecommendation_GlobalQuota(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetGlobalLimit(ctx, 1); err != nil {
		t.Fatalf("SetGlobalLimit failed: %v", err)
	}

	if _, err := s.ToggleRecommendation(ctx, Recommendation{ActorID: "x", ItemID: "i1"}); err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}

	_, err := s.ToggleRecommendation(ctx, Recommendation{ActorID: "y", ItemID: "i2"})
	var limitErr *quota.LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if limitErr.Scope != quota.ScopeGlobal {
		t.Errorf("scope = %q, want global", limitErr.Scope)
	}

	// The rejected toggle wrote nothing.
	count, err := s.CountRecommendations(ctx)
	if err != nil {
		t.Fatalf("CountRecommendations failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestToggleRecommendation_ActorQuota(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetActorLimit(ctx, "a", 1); err != nil {
		t.Fatalf("SetActorLimit failed: %v", err)
	}

	if _, err := s.ToggleRecommendation(ctx, Recommendation{ActorID: "a", ItemID: "i1"}); err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}

	_, err := s.ToggleRecommendation(ctx, Recommendation{ActorID: "a", ItemID: "i2"})
	var limitErr *quota.LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if limitErr.Scope != quota.ScopeActor {
		t.Errorf("scope = %q, want actor", limitErr.Scope)
	}
}

func TestListRecommendationsForItem(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []Recommendation{
		{ActorID: "a", ItemID: "i1", DisplayName: "Alice"},
		{ActorID: "b", ItemID: "i1", DisplayName: "Bob"},
		{ActorID: "a", ItemID: "i2", DisplayName: "Alice"},
	} {
		if _, err := s.ToggleRecommendation(ctx, rec); err != nil {
			t.Fatalf("toggle %v failed: %v", rec, err)
		}
	}

	recs, err := s.ListRecommendationsForItem(ctx, "i1")
	if err != nil {
		t.Fatalf("ListRecommendationsForItem failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("rows for i1 = %d, want 2", len(recs))
	}
	for _, r := range recs {
		if r.ItemID != "i1" {
			t.Errorf("unexpected item %q in listing", r.ItemID)
		}
	}

	all, err := s.ListRecommendations(ctx)
	if err != nil {
		t.Fatalf("ListRecommendations failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("total rows = %d, want 3", len(all))
	}
}

func TestCountRecommendationsForActor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []Recommendation{
		{ActorID: "a", ItemID: "i1"},
		{ActorID: "a", ItemID: "i2"},
		{ActorID: "b", ItemID: "i1"},
	} {
		if _, err := s.ToggleRecommendation(ctx, rec); err != nil {
			t.Fatalf("toggle failed: %v", err)
		}
	}

	count, err := s.CountRecommendationsForActor(ctx, "a")
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count for a = %d, want 2", count)
	}
}
