// ABOUTME: Recommendation quota policy: global and per-actor admission limits
// ABOUTME: 0 or an absent override means unlimited in both scopes

package quota

import (
	"context"
	"fmt"
)

// Scope identifies which limit rejected an admission.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeActor  Scope = "actor"
)

// LimitError is the expected, user-facing rejection when a quota is full.
// It maps to a forbidden response, not a server error.
type LimitError struct {
	Scope Scope
	Limit int
	Count int
}

func (e *LimitError) Error() string {
	switch e.Scope {
	case ScopeGlobal:
		return fmt.Sprintf("global recommendation limit reached (%d/%d)", e.Count, e.Limit)
	default:
		return fmt.Sprintf("user recommendation limit reached (%d/%d)", e.Count, e.Limit)
	}
}

// Decide evaluates admission of one new recommendation against the current
// limits and counts. The global scope is checked first so its rejection wins
// when both limits are full. A limit of 0 or less means unlimited.
func Decide(globalLimit, actorLimit, total, actorCount int) error {
	if globalLimit > 0 && total >= globalLimit {
		return &LimitError{Scope: ScopeGlobal, Limit: globalLimit, Count: total}
	}
	if actorLimit > 0 && actorCount >= actorLimit {
		return &LimitError{Scope: ScopeActor, Limit: actorLimit, Count: actorCount}
	}
	return nil
}

// Store is the persistence surface the policy reads and writes.
type Store interface {
	GlobalLimit(ctx context.Context) (int, error)
	SetGlobalLimit(ctx context.Context, limit int) error
	ActorLimit(ctx context.Context, actorID string) (int, error)
	SetActorLimit(ctx context.Context, actorID string, limit int) error
	ClearActorLimit(ctx context.Context, actorID string) error
	ActorLimits(ctx context.Context) (map[string]int, error)
	CountRecommendations(ctx context.Context) (int, error)
	CountRecommendationsForActor(ctx context.Context, actorID string) (int, error)
}

// Policy resolves effective limits and answers admission questions.
type Policy struct {
	store Store
}

// NewPolicy creates a Policy backed by the given store.
func NewPolicy(store Store) *Policy {
	return &Policy{store: store}
}

// EffectiveGlobalLimit returns the store-wide limit; 0 means unlimited.
func (p *Policy) EffectiveGlobalLimit(ctx context.Context) (int, error) {
	return p.store.GlobalLimit(ctx)
}

// EffectiveActorLimit returns the actor's override; 0 means unlimited,
// whether stored explicitly or absent.
func (p *Policy) EffectiveActorLimit(ctx context.Context, actorID string) (int, error) {
	return p.store.ActorLimit(ctx, actorID)
}

// ActorLimits returns all per-actor overrides, for the admin surface.
func (p *Policy) ActorLimits(ctx context.Context) (map[string]int, error) {
	return p.store.ActorLimits(ctx)
}

// CheckAdmission reports whether one more recommendation may be created for
// the actor right now. This is an advisory read; the store's toggle applies
// the same Decide inside its own transaction, which is what actually gates
// the write.
func (p *Policy) CheckAdmission(ctx context.Context, actorID string) error {
	globalLimit, err := p.store.GlobalLimit(ctx)
	if err != nil {
		return err
	}
	actorLimit, err := p.store.ActorLimit(ctx, actorID)
	if err != nil {
		return err
	}

	var total, actorCount int
	if globalLimit > 0 {
		if total, err = p.store.CountRecommendations(ctx); err != nil {
			return err
		}
	}
	if actorLimit > 0 {
		if actorCount, err = p.store.CountRecommendationsForActor(ctx, actorID); err != nil {
			return err
		}
	}

	return Decide(globalLimit, actorLimit, total, actorCount)
}

// SetGlobalLimit replaces the singleton limit value in place.
func (p *Policy) SetGlobalLimit(ctx context.Context, limit int) error {
	return p.store.SetGlobalLimit(ctx, limit)
}

// SetActorLimit upserts the actor's override.
func (p *Policy) SetActorLimit(ctx context.Context, actorID string, limit int) error {
	return p.store.SetActorLimit(ctx, actorID, limit)
}

// ClearActorLimit removes the actor's override, restoring unlimited.
func (p *Policy) ClearActorLimit(ctx context.Context, actorID string) error {
	return p.store.ClearActorLimit(ctx, actorID)
}
