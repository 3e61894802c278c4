// Package auth carries the already-authenticated actor identity through the
// core. Per spec §1 Non-goals, this core does not own identity or
// transport-level authorization — it only needs to know who is asking.
package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const actorContextKey contextKey = "actor"

// Actor is the caller-supplied identity of whoever is invoking an operation.
type Actor struct {
	ID       uuid.UUID
	Roles    []string
	IsAdmin  bool // admin-override flag, used by workflow.ProcessDecision (§4.1)
}

// HasRole reports whether the actor carries the given role token.
func (a Actor) HasRole(role string) bool {
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ContextWithActor attaches the actor to ctx.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}

// ActorFromContext extracts the actor from ctx.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey).(Actor)
	return actor, ok
}
