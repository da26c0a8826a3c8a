package contextx

import (
	"context"
	"slices"
)

// Actor represents the authenticated identity behind a request. It is
// typically populated by the authentication middleware and stored in the
// request context via [WithActor]. Downstream handlers retrieve it with
// [ActorFromContext].
//
// Example:
//
//	actor := contextx.Actor{Subject: "user-42", Roles: []string{"admin"}}
//	ctx = contextx.WithActor(ctx, actor)
type Actor struct {
	Subject string
	Name    string
	Roles   []string
}

// HasRole reports whether the actor carries the given role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// WithActor returns a derived context that carries the given Actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext extracts the Actor stored in ctx.
// The boolean return value indicates whether an Actor was present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
