package rampart

import (
	"context"

	"github.com/xraph/rampart/scope"
)

type contextKey int

const (
	ctxKeyActor contextKey = iota
	ctxKeyOrgID
)

// WithActor returns a context carrying a fully resolved actor.
// Use this for standalone mode (without Forge) or in tests.
func WithActor(ctx context.Context, a *scope.Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

// ActorFromContext returns the actor stored by WithActor.
func ActorFromContext(ctx context.Context) (*scope.Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(*scope.Actor)
	return a, ok && a != nil
}

// WithOrg returns a context with the given org ID.
// Use this for standalone mode (without Forge).
func WithOrg(ctx context.Context, orgID string) context.Context {
	return context.WithValue(ctx, ctxKeyOrgID, orgID)
}

func orgIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(ctxKeyOrgID).(string)
	if !ok {
		return ""
	}
	return v
}
