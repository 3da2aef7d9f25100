package rampart

import (
	"context"

	"github.com/xraph/forge"

	"github.com/xraph/rampart/scope"
)

// orgFromContext extracts the org from forge.Scope or standalone context.
// Falls back to WithOrg if Forge scope is not set (standalone mode).
func orgFromContext(ctx context.Context) string {
	if s, ok := forge.ScopeFrom(ctx); ok {
		return s.OrgID()
	}
	return orgIDFromContext(ctx)
}

// ResolveActor returns the actor of ctx. An actor stored with WithActor
// wins; otherwise the Forge user and org are loaded and the user's
// effective permissions in that org are computed from the store.
func (s *Service) ResolveActor(ctx context.Context) (*scope.Actor, error) {
	if a, ok := ActorFromContext(ctx); ok {
		return a, nil
	}
	userID := forge.UserIDFromContext(ctx)
	if userID == "" {
		return nil, forbidden(ErrNoActor, "authentication required")
	}
	orgID := orgFromContext(ctx)
	eff, err := s.UserPermissions(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	return &scope.Actor{
		UserID:       userID,
		OrgID:        orgID,
		Permissions:  eff.Permissions,
		IsSystemUser: eff.IsSystemUser,
	}, nil
}
