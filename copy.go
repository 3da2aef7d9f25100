package rampart

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
)

// CopyRoleInput selects the target of CopyRole.
type CopyRoleInput struct {
	TargetOrgID string `json:"target_org_id"`
	// Name defaults to the source role's name.
	Name string `json:"name,omitempty"`
}

// CopyRole clones a role and its effective permission set into a new role
// of the target org. The copy is never a system or global role. Requires
// cross-tenant access.
func (s *Service) CopyRole(ctx context.Context, actor *scope.Actor, sourceID id.RoleID, in CopyRoleInput) (*role.Role, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	if !d.CrossTenant {
		return nil, forbidden(ErrCrossTenantRequired, "copying roles requires cross-tenant access")
	}
	target := strings.TrimSpace(in.TargetOrgID)
	if target == "" {
		return nil, badRequest("target org id is required")
	}
	src, err := s.loadRole(ctx, d.Scope, sourceID, "copy role")
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = src.Name
	}
	if err := s.ensureNameFree(ctx, name, target, id.Nil); err != nil {
		return nil, err
	}
	return s.copyRole(ctx, src, target, name)
}

// CopyRoleTemplates seeds a newly provisioned org with copies of every
// active global role. Roles whose name is already taken in the org are
// skipped, so the call is safe to repeat.
func (s *Service) CopyRoleTemplates(ctx context.Context, actor *scope.Actor, orgID string) ([]*role.Role, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	if !d.CrossTenant {
		return nil, forbidden(ErrCrossTenantRequired, "seeding roles requires cross-tenant access")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, badRequest("org id is required")
	}

	yes, empty := true, ""
	templates, err := s.store.ListRoles(ctx,
		role.Scope{ExcludeSystem: true, IsGlobal: &yes, OrgID: &empty},
		&role.ListFilter{IsActive: &yes, OrderBy: role.OrderCreatedAt, Asc: true},
	)
	if err != nil {
		return nil, s.internal(ctx, "list role templates", err, slog.String("org_id", orgID))
	}

	created := make([]*role.Role, 0, len(templates))
	for _, tpl := range templates {
		exists, err := s.store.RoleNameExists(ctx, tpl.Name, orgID, id.Nil)
		if err != nil {
			return created, s.internal(ctx, "check role name", err, slog.String("org_id", orgID))
		}
		if exists {
			continue
		}
		r, err := s.copyRole(ctx, tpl, orgID, tpl.Name)
		if err != nil {
			return created, err
		}
		created = append(created, r)
	}
	s.logger.Info("rampart: role templates copied",
		slog.String("org_id", orgID),
		slog.Int("created", len(created)),
		slog.Int("templates", len(templates)),
	)
	return created, nil
}

// copyRole creates the clone and its links. If the links cannot be written
// the clone is removed again.
func (s *Service) copyRole(ctx context.Context, src *role.Role, targetOrg, name string) (*role.Role, error) {
	srcOrg := src.OrgID
	if srcOrg == "" {
		srcOrg = targetOrg
	}
	links, err := s.store.ListRolePermissions(ctx, []id.RoleID{src.ID}, srcOrg)
	if err != nil {
		return nil, s.internal(ctx, "copy role", err, slog.String("role_id", src.ID.String()))
	}
	seen := make(map[string]struct{}, len(links))
	permIDs := make([]id.PermissionID, 0, len(links))
	for _, l := range links {
		if _, dup := seen[l.PermissionID.String()]; !dup {
			seen[l.PermissionID.String()] = struct{}{}
			permIDs = append(permIDs, l.PermissionID)
		}
	}

	now := time.Now().UTC()
	r := &role.Role{
		ID:          id.NewRoleID(),
		Name:        name,
		Description: src.Description,
		IsSystem:    false,
		IsGlobal:    false,
		OrgID:       targetOrg,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateRole(ctx, r); err != nil {
		return nil, s.internal(ctx, "copy role", err, slog.String("org_id", targetOrg))
	}
	if len(permIDs) > 0 {
		if err := s.store.SetRolePermissions(ctx, r.ID, targetOrg, permIDs); err != nil {
			if derr := s.store.DeleteRoles(ctx, []id.RoleID{r.ID}); derr != nil {
				s.logger.Error("rampart: remove partial role copy",
					slog.String("role_id", r.ID.String()),
					slog.String("error", derr.Error()),
				)
			}
			return nil, s.internal(ctx, "copy role permissions", err,
				slog.String("role_id", r.ID.String()),
				slog.String("org_id", targetOrg),
			)
		}
	}

	if s.plugins != nil {
		s.plugins.EmitRoleCreated(ctx, r)
		s.plugins.EmitRoleCopied(ctx, src, r)
	}
	return r, nil
}
