package rampart

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
)

// RolePermissions is the effective permission set of a role in one org
// context: org-specific links plus shared ones.
type RolePermissions struct {
	RoleID      id.RoleID                `json:"role_id"`
	OrgID       string                   `json:"org_id,omitempty"`
	Permissions []*permission.Permission `json:"permissions"`
}

// Slugs returns the sorted slugs of the set.
func (rp *RolePermissions) Slugs() []string {
	out := make([]string, 0, len(rp.Permissions))
	for _, p := range rp.Permissions {
		out = append(out, p.Slug)
	}
	sort.Strings(out)
	return out
}

// AssignPermissions replaces the role's permissions in the actor's org
// context with permIDs. Links of other org contexts are untouched. With
// cascade enforcement, implied operations on the same resource are added.
// After the write, the permissions-changed hook receives the active holders.
func (s *Service) AssignPermissions(ctx context.Context, actor *scope.Actor, roleID id.RoleID, permIDs []id.PermissionID) (*RolePermissions, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	r, org, err := s.permissionTarget(ctx, d, roleID, "assign permissions")
	if err != nil {
		return nil, err
	}

	perms, err := s.catalogEntries(ctx, d, permIDs)
	if err != nil {
		return nil, err
	}
	if s.config.cascadeEnforced() {
		perms, err = s.expandImplied(ctx, d, perms)
		if err != nil {
			return nil, err
		}
	}

	ids := make([]id.PermissionID, len(perms))
	for i, p := range perms {
		ids[i] = p.ID
	}
	if err := s.store.SetRolePermissions(ctx, r.ID, org, ids); err != nil {
		return nil, s.internal(ctx, "assign permissions", err,
			slog.String("role_id", r.ID.String()),
			slog.String("org_id", org),
		)
	}

	s.notifyPermissionsChanged(ctx, r, org)
	return s.effectivePermissions(ctx, d, r, org)
}

// RemovePermissions removes permIDs from the role's permissions in the
// actor's org context. With cascade enforcement, held operations that
// depend on a removed one go too.
func (s *Service) RemovePermissions(ctx context.Context, actor *scope.Actor, roleID id.RoleID, permIDs []id.PermissionID) (*RolePermissions, error) {
	if len(permIDs) == 0 {
		return nil, badRequest("at least one permission id is required")
	}
	d := s.resolver.Resolve(actor, scope.Request{})
	r, org, err := s.permissionTarget(ctx, d, roleID, "remove permissions")
	if err != nil {
		return nil, err
	}

	remove := permIDs
	if s.config.cascadeEnforced() {
		remove, err = s.collapseDependents(ctx, r, org, permIDs)
		if err != nil {
			return nil, err
		}
	}
	if err := s.store.RemoveRolePermissions(ctx, r.ID, org, remove); err != nil {
		return nil, s.internal(ctx, "remove permissions", err,
			slog.String("role_id", r.ID.String()),
			slog.String("org_id", org),
		)
	}

	s.notifyPermissionsChanged(ctx, r, org)
	return s.effectivePermissions(ctx, d, r, org)
}

// GetRolePermissions returns the effective permission set of a role
// visible to actor.
func (s *Service) GetRolePermissions(ctx context.Context, actor *scope.Actor, roleID id.RoleID) (*RolePermissions, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	r, err := s.loadRole(ctx, d.Scope, roleID, "get role permissions")
	if err != nil {
		return nil, err
	}
	return s.effectivePermissions(ctx, d, r, linkOrg(r, d))
}

// permissionTarget loads and guards the role whose links change, and picks
// the org the links live under.
func (s *Service) permissionTarget(ctx context.Context, d scope.Decision, roleID id.RoleID, op string) (*role.Role, string, error) {
	r, err := s.loadRole(ctx, d.TargetScope(), roleID, op)
	if err != nil {
		return nil, "", err
	}
	if !d.CanManage(r) {
		return nil, "", forbidden(ErrSystemRoleImmutable, "role %q is a system role", r.Name)
	}
	org := linkOrg(r, d)
	if r.IsGlobal && !d.CrossTenant {
		if !s.config.globalCustomization() || org == "" {
			return nil, "", forbidden(ErrGlobalRoleImmutable, "role %q is a global role", r.Name)
		}
	}
	return r, org, nil
}

// catalogEntries loads the active, visible catalog entries for permIDs.
// Unknown, inactive and hidden entries are reported together.
func (s *Service) catalogEntries(ctx context.Context, d scope.Decision, permIDs []id.PermissionID) ([]*permission.Permission, error) {
	if len(permIDs) == 0 {
		return nil, nil
	}
	perms, err := s.store.GetPermissions(ctx, permIDs)
	if err != nil {
		return nil, s.internal(ctx, "get permissions", err)
	}
	found := make(map[string]*permission.Permission, len(perms))
	for _, p := range perms {
		if p.IsActive && s.permissionVisible(d, p) {
			found[p.ID.String()] = p
		}
	}
	var unknown []string
	seen := make(map[string]struct{}, len(permIDs))
	out := make([]*permission.Permission, 0, len(permIDs))
	for _, pid := range permIDs {
		k := pid.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		p, ok := found[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		out = append(out, p)
	}
	if len(unknown) > 0 {
		return nil, badRequest("unknown permissions: %s", strings.Join(unknown, ", ")).with("permission_ids", unknown)
	}
	return out, nil
}

// expandImplied adds the catalog entries implied by perms. Implied slugs
// missing from the catalog are skipped.
func (s *Service) expandImplied(ctx context.Context, d scope.Decision, perms []*permission.Permission) ([]*permission.Permission, error) {
	have := make(map[string]struct{}, len(perms))
	slugs := make([]string, 0, len(perms))
	for _, p := range perms {
		have[p.Slug] = struct{}{}
		slugs = append(slugs, p.Slug)
	}
	var missing []string
	for _, slug := range permission.Expand(slugs) {
		if _, ok := have[slug]; !ok {
			missing = append(missing, slug)
		}
	}
	if len(missing) == 0 {
		return perms, nil
	}
	implied, err := s.store.GetPermissionsBySlug(ctx, missing)
	if err != nil {
		return nil, s.internal(ctx, "get implied permissions", err)
	}
	for _, p := range implied {
		if p.IsActive && s.permissionVisible(d, p) {
			perms = append(perms, p)
		}
	}
	return perms, nil
}

// collapseDependents widens a removal to the held links that depend on a
// removed permission.
func (s *Service) collapseDependents(ctx context.Context, r *role.Role, org string, permIDs []id.PermissionID) ([]id.PermissionID, error) {
	links, err := s.store.ListRolePermissions(ctx, []id.RoleID{r.ID}, org)
	if err != nil {
		return nil, s.internal(ctx, "list role permissions", err, slog.String("role_id", r.ID.String()))
	}
	heldIDs := make([]id.PermissionID, 0, len(links))
	for _, l := range links {
		if l.OrgID == org {
			heldIDs = append(heldIDs, l.PermissionID)
		}
	}
	all := append(append([]id.PermissionID{}, heldIDs...), permIDs...)
	catalog, err := s.store.GetPermissions(ctx, all)
	if err != nil {
		return nil, s.internal(ctx, "get permissions", err)
	}
	slugByID := make(map[string]string, len(catalog))
	idBySlug := make(map[string]id.PermissionID, len(catalog))
	for _, p := range catalog {
		slugByID[p.ID.String()] = p.Slug
		idBySlug[p.Slug] = p.ID
	}

	held := make([]string, 0, len(heldIDs))
	for _, pid := range heldIDs {
		if slug, ok := slugByID[pid.String()]; ok {
			held = append(held, slug)
		}
	}
	removed := make([]string, 0, len(permIDs))
	out := make([]id.PermissionID, 0, len(permIDs))
	for _, pid := range permIDs {
		if slug, ok := slugByID[pid.String()]; ok {
			removed = append(removed, slug)
		} else {
			out = append(out, pid)
		}
	}
	for _, slug := range permission.Collapse(held, removed) {
		if pid, ok := idBySlug[slug]; ok {
			out = append(out, pid)
		}
	}
	return out, nil
}

// effectivePermissions loads the active catalog entries linked to r for org.
func (s *Service) effectivePermissions(ctx context.Context, d scope.Decision, r *role.Role, org string) (*RolePermissions, error) {
	links, err := s.store.ListRolePermissions(ctx, []id.RoleID{r.ID}, org)
	if err != nil {
		return nil, s.internal(ctx, "list role permissions", err,
			slog.String("role_id", r.ID.String()),
			slog.String("org_id", org),
		)
	}
	rp := &RolePermissions{RoleID: r.ID, OrgID: org, Permissions: []*permission.Permission{}}
	if len(links) == 0 {
		return rp, nil
	}
	ids := make([]id.PermissionID, len(links))
	for i, l := range links {
		ids[i] = l.PermissionID
	}
	perms, err := s.store.GetPermissions(ctx, ids)
	if err != nil {
		return nil, s.internal(ctx, "get permissions", err)
	}
	for _, p := range perms {
		if p.IsActive && s.permissionVisible(d, p) {
			rp.Permissions = append(rp.Permissions, p)
		}
	}
	return rp, nil
}
