package rampart

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store"
)

// AssignUserRoleInput describes a user-role assignment. OrgID selects the
// org for cross-tenant actors; tenant actors always assign in their own org.
type AssignUserRoleInput struct {
	UserID string    `json:"user_id"`
	RoleID id.RoleID `json:"role_id"`
	OrgID  string    `json:"org_id,omitempty"`
}

// ListUserRolesInput filters assignment listings.
type ListUserRolesInput struct {
	UserID   string     `json:"user_id,omitempty"`
	RoleID   *id.RoleID `json:"role_id,omitempty"`
	OrgID    *string    `json:"org_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// EffectivePermissions is what a user holds inside one org.
type EffectivePermissions struct {
	UserID       string   `json:"user_id"`
	OrgID        string   `json:"org_id,omitempty"`
	Permissions  []string `json:"permissions"`
	IsSystemUser bool     `json:"is_system_user"`
}

// AssignUserRole grants a role to a user in an org. A previously
// deactivated assignment is reactivated; an active one is a CONFLICT.
func (s *Service) AssignUserRole(ctx context.Context, actor *scope.Actor, in AssignUserRoleInput) (*assignment.UserRole, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, badRequest("user id is required")
	}
	d := s.resolver.Resolve(actor, scope.Request{OrgID: in.OrgID})
	r, err := s.loadRole(ctx, d.TargetScope(), in.RoleID, "assign user role")
	if err != nil {
		return nil, err
	}
	if !d.CanManage(r) {
		return nil, forbidden(ErrSystemRoleImmutable, "role %q is a system role", r.Name)
	}
	if !r.IsActive {
		return nil, badRequest("role %q is inactive", r.Name)
	}
	org := linkOrg(r, d)
	if org == "" && !d.CrossTenant {
		return nil, forbidden(ErrCrossTenantRequired, "system-wide assignments require cross-tenant access")
	}

	assignedBy := ""
	if actor != nil {
		assignedBy = actor.UserID
	}
	now := time.Now().UTC()

	existing, err := s.store.GetUserRole(ctx, userID, org, r.ID)
	switch {
	case err == nil && existing.IsActive:
		return nil, conflict(ErrDuplicateAssignment, "user %s already holds role %q", userID, r.Name)
	case err == nil:
		existing.IsActive = true
		existing.AssignedBy = assignedBy
		existing.AssignedAt = now
		if err := s.store.UpdateUserRole(ctx, existing); err != nil {
			return nil, s.internal(ctx, "reactivate user role", err, slog.String("role_id", r.ID.String()))
		}
		if s.plugins != nil {
			s.plugins.EmitRoleAssigned(ctx, existing)
		}
		return existing, nil
	case !store.IsNotFound(err):
		return nil, s.internal(ctx, "get user role", err, slog.String("role_id", r.ID.String()))
	}

	ur := &assignment.UserRole{
		ID:         id.NewUserRoleID(),
		UserID:     userID,
		RoleID:     r.ID,
		OrgID:      org,
		IsActive:   true,
		AssignedBy: assignedBy,
		AssignedAt: now,
	}
	if err := s.store.CreateUserRole(ctx, ur); err != nil {
		if store.IsConflict(err) {
			return nil, conflict(ErrDuplicateAssignment, "user %s already holds role %q", userID, r.Name)
		}
		return nil, s.internal(ctx, "create user role", err,
			slog.String("role_id", r.ID.String()),
			slog.String("org_id", org),
		)
	}
	if s.plugins != nil {
		s.plugins.EmitRoleAssigned(ctx, ur)
	}
	return ur, nil
}

// DeactivateUserRole turns an assignment off while keeping its history.
func (s *Service) DeactivateUserRole(ctx context.Context, actor *scope.Actor, userID string, roleID id.RoleID, orgID string) (*assignment.UserRole, error) {
	_, ur, err := s.loadAssignment(ctx, actor, userID, roleID, orgID, "deactivate user role")
	if err != nil {
		return nil, err
	}
	if !ur.IsActive {
		return ur, nil
	}
	ur.IsActive = false
	if err := s.store.UpdateUserRole(ctx, ur); err != nil {
		return nil, s.internal(ctx, "deactivate user role", err, slog.String("role_id", roleID.String()))
	}
	if s.plugins != nil {
		s.plugins.EmitRoleUnassigned(ctx, ur)
	}
	return ur, nil
}

// UnassignUserRole removes an assignment entirely.
func (s *Service) UnassignUserRole(ctx context.Context, actor *scope.Actor, userID string, roleID id.RoleID, orgID string) error {
	_, ur, err := s.loadAssignment(ctx, actor, userID, roleID, orgID, "unassign user role")
	if err != nil {
		return err
	}
	if err := s.store.DeleteUserRole(ctx, ur.ID); err != nil {
		if store.IsNotFound(err) {
			return notFound("assignment not found")
		}
		return s.internal(ctx, "unassign user role", err, slog.String("role_id", roleID.String()))
	}
	if s.plugins != nil {
		ur.IsActive = false
		s.plugins.EmitRoleUnassigned(ctx, ur)
	}
	return nil
}

func (s *Service) loadAssignment(ctx context.Context, actor *scope.Actor, userID string, roleID id.RoleID, orgID, op string) (*role.Role, *assignment.UserRole, error) {
	d := s.resolver.Resolve(actor, scope.Request{OrgID: orgID})
	r, err := s.loadRole(ctx, d.TargetScope(), roleID, op)
	if err != nil {
		return nil, nil, err
	}
	if !d.CanManage(r) {
		return nil, nil, forbidden(ErrSystemRoleImmutable, "role %q is a system role", r.Name)
	}
	ur, err := s.store.GetUserRole(ctx, strings.TrimSpace(userID), linkOrg(r, d), r.ID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, nil, notFound("assignment not found")
		}
		return nil, nil, s.internal(ctx, op, err, slog.String("role_id", r.ID.String()))
	}
	return r, ur, nil
}

// ListUserRoles lists assignments. Tenant actors only see their own org.
func (s *Service) ListUserRoles(ctx context.Context, actor *scope.Actor, in ListUserRolesInput) ([]*assignment.UserRole, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	f := &assignment.ListFilter{
		UserID:   strings.TrimSpace(in.UserID),
		RoleID:   in.RoleID,
		OrgID:    in.OrgID,
		IsActive: in.IsActive,
		Limit:    s.config.pageSize(in.Limit),
		Offset:   max(in.Offset, 0),
	}
	if !d.CrossTenant {
		org := d.OrgID
		f.OrgID = &org
	}
	list, err := s.store.ListUserRoles(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "list user roles", err, slog.String("org_id", d.OrgID))
	}
	return list, nil
}

// UserPermissions computes the permission slugs a user holds in orgID from
// their active assignments in that org plus system-wide ones. A user with
// an active system-wide assignment of a system role is a system user.
func (s *Service) UserPermissions(ctx context.Context, userID, orgID string) (*EffectivePermissions, error) {
	yes := true
	orgs := []string{""}
	if orgID != "" {
		orgs = append(orgs, orgID)
	}

	var assigned []*assignment.UserRole
	for _, org := range orgs {
		list, err := s.store.ListUserRoles(ctx, &assignment.ListFilter{UserID: userID, OrgID: &org, IsActive: &yes})
		if err != nil {
			return nil, s.internal(ctx, "list user roles", err, slog.String("org_id", org))
		}
		assigned = append(assigned, list...)
	}

	out := &EffectivePermissions{UserID: userID, OrgID: orgID, Permissions: []string{}}
	if len(assigned) == 0 {
		return out, nil
	}
	roleIDs := make([]id.RoleID, 0, len(assigned))
	systemWide := make(map[string]bool, len(assigned))
	for _, ur := range assigned {
		roleIDs = append(roleIDs, ur.RoleID)
		if ur.OrgID == "" {
			systemWide[ur.RoleID.String()] = true
		}
	}
	roles, err := s.store.GetRoles(ctx, role.Unscoped, roleIDs)
	if err != nil {
		return nil, s.internal(ctx, "get roles", err)
	}

	groups := make(map[string][]id.RoleID)
	for _, r := range roles {
		if !r.IsActive {
			continue
		}
		if r.IsSystem && systemWide[r.ID.String()] {
			out.IsSystemUser = true
		}
		org := r.OrgID
		if org == "" {
			org = orgID
		}
		groups[org] = append(groups[org], r.ID)
	}

	set := make(map[string]struct{})
	for org, ids := range groups {
		slugs, err := s.roleSlugs(ctx, ids, org)
		if err != nil {
			return nil, err
		}
		for _, list := range slugs {
			for _, slug := range list {
				set[slug] = struct{}{}
			}
		}
	}
	for slug := range set {
		out.Permissions = append(out.Permissions, slug)
	}
	sort.Strings(out.Permissions)
	return out, nil
}
