package rampart

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store"
)

// ListRolesInput carries the request context and filters of ListRoles.
type ListRolesInput struct {
	// OrgID is the requested org context; only honored for cross-tenant actors.
	OrgID string `json:"org_id,omitempty"`

	FilterOrgID *string `json:"filter_org_id,omitempty"`
	IsSystem    *bool   `json:"is_system_role,omitempty"`
	IsGlobal    *bool   `json:"is_global_role,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	Search      string  `json:"search,omitempty"`

	OrderBy role.OrderBy `json:"order_by,omitempty"`
	Asc     bool         `json:"asc,omitempty"`
	Limit   int          `json:"limit,omitempty"`
	Offset  int          `json:"offset,omitempty"`

	IncludeStats       bool `json:"include_stats,omitempty"`
	IncludePermissions bool `json:"include_permissions,omitempty"`
}

// RoleView is a role decorated with optional stats and permission slugs.
type RoleView struct {
	*role.Role
	Stats       *role.Stats `json:"stats,omitempty"`
	Permissions []string    `json:"permissions,omitempty"`
}

// RoleList is a page of roles.
type RoleList struct {
	Roles  []*RoleView `json:"roles"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// CreateRoleInput describes a new role. Roles are created in the actor's
// org; OrgID selects another org for cross-tenant actors.
type CreateRoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsSystem    bool   `json:"is_system_role,omitempty"`
	OrgID       string `json:"org_id,omitempty"`
}

// UpdateRoleInput carries partial role changes. Nil fields are untouched.
type UpdateRoleInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// DeleteResult reports the state a deleted role ended in.
type DeleteResult struct {
	RoleID id.RoleID  `json:"role_id"`
	State  role.State `json:"state"`
}

// Hierarchy groups the roles visible to an actor by kind.
type Hierarchy struct {
	System       []*role.Role `json:"system"`
	Global       []*role.Role `json:"global"`
	Organization []*role.Role `json:"organization"`
}

// RoleUserStats reports how many users actively hold a role.
type RoleUserStats struct {
	RoleID      id.RoleID `json:"role_id"`
	OrgID       string    `json:"org_id,omitempty"`
	ActiveUsers int64     `json:"active_users"`
}

// ListRoles returns the roles visible to actor, newest first by default.
// Stats and permission slugs are computed for the listed roles only, so
// they never reach past the listing scope.
func (s *Service) ListRoles(ctx context.Context, actor *scope.Actor, in ListRolesInput) (*RoleList, error) {
	d := s.resolver.Resolve(actor, scope.Request{
		OrgID:       in.OrgID,
		FilterOrgID: in.FilterOrgID,
		IsSystem:    in.IsSystem,
		IsGlobal:    in.IsGlobal,
	})
	filter := &role.ListFilter{
		Search:   strings.TrimSpace(in.Search),
		IsActive: in.IsActive,
		OrderBy:  in.OrderBy,
		Asc:      in.Asc,
		Limit:    s.config.pageSize(in.Limit),
		Offset:   max(in.Offset, 0),
	}

	roles, err := s.store.ListRoles(ctx, d.Scope, filter)
	if err != nil {
		return nil, s.internal(ctx, "list roles", err, slog.String("org_id", d.OrgID))
	}
	total, err := s.store.CountRoles(ctx, d.Scope, filter)
	if err != nil {
		return nil, s.internal(ctx, "count roles", err, slog.String("org_id", d.OrgID))
	}

	views := make([]*RoleView, len(roles))
	for i, r := range roles {
		views[i] = &RoleView{Role: r}
	}
	if err := s.decorate(ctx, d, views, in.IncludeStats, in.IncludePermissions); err != nil {
		return nil, err
	}
	return &RoleList{Roles: views, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// GetRole returns a role visible to actor with its stats and permission
// slugs. Roles outside the actor's scope are NOT_FOUND.
func (s *Service) GetRole(ctx context.Context, actor *scope.Actor, roleID id.RoleID) (*RoleView, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	r, err := s.loadRole(ctx, d.Scope, roleID, "get role")
	if err != nil {
		return nil, err
	}
	v := &RoleView{Role: r}
	if err := s.decorate(ctx, d, []*RoleView{v}, true, true); err != nil {
		return nil, err
	}
	return v, nil
}

// decorate fills stats and permission slugs with one batched query per
// table and link org.
func (s *Service) decorate(ctx context.Context, d scope.Decision, views []*RoleView, stats, perms bool) error {
	if len(views) == 0 || (!stats && !perms) {
		return nil
	}
	groups := make(map[string][]id.RoleID)
	for _, v := range views {
		org := linkOrg(v.Role, d)
		groups[org] = append(groups[org], v.ID)
	}

	permCounts := make(map[string]int)
	userCounts := make(map[string]int)
	slugs := make(map[string][]string)
	for org, ids := range groups {
		if stats {
			pc, err := s.store.CountRolePermissions(ctx, ids, org)
			if err != nil {
				return s.internal(ctx, "count role permissions", err, slog.String("org_id", org))
			}
			uc, err := s.store.ActiveUserCounts(ctx, ids, org)
			if err != nil {
				return s.internal(ctx, "count role users", err, slog.String("org_id", org))
			}
			for k, n := range pc {
				permCounts[k] = n
			}
			for k, n := range uc {
				userCounts[k] = n
			}
		}
		if perms {
			bySlug, err := s.roleSlugs(ctx, ids, org)
			if err != nil {
				return err
			}
			for k, v := range bySlug {
				slugs[k] = v
			}
		}
	}

	for _, v := range views {
		k := v.ID.String()
		if stats {
			v.Stats = &role.Stats{PermissionCount: permCounts[k], UserCount: userCounts[k]}
		}
		if perms {
			v.Permissions = slugs[k]
			if v.Permissions == nil {
				v.Permissions = []string{}
			}
		}
	}
	return nil
}

// roleSlugs returns the sorted active permission slugs per role id string.
func (s *Service) roleSlugs(ctx context.Context, roleIDs []id.RoleID, orgID string) (map[string][]string, error) {
	links, err := s.store.ListRolePermissions(ctx, roleIDs, orgID)
	if err != nil {
		return nil, s.internal(ctx, "list role permissions", err, slog.String("org_id", orgID))
	}
	if len(links) == 0 {
		return map[string][]string{}, nil
	}
	permIDs := make([]id.PermissionID, 0, len(links))
	for _, l := range links {
		permIDs = append(permIDs, l.PermissionID)
	}
	catalog, err := s.store.GetPermissions(ctx, permIDs)
	if err != nil {
		return nil, s.internal(ctx, "get permissions", err)
	}
	slugByID := make(map[string]string, len(catalog))
	for _, p := range catalog {
		if p.IsActive {
			slugByID[p.ID.String()] = p.Slug
		}
	}
	sets := make(map[string]map[string]struct{})
	for _, l := range links {
		slug, ok := slugByID[l.PermissionID.String()]
		if !ok {
			continue
		}
		rk := l.RoleID.String()
		if sets[rk] == nil {
			sets[rk] = make(map[string]struct{})
		}
		sets[rk][slug] = struct{}{}
	}
	out := make(map[string][]string, len(sets))
	for rk, set := range sets {
		list := make([]string, 0, len(set))
		for slug := range set {
			list = append(list, slug)
		}
		sort.Strings(list)
		out[rk] = list
	}
	return out, nil
}

// CreateRole creates an org-scoped role, or a system role for actors that
// can manage system roles. Global roles are provisioned out of band.
func (s *Service) CreateRole(ctx context.Context, actor *scope.Actor, in CreateRoleInput) (*role.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, badRequest("role name is required")
	}
	d := s.resolver.Resolve(actor, scope.Request{OrgID: in.OrgID})
	if in.IsSystem && !d.CanManageSystemRoles {
		return nil, forbidden(ErrSystemRoleImmutable, "only system administrators can create system roles")
	}

	orgID := d.OrgID
	if in.IsSystem {
		orgID = ""
	} else if orgID == "" {
		return nil, badRequest("an organization context is required to create a role")
	}

	if err := s.ensureNameFree(ctx, name, orgID, id.Nil); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	r := &role.Role{
		ID:          id.NewRoleID(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		IsSystem:    in.IsSystem,
		IsGlobal:    false,
		OrgID:       orgID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.Valid(); err != nil {
		return nil, newError(KindBadRequest, err, "invalid role")
	}
	if err := s.store.CreateRole(ctx, r); err != nil {
		if store.IsConflict(err) {
			return nil, conflict(ErrDuplicateRoleName, "role %q already exists", name)
		}
		return nil, s.internal(ctx, "create role", err, slog.String("org_id", orgID))
	}

	if s.plugins != nil {
		s.plugins.EmitRoleCreated(ctx, r)
	}
	return r, nil
}

func (s *Service) ensureNameFree(ctx context.Context, name, orgID string, exclude id.RoleID) error {
	exists, err := s.store.RoleNameExists(ctx, name, orgID, exclude)
	if err != nil {
		return s.internal(ctx, "check role name", err, slog.String("org_id", orgID))
	}
	if exists {
		return conflict(ErrDuplicateRoleName, "role %q already exists", name).with("name", name)
	}
	return nil
}

// UpdateRole applies partial changes to a role. Out-of-scope roles are
// NOT_FOUND; system roles need system capability. Deactivating a role in
// use is a CONFLICT.
func (s *Service) UpdateRole(ctx context.Context, actor *scope.Actor, roleID id.RoleID, in UpdateRoleInput) (*role.Role, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	r, err := s.loadRole(ctx, d.TargetScope(), roleID, "update role")
	if err != nil {
		return nil, err
	}
	if err := s.guardMutation(d, r); err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, badRequest("role name cannot be empty")
		}
		if name != r.Name {
			if err := s.ensureNameFree(ctx, name, r.OrgID, r.ID); err != nil {
				return nil, err
			}
			r.Name = name
		}
	}
	if in.Description != nil {
		r.Description = strings.TrimSpace(*in.Description)
	}
	if in.IsActive != nil && *in.IsActive != r.IsActive {
		ev := role.EventActivate
		if !*in.IsActive {
			ev = role.EventDeactivate
		}
		if role.LeavesActive(r.State(), ev) {
			if err := s.guardInUse(ctx, []*role.Role{r}); err != nil {
				return nil, err
			}
		}
		next, err := role.NextState(r.State(), ev)
		if err != nil {
			return nil, newError(KindBadRequest, err, "invalid state change")
		}
		r.IsActive = next == role.StateActive
	}

	r.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdateRole(ctx, r); err != nil {
		if store.IsConflict(err) {
			return nil, conflict(ErrDuplicateRoleName, "role %q already exists", r.Name)
		}
		return nil, s.internal(ctx, "update role", err, slog.String("role_id", r.ID.String()))
	}

	if s.plugins != nil {
		s.plugins.EmitRoleUpdated(ctx, r)
	}
	return r, nil
}

// guardInUse fails with CONFLICT when any of roles has active user
// assignments in any org. Meta carries the exact counts.
func (s *Service) guardInUse(ctx context.Context, roles []*role.Role) error {
	ids := make([]id.RoleID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	counts, err := s.store.ActiveUserCounts(ctx, ids, "")
	if err != nil {
		return s.internal(ctx, "count role users", err)
	}
	inUse := make(map[string]int)
	var total int
	for _, r := range roles {
		if n := counts[r.ID.String()]; n > 0 {
			inUse[r.Name] = n
			total += n
		}
	}
	if total == 0 {
		return nil
	}
	if len(roles) == 1 {
		return conflict(ErrRoleInUse, "role %q has %d active user assignments", roles[0].Name, total).
			with("active_users", total)
	}
	return conflict(ErrRoleInUse, "%d roles have active user assignments", len(inUse)).
		with("active_users", inUse)
}

// DeleteRole deactivates a role, or purges it when force is set by an actor
// that can manage system roles. System roles are never deletable. A role
// with active assignments is a CONFLICT unless force is set.
func (s *Service) DeleteRole(ctx context.Context, actor *scope.Actor, roleID id.RoleID, force bool) (*DeleteResult, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	r, err := s.loadRole(ctx, d.TargetScope(), roleID, "delete role")
	if err != nil {
		return nil, err
	}
	if r.IsSystem {
		return nil, forbidden(ErrSystemRoleUndeletable, "role %q is a system role", r.Name)
	}
	if err := s.guardMutation(d, r); err != nil {
		return nil, err
	}

	ev := role.EventDeactivate
	if force && d.CanManageSystemRoles {
		ev = role.EventPurge
	}
	if ev == role.EventDeactivate && r.State() == role.StateInactive {
		return &DeleteResult{RoleID: r.ID, State: role.StateInactive}, nil
	}
	next, err := role.NextState(r.State(), ev)
	if err != nil {
		return nil, newError(KindBadRequest, err, "invalid state change")
	}

	if !force {
		if err := s.guardInUse(ctx, []*role.Role{r}); err != nil {
			return nil, err
		}
	}

	// Holders lose the role's permissions; collect them before the rows go.
	affected, err := s.store.ListActiveUserIDs(ctx, r.ID, "")
	if err != nil {
		return nil, s.internal(ctx, "list role users", err, slog.String("role_id", r.ID.String()))
	}

	if next == role.StatePurged {
		err = s.store.DeleteRoles(ctx, []id.RoleID{r.ID})
	} else {
		_, err = s.store.SetRolesActive(ctx, []id.RoleID{r.ID}, false)
	}
	if err != nil {
		return nil, s.internal(ctx, "delete role", err,
			slog.String("role_id", r.ID.String()),
			slog.String("org_id", r.OrgID),
		)
	}

	if s.plugins != nil {
		s.plugins.EmitRoleDeleted(ctx, r.ID, next)
	}
	if len(affected) > 0 {
		s.emitPermissionsChanged(ctx, r.ID, affected)
	}
	return &DeleteResult{RoleID: r.ID, State: next}, nil
}

// GetRoleHierarchy returns system, global and org roles visible to actor.
// The buckets come from three independent queries since their scoping
// differs. System roles are empty for actors that cannot view them.
func (s *Service) GetRoleHierarchy(ctx context.Context, actor *scope.Actor) (*Hierarchy, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	byName := &role.ListFilter{OrderBy: role.OrderName, Asc: true}
	yes, empty := true, ""

	h := &Hierarchy{System: []*role.Role{}, Global: []*role.Role{}, Organization: []*role.Role{}}
	var err error
	if d.CanViewSystemRoles {
		h.System, err = s.store.ListRoles(ctx, role.Scope{IsSystem: &yes}, byName)
		if err != nil {
			return nil, s.internal(ctx, "list system roles", err)
		}
	}
	h.Global, err = s.store.ListRoles(ctx, role.Scope{ExcludeSystem: true, IsGlobal: &yes, OrgID: &empty}, byName)
	if err != nil {
		return nil, s.internal(ctx, "list global roles", err)
	}
	if d.OrgID != "" {
		org := d.OrgID
		h.Organization, err = s.store.ListRoles(ctx, role.Scope{ExcludeSystem: true, OrgID: &org}, byName)
		if err != nil {
			return nil, s.internal(ctx, "list organization roles", err, slog.String("org_id", org))
		}
	}
	return h, nil
}

// GetRoleUserStats counts the users actively holding a role in the actor's
// org context, system-wide assignments included.
func (s *Service) GetRoleUserStats(ctx context.Context, actor *scope.Actor, roleID id.RoleID) (*RoleUserStats, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	r, err := s.loadRole(ctx, d.Scope, roleID, "role user stats")
	if err != nil {
		return nil, err
	}
	org := linkOrg(r, d)
	n, err := s.store.CountActiveUsers(ctx, r.ID, org)
	if err != nil {
		return nil, s.internal(ctx, "count role users", err, slog.String("role_id", r.ID.String()))
	}
	return &RoleUserStats{RoleID: r.ID, OrgID: org, ActiveUsers: n}, nil
}
