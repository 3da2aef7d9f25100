package rampart

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
)

// BulkAction is a lifecycle action applied to many roles at once.
type BulkAction string

// Bulk actions.
const (
	BulkActivate   BulkAction = "activate"
	BulkDeactivate BulkAction = "deactivate"
)

// BulkResult reports the outcome of a bulk operation.
type BulkResult struct {
	Affected int64       `json:"affected"`
	RoleIDs  []id.RoleID `json:"role_ids"`
	State    role.State  `json:"state"`
}

// BulkUpdate activates or deactivates roleIDs. The batch is all-or-nothing:
// a single system role, out-of-scope role, or (for deactivation) role in
// use rejects it entirely.
func (s *Service) BulkUpdate(ctx context.Context, actor *scope.Actor, roleIDs []id.RoleID, action BulkAction) (*BulkResult, error) {
	var ev role.Event
	switch action {
	case BulkActivate:
		ev = role.EventActivate
	case BulkDeactivate:
		ev = role.EventDeactivate
	default:
		return nil, badRequest("unknown bulk action %q", action)
	}

	d := s.resolver.Resolve(actor, scope.Request{})
	roles, err := s.loadBatch(ctx, d, roleIDs, "bulk update")
	if err != nil {
		return nil, err
	}
	if err := s.guardBatchInUse(ctx, roles, ev, false); err != nil {
		return nil, err
	}

	ids := roleIDsOf(roles)
	n, err := s.store.SetRolesActive(ctx, ids, ev == role.EventActivate)
	if err != nil {
		return nil, s.internal(ctx, "bulk update", err, slog.Int("roles", len(ids)))
	}

	state := role.StateActive
	if ev == role.EventDeactivate {
		state = role.StateInactive
	}
	if s.plugins != nil {
		for _, r := range roles {
			r.IsActive = state == role.StateActive
			s.plugins.EmitRoleUpdated(ctx, r)
		}
	}
	return &BulkResult{Affected: n, RoleIDs: ids, State: state}, nil
}

// BulkDelete deletes roleIDs under the same rules as DeleteRole, applied
// all-or-nothing. Any system role in the batch rejects it with FORBIDDEN
// naming the offending roles.
func (s *Service) BulkDelete(ctx context.Context, actor *scope.Actor, roleIDs []id.RoleID, force bool) (*BulkResult, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	roles, err := s.loadBatch(ctx, d, roleIDs, "bulk delete")
	if err != nil {
		return nil, err
	}

	ev := role.EventDeactivate
	if force && d.CanManageSystemRoles {
		ev = role.EventPurge
	}
	if err := s.guardBatchInUse(ctx, roles, ev, force); err != nil {
		return nil, err
	}

	// Holders lose the roles' permissions; collect them before the rows go.
	holders := make(map[string][]string, len(roles))
	for _, r := range roles {
		users, err := s.store.ListActiveUserIDs(ctx, r.ID, "")
		if err != nil {
			return nil, s.internal(ctx, "list role users", err, slog.String("role_id", r.ID.String()))
		}
		holders[r.ID.String()] = users
	}

	ids := roleIDsOf(roles)
	var n int64
	state := role.StateInactive
	if ev == role.EventPurge {
		state = role.StatePurged
		err = s.store.DeleteRoles(ctx, ids)
		n = int64(len(ids))
	} else {
		n, err = s.store.SetRolesActive(ctx, ids, false)
	}
	if err != nil {
		return nil, s.internal(ctx, "bulk delete", err, slog.Int("roles", len(ids)))
	}

	if s.plugins != nil {
		for _, r := range roles {
			s.plugins.EmitRoleDeleted(ctx, r.ID, state)
		}
	}
	for _, r := range roles {
		if users := holders[r.ID.String()]; len(users) > 0 {
			s.emitPermissionsChanged(ctx, r.ID, users)
		}
	}
	return &BulkResult{Affected: n, RoleIDs: ids, State: state}, nil
}

// loadBatch loads every targeted role across all scopes so that violations
// are detected before anything is written.
func (s *Service) loadBatch(ctx context.Context, d scope.Decision, roleIDs []id.RoleID, op string) ([]*role.Role, error) {
	if len(roleIDs) == 0 {
		return nil, badRequest("at least one role id is required")
	}
	unique := make([]id.RoleID, 0, len(roleIDs))
	seen := make(map[string]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		if _, dup := seen[rid.String()]; !dup {
			seen[rid.String()] = struct{}{}
			unique = append(unique, rid)
		}
	}

	roles, err := s.store.GetRoles(ctx, role.Unscoped, unique)
	if err != nil {
		return nil, s.internal(ctx, op, err, slog.Int("roles", len(unique)))
	}

	var system []string
	for _, r := range roles {
		if r.IsSystem {
			system = append(system, r.Name)
		}
	}
	if len(system) > 0 {
		sort.Strings(system)
		return nil, forbidden(ErrSystemRoleImmutable, "batch contains system roles: %s", strings.Join(system, ", ")).
			with("system_roles", system)
	}

	byID := make(map[string]*role.Role, len(roles))
	for _, r := range roles {
		if d.Scope.Matches(r) {
			byID[r.ID.String()] = r
		}
	}
	var missing []string
	for _, rid := range unique {
		if _, ok := byID[rid.String()]; !ok {
			missing = append(missing, rid.String())
		}
	}
	if len(missing) > 0 {
		return nil, notFound("roles not found: %s", strings.Join(missing, ", ")).with("role_ids", missing)
	}

	ordered := make([]*role.Role, 0, len(unique))
	var global []string
	for _, rid := range unique {
		r := byID[rid.String()]
		if r.IsGlobal && !d.CrossTenant {
			global = append(global, r.Name)
		}
		ordered = append(ordered, r)
	}
	if len(global) > 0 {
		return nil, forbidden(ErrGlobalRoleImmutable, "batch contains global roles: %s", strings.Join(global, ", ")).
			with("global_roles", global)
	}
	return ordered, nil
}

// guardBatchInUse applies the in-use guard to the roles ev takes out of
// service.
func (s *Service) guardBatchInUse(ctx context.Context, roles []*role.Role, ev role.Event, force bool) error {
	if force {
		return nil
	}
	var leaving []*role.Role
	for _, r := range roles {
		if role.LeavesActive(r.State(), ev) {
			leaving = append(leaving, r)
		}
	}
	if len(leaving) == 0 {
		return nil
	}
	return s.guardInUse(ctx, leaving)
}

func roleIDsOf(roles []*role.Role) []id.RoleID {
	ids := make([]id.RoleID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}
