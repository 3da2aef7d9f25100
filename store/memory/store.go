// Package memory provides an in-memory implementation of the rampart
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Compile-time interface checks.
var (
	_ role.Store       = (*Store)(nil)
	_ permission.Store = (*Store)(nil)
	_ assignment.Store = (*Store)(nil)
	_ store.Store      = (*Store)(nil)
)

type linkKey struct {
	roleID string
	permID string
	orgID  string
}

// Store is a thread-safe in-memory store for all rampart entities.
// Multi-row writes hold the write lock for their whole duration, so readers
// never observe a partial replacement.
type Store struct {
	mu sync.RWMutex

	roles       map[string]*role.Role
	permissions map[string]*permission.Permission
	links       map[linkKey]struct{}
	userRoles   map[string]*assignment.UserRole
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]*role.Role),
		permissions: make(map[string]*permission.Permission),
		links:       make(map[linkKey]struct{}),
		userRoles:   make(map[string]*assignment.UserRole),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == r.Name && existing.OrgID == r.OrgID {
			return fmt.Errorf("role %q in org %q: %w", r.Name, r.OrgID, store.ErrConflict)
		}
	}
	stampCreated(&r.CreatedAt, &r.UpdatedAt)
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, sc role.Scope, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok || !sc.Matches(r) {
		return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoles(_ context.Context, sc role.Scope, roleIDs []id.RoleID) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*role.Role, 0, len(roleIDs))
	seen := make(map[string]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		k := rid.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if r, ok := s.roles[k]; ok && sc.Matches(r) {
			result = append(result, copyRole(r))
		}
	}
	return result, nil
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	for k, existing := range s.roles {
		if k != r.ID.String() && existing.Name == r.Name && existing.OrgID == r.OrgID {
			return fmt.Errorf("role %q in org %q: %w", r.Name, r.OrgID, store.ErrConflict)
		}
	}
	r.UpdatedAt = time.Now().UTC()
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) SetRolesActive(_ context.Context, roleIDs []id.RoleID, active bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for _, rid := range roleIDs {
		r, ok := s.roles[rid.String()]
		if !ok {
			continue
		}
		r.IsActive = active
		r.UpdatedAt = now
		n++
	}
	return n, nil
}

func (s *Store) DeleteRoles(_ context.Context, roleIDs []id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doomed := make(map[string]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		doomed[rid.String()] = struct{}{}
		delete(s.roles, rid.String())
	}
	for k := range s.links {
		if _, ok := doomed[k.roleID]; ok {
			delete(s.links, k)
		}
	}
	for k, ur := range s.userRoles {
		if _, ok := doomed[ur.RoleID.String()]; ok {
			delete(s.userRoles, k)
		}
	}
	return nil
}

func (s *Store) ListRoles(_ context.Context, sc role.Scope, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.filterRoles(sc, filter)
	sortRoles(result, filter)
	return applyPagination(result, roleOpts(filter)), nil
}

func (s *Store) CountRoles(_ context.Context, sc role.Scope, filter *role.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterRoles(sc, filter))), nil
}

func (s *Store) filterRoles(sc role.Scope, filter *role.ListFilter) []*role.Role {
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if !sc.Matches(r) {
			continue
		}
		if filter != nil {
			if filter.IsActive != nil && r.IsActive != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	return result
}

func (s *Store) RoleNameExists(_ context.Context, name, orgID string, excludeID id.RoleID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, r := range s.roles {
		if !excludeID.IsNil() && k == excludeID.String() {
			continue
		}
		if r.Name == name && r.OrgID == orgID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListRolePermissions(_ context.Context, roleIDs []id.RoleID, orgID string) ([]*role.PermissionLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(roleIDs)
	var result []*role.PermissionLink
	for k := range s.links {
		if _, ok := want[k.roleID]; !ok || !linkVisible(k.orgID, orgID) {
			continue
		}
		rid, err := id.ParseRoleID(k.roleID)
		if err != nil {
			continue
		}
		pid, err := id.ParsePermissionID(k.permID)
		if err != nil {
			continue
		}
		result = append(result, &role.PermissionLink{RoleID: rid, PermissionID: pid, OrgID: k.orgID})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.RoleID.String() != b.RoleID.String() {
			return a.RoleID.String() < b.RoleID.String()
		}
		if a.PermissionID.String() != b.PermissionID.String() {
			return a.PermissionID.String() < b.PermissionID.String()
		}
		return a.OrgID < b.OrgID
	})
	return result, nil
}

func (s *Store) CountRolePermissions(_ context.Context, roleIDs []id.RoleID, orgID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(roleIDs)
	var visible []linkKey
	for k := range s.links {
		if _, ok := want[k.roleID]; ok && linkVisible(k.orgID, orgID) {
			visible = append(visible, k)
		}
	}
	return store.CountDistinctLinks(visible, func(k linkKey) (string, string) {
		return k.roleID, k.permID
	}), nil
}

func (s *Store) SetRolePermissions(_ context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rk := roleID.String()
	for k := range s.links {
		if k.roleID == rk && k.orgID == orgID {
			delete(s.links, k)
		}
	}
	for _, pid := range permIDs {
		s.links[linkKey{roleID: rk, permID: pid.String(), orgID: orgID}] = struct{}{}
	}
	return nil
}

func (s *Store) RemoveRolePermissions(_ context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, pid := range permIDs {
		delete(s.links, linkKey{roleID: roleID.String(), permID: pid.String(), orgID: orgID})
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Slug == p.Slug {
			return fmt.Errorf("permission %q: %w", p.Slug, store.ErrConflict)
		}
	}
	stampCreated(&p.CreatedAt, &p.UpdatedAt)
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permID.String()]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
	}
	return copyPermission(p), nil
}

func (s *Store) GetPermissionBySlug(_ context.Context, slug string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Slug == slug {
			return copyPermission(p), nil
		}
	}
	return nil, fmt.Errorf("permission slug %q: %w", slug, store.ErrNotFound)
}

func (s *Store) GetPermissions(_ context.Context, permIDs []id.PermissionID) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(permIDs)
	result := make([]*permission.Permission, 0, len(permIDs))
	for k, p := range s.permissions {
		if _, ok := want[k]; ok {
			result = append(result, copyPermission(p))
		}
	}
	sortPermissions(result)
	return result, nil
}

func (s *Store) GetPermissionsBySlug(_ context.Context, slugs []string) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[string]struct{}, len(slugs))
	for _, sl := range slugs {
		want[sl] = struct{}{}
	}
	result := make([]*permission.Permission, 0, len(slugs))
	for _, p := range s.permissions {
		if _, ok := want[p.Slug]; ok {
			result = append(result, copyPermission(p))
		}
	}
	sortPermissions(result)
	return result, nil
}

func (s *Store) UpdatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[p.ID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	p.UpdatedAt = time.Now().UTC()
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := s.filterPermissions(filter)
	sortPermissions(result)
	return applyPagination(result, permOpts(filter)), nil
}

func (s *Store) CountPermissions(_ context.Context, filter *permission.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filterPermissions(filter))), nil
}

func (s *Store) ListCategories(_ context.Context, filter *permission.ListFilter) ([]permission.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.GroupCategories(s.filterPermissions(filter)), nil
}

func (s *Store) ListPermissionUsage(_ context.Context, sc role.Scope, filter *permission.ListFilter) ([]*permission.Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	perms := s.filterPermissions(filter)
	sortPermissions(perms)
	perms = applyPagination(perms, permOpts(filter))

	var pairs [][2]string
	roles := make(map[string]*role.Role)
	for k := range s.links {
		if sc.Tenant && k.orgID != "" && k.orgID != sc.TenantOrg {
			continue
		}
		r, ok := s.roles[k.roleID]
		if !ok || !sc.Matches(r) {
			continue
		}
		roles[k.roleID] = r
		pairs = append(pairs, [2]string{k.permID, k.roleID})
	}
	return store.BuildUsage(perms, pairs, roles), nil
}

func (s *Store) filterPermissions(filter *permission.ListFilter) []*permission.Permission {
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if filter == nil || !filter.IncludeInactive {
			if !p.IsActive {
				continue
			}
		}
		if filter != nil {
			if filter.Category != "" && p.Category != filter.Category {
				continue
			}
			if contains(filter.ExcludeCategory, p.Category) {
				continue
			}
			if filter.Search != "" {
				q := strings.ToLower(filter.Search)
				if !strings.Contains(strings.ToLower(p.Slug), q) && !strings.Contains(strings.ToLower(p.Name), q) {
					continue
				}
			}
		}
		result = append(result, copyPermission(p))
	}
	return result
}

// ──────────────────────────────────────────────────
// Assignment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateUserRole(_ context.Context, ur *assignment.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.userRoles {
		if existing.UserID == ur.UserID && existing.OrgID == ur.OrgID && existing.RoleID.String() == ur.RoleID.String() {
			return fmt.Errorf("user %s role %s: %w", ur.UserID, ur.RoleID, store.ErrConflict)
		}
	}
	if ur.AssignedAt.IsZero() {
		ur.AssignedAt = time.Now().UTC()
	}
	s.userRoles[ur.ID.String()] = copyUserRole(ur)
	return nil
}

func (s *Store) GetUserRole(_ context.Context, userID, orgID string, roleID id.RoleID) (*assignment.UserRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ur := range s.userRoles {
		if ur.UserID == userID && ur.OrgID == orgID && ur.RoleID.String() == roleID.String() {
			return copyUserRole(ur), nil
		}
	}
	return nil, fmt.Errorf("user %s role %s: %w", userID, roleID, store.ErrNotFound)
}

func (s *Store) UpdateUserRole(_ context.Context, ur *assignment.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userRoles[ur.ID.String()]; !ok {
		return fmt.Errorf("user role %s: %w", ur.ID, store.ErrNotFound)
	}
	s.userRoles[ur.ID.String()] = copyUserRole(ur)
	return nil
}

func (s *Store) DeleteUserRole(_ context.Context, urID id.UserRoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.userRoles[urID.String()]; !ok {
		return fmt.Errorf("user role %s: %w", urID, store.ErrNotFound)
	}
	delete(s.userRoles, urID.String())
	return nil
}

func (s *Store) ListUserRoles(_ context.Context, filter *assignment.ListFilter) ([]*assignment.UserRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*assignment.UserRole, 0)
	for _, ur := range s.userRoles {
		if filter != nil {
			if filter.UserID != "" && ur.UserID != filter.UserID {
				continue
			}
			if filter.RoleID != nil && ur.RoleID.String() != filter.RoleID.String() {
				continue
			}
			if filter.OrgID != nil && ur.OrgID != *filter.OrgID {
				continue
			}
			if filter.IsActive != nil && ur.IsActive != *filter.IsActive {
				continue
			}
		}
		result = append(result, copyUserRole(ur))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AssignedAt.Equal(result[j].AssignedAt) {
			return result[i].AssignedAt.After(result[j].AssignedAt)
		}
		return result[i].ID.String() > result[j].ID.String()
	})
	return applyPagination(result, assignOpts(filter)), nil
}

func (s *Store) CountActiveUsers(_ context.Context, roleID id.RoleID, orgID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, ur := range s.userRoles {
		if ur.IsActive && ur.RoleID.String() == roleID.String() && assignmentVisible(ur.OrgID, orgID) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ActiveUserCounts(_ context.Context, roleIDs []id.RoleID, orgID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := idSet(roleIDs)
	counts := make(map[string]int, len(roleIDs))
	for _, ur := range s.userRoles {
		rk := ur.RoleID.String()
		if _, ok := want[rk]; ok && ur.IsActive && assignmentVisible(ur.OrgID, orgID) {
			counts[rk]++
		}
	}
	return counts, nil
}

func (s *Store) ListActiveUserIDs(_ context.Context, roleID id.RoleID, orgID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	for _, ur := range s.userRoles {
		if ur.IsActive && ur.RoleID.String() == roleID.String() && assignmentVisible(ur.OrgID, orgID) {
			seen[ur.UserID] = struct{}{}
		}
	}
	result := make([]string, 0, len(seen))
	for u := range seen {
		result = append(result, u)
	}
	sort.Strings(result)
	return result, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// linkVisible applies the shared-grant rule: a link is visible for its own
// org and, when shared, for every org.
func linkVisible(linkOrg, orgID string) bool {
	return linkOrg == "" || linkOrg == orgID
}

// assignmentVisible applies the counting rule: an org query also counts
// system-wide assignments, an empty org counts everything.
func assignmentVisible(assignOrg, orgID string) bool {
	return orgID == "" || assignOrg == "" || assignOrg == orgID
}

func stampCreated(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = *created
	}
}

func idSet(ids []id.ID) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, i := range ids {
		m[i.String()] = struct{}{}
	}
	return m
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func sortRoles(list []*role.Role, filter *role.ListFilter) {
	col, desc := filter.Order(), filter.Direction() == "DESC"
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		var less, equal bool
		switch col {
		case role.OrderName:
			less, equal = a.Name < b.Name, a.Name == b.Name
		case role.OrderUpdatedAt:
			less, equal = a.UpdatedAt.Before(b.UpdatedAt), a.UpdatedAt.Equal(b.UpdatedAt)
		default:
			less, equal = a.CreatedAt.Before(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
		if equal {
			less = a.ID.String() < b.ID.String()
		}
		if desc {
			return !less && a.ID.String() != b.ID.String()
		}
		return less
	})
}

func sortPermissions(list []*permission.Permission) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Category != list[j].Category {
			return list[i].Category < list[j].Category
		}
		return list[i].Slug < list[j].Slug
	})
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	return &c
}

func copyPermission(p *permission.Permission) *permission.Permission {
	c := *p
	return &c
}

func copyUserRole(ur *assignment.UserRole) *assignment.UserRole {
	c := *ur
	return &c
}

// Pagination helpers for each entity type.
type pagOpts struct{ limit, offset int }

func roleOpts(f *role.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func permOpts(f *permission.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func assignOpts(f *assignment.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func applyPagination[T any](items []*T, p pagOpts) []*T {
	if p.offset > 0 {
		if p.offset >= len(items) {
			return []*T{}
		}
		items = items[p.offset:]
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
