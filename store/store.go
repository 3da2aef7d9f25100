// Package store defines the aggregate persistence interface. Each subsystem
// (role, permission, assignment) defines its own store interface. The
// composite Store composes them all.
// Backends: Postgres, SQLite, MongoDB, and Memory.
package store

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// ErrNotFound is wrapped by every backend when an entity is missing or,
// for scoped reads, outside the requested scope.
var ErrNotFound = errors.New("not found")

// ErrConflict is wrapped when a write violates a uniqueness constraint the
// backend can detect itself.
var ErrConflict = errors.New("already exists")

// Store is the aggregate persistence interface.
// A single backend (postgres, sqlite, mongo, memory) implements all of them.
type Store interface {
	role.Store
	permission.Store
	assignment.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err wraps ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// Cond is one conjunct of a SQL WHERE clause with "?" placeholders.
type Cond struct {
	Expr string
	Args []any
}

// ScopeConds translates a role scope into SQL conjuncts over the role
// columns. prefix qualifies column names ("" or "r.").
func ScopeConds(sc role.Scope, prefix string) []Cond {
	var conds []Cond
	if sc.ExcludeSystem {
		conds = append(conds, Cond{prefix + "is_system = ?", []any{false}})
	}
	if sc.Tenant {
		shared := prefix + "is_global = ?"
		args := []any{true}
		if sc.TenantSystem {
			shared = "(" + prefix + "is_global = ? OR " + prefix + "is_system = ?)"
			args = append(args, true)
		}
		shared = "(" + prefix + "org_id = '' AND " + shared + ")"
		if sc.TenantOrg != "" {
			conds = append(conds, Cond{
				"(" + prefix + "org_id = ? OR " + shared + ")",
				append([]any{sc.TenantOrg}, args...),
			})
		} else {
			conds = append(conds, Cond{shared, args})
		}
	}
	if sc.OrgID != nil {
		conds = append(conds, Cond{prefix + "org_id = ?", []any{*sc.OrgID}})
	}
	if sc.IsSystem != nil {
		conds = append(conds, Cond{prefix + "is_system = ?", []any{*sc.IsSystem}})
	}
	if sc.IsGlobal != nil {
		conds = append(conds, Cond{prefix + "is_global = ?", []any{*sc.IsGlobal}})
	}
	return conds
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern builds a substring LIKE pattern for search, escaping the LIKE
// wildcards with a backslash. Conditions using it declare ESCAPE '\'.
func LikePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// RoleFilterConds translates the non-scoping role filters into SQL conjuncts.
func RoleFilterConds(f *role.ListFilter, prefix string) []Cond {
	if f == nil {
		return nil
	}
	var conds []Cond
	if f.Search != "" {
		conds = append(conds, Cond{"LOWER(" + prefix + "name) LIKE LOWER(?) ESCAPE '\\'", []any{LikePattern(f.Search)}})
	}
	if f.IsActive != nil {
		conds = append(conds, Cond{prefix + "is_active = ?", []any{*f.IsActive}})
	}
	return conds
}

// PermissionFilterConds translates catalog filters into SQL conjuncts.
func PermissionFilterConds(f *permission.ListFilter) []Cond {
	var conds []Cond
	if f == nil || !f.IncludeInactive {
		conds = append(conds, Cond{"is_active = ?", []any{true}})
	}
	if f == nil {
		return conds
	}
	if f.Category != "" {
		conds = append(conds, Cond{"category = ?", []any{f.Category}})
	}
	if len(f.ExcludeCategory) > 0 {
		conds = append(conds, Cond{"category NOT IN (?)", []any{f.ExcludeCategory}})
	}
	if f.Search != "" {
		pat := LikePattern(f.Search)
		conds = append(conds, Cond{
			"(LOWER(slug) LIKE LOWER(?) ESCAPE '\\' OR LOWER(name) LIKE LOWER(?) ESCAPE '\\')",
			[]any{pat, pat},
		})
	}
	return conds
}

// CountDistinctLinks counts distinct permissions per role among links. A
// permission granted both shared and org-specific counts once.
func CountDistinctLinks[T any](links []T, key func(T) (roleID, permID string)) map[string]int {
	distinct := make(map[[2]string]struct{}, len(links))
	for _, l := range links {
		rid, pid := key(l)
		distinct[[2]string{rid, pid}] = struct{}{}
	}
	counts := make(map[string]int)
	for k := range distinct {
		counts[k[0]]++
	}
	return counts
}

// GroupCategories aggregates catalog entries by category, sorted by name.
func GroupCategories(perms []*permission.Permission) []permission.Category {
	counts := make(map[string]int)
	for _, p := range perms {
		counts[p.Category]++
	}
	result := make([]permission.Category, 0, len(counts))
	for name, n := range counts {
		result = append(result, permission.Category{Name: name, Count: n})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// BuildUsage assembles usage reports for perms from (permissionID, roleID)
// pairs. Pairs whose role is absent from roles (outside scope) are dropped.
func BuildUsage(perms []*permission.Permission, pairs [][2]string, roles map[string]*role.Role) []*permission.Usage {
	holders := make(map[string]map[string]struct{}, len(perms))
	for _, pr := range pairs {
		if _, ok := roles[pr[1]]; !ok {
			continue
		}
		if holders[pr[0]] == nil {
			holders[pr[0]] = make(map[string]struct{})
		}
		holders[pr[0]][pr[1]] = struct{}{}
	}
	result := make([]*permission.Usage, 0, len(perms))
	for _, p := range perms {
		u := &permission.Usage{Permission: p, Roles: []permission.RoleRef{}}
		for rk := range holders[p.ID.String()] {
			r := roles[rk]
			u.Roles = append(u.Roles, permission.RoleRef{ID: r.ID, Name: r.Name, OrgID: r.OrgID})
		}
		sort.Slice(u.Roles, func(i, j int) bool { return u.Roles[i].Name < u.Roles[j].Name })
		u.RoleCount = len(u.Roles)
		result = append(result, u)
	}
	return result
}
