package role

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for roles and their permission links.
// Every read that can leak existence takes a Scope.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role visible under sc. A role outside sc is
	// reported exactly like a missing one.
	GetRole(ctx context.Context, sc Scope, roleID id.RoleID) (*Role, error)

	// GetRoles retrieves the roles visible under sc among roleIDs.
	// Missing or invisible IDs are silently skipped.
	GetRoles(ctx context.Context, sc Scope, roleIDs []id.RoleID) ([]*Role, error)

	// UpdateRole persists changes to a role.
	UpdateRole(ctx context.Context, r *Role) error

	// SetRolesActive toggles IsActive on all given roles in one statement.
	SetRolesActive(ctx context.Context, roleIDs []id.RoleID, active bool) (int64, error)

	// DeleteRoles purges roles together with their permission links and
	// user assignments, atomically.
	DeleteRoles(ctx context.Context, roleIDs []id.RoleID) error

	// ListRoles returns roles visible under sc matching filter.
	ListRoles(ctx context.Context, sc Scope, filter *ListFilter) ([]*Role, error)

	// CountRoles counts roles visible under sc matching filter, ignoring pagination.
	CountRoles(ctx context.Context, sc Scope, filter *ListFilter) (int64, error)

	// RoleNameExists reports whether a role named name exists in orgID.
	// excludeID, when not Nil, is ignored (for renames).
	RoleNameExists(ctx context.Context, name, orgID string, excludeID id.RoleID) (bool, error)

	// ListRolePermissions returns the links of roleIDs whose org is orgID
	// or empty. Shared grants are always included.
	ListRolePermissions(ctx context.Context, roleIDs []id.RoleID, orgID string) ([]*PermissionLink, error)

	// CountRolePermissions counts links per role id string, with the same
	// org rule as ListRolePermissions, in one batched query.
	CountRolePermissions(ctx context.Context, roleIDs []id.RoleID, orgID string) (map[string]int, error)

	// SetRolePermissions replaces the links of (roleID, orgID) with permIDs
	// inside one transaction. Links of other orgs are untouched.
	SetRolePermissions(ctx context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error

	// RemoveRolePermissions deletes the given links of (roleID, orgID).
	RemoveRolePermissions(ctx context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error
}
