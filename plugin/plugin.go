// Package plugin defines the plugin system for rampart.
// Plugins are notified of lifecycle events (role created, permissions
// changed, role assigned, etc.) and can react: audit logging, pushing live
// permission updates, metrics.
//
// Each lifecycle hook is a separate interface so plugins opt in only
// to the events they care about.
package plugin

import (
	"context"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// Plugin is the base interface all plugins must implement.
type Plugin interface {
	// Name returns a unique human-readable name for the plugin.
	Name() string
}

// ──────────────────────────────────────────────────
// Role lifecycle hooks
// ──────────────────────────────────────────────────

// RoleCreated is called after a role is created.
type RoleCreated interface {
	OnRoleCreated(ctx context.Context, r *role.Role) error
}

// RoleUpdated is called after a role's attributes or active flag change.
type RoleUpdated interface {
	OnRoleUpdated(ctx context.Context, r *role.Role) error
}

// RoleDeleted is called after a role is deactivated or purged.
// to is StateInactive for soft deletes and StatePurged for hard ones.
type RoleDeleted interface {
	OnRoleDeleted(ctx context.Context, roleID id.RoleID, to role.State) error
}

// RoleCopied is called after a role is cloned into another org.
type RoleCopied interface {
	OnRoleCopied(ctx context.Context, source, created *role.Role) error
}

// ──────────────────────────────────────────────────
// Permission hooks
// ──────────────────────────────────────────────────

// PermissionsChanged is called after a role's permission set changes, with
// the users actively holding the role.
type PermissionsChanged interface {
	OnPermissionsChanged(ctx context.Context, roleID id.RoleID, userIDs []string) error
}

// PermissionCreated is called after a catalog entry is created.
type PermissionCreated interface {
	OnPermissionCreated(ctx context.Context, p *permission.Permission) error
}

// PermissionUpdated is called after a catalog entry is updated or deactivated.
type PermissionUpdated interface {
	OnPermissionUpdated(ctx context.Context, p *permission.Permission) error
}

// ──────────────────────────────────────────────────
// Assignment lifecycle hooks
// ──────────────────────────────────────────────────

// RoleAssigned is called after a role is assigned to a user.
type RoleAssigned interface {
	OnRoleAssigned(ctx context.Context, ur *assignment.UserRole) error
}

// RoleUnassigned is called after an assignment is deactivated or removed.
type RoleUnassigned interface {
	OnRoleUnassigned(ctx context.Context, ur *assignment.UserRole) error
}

// ──────────────────────────────────────────────────
// Shutdown hook
// ──────────────────────────────────────────────────

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
