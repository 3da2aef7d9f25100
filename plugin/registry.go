package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// Named entry types pair a hook with the plugin name for logging.

type roleCreatedEntry struct {
	name string
	hook RoleCreated
}
type roleUpdatedEntry struct {
	name string
	hook RoleUpdated
}
type roleDeletedEntry struct {
	name string
	hook RoleDeleted
}
type roleCopiedEntry struct {
	name string
	hook RoleCopied
}
type permissionsChangedEntry struct {
	name string
	hook PermissionsChanged
}
type permissionCreatedEntry struct {
	name string
	hook PermissionCreated
}
type permissionUpdatedEntry struct {
	name string
	hook PermissionUpdated
}
type roleAssignedEntry struct {
	name string
	hook RoleAssigned
}
type roleUnassignedEntry struct {
	name string
	hook RoleUnassigned
}
type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered plugins and dispatches lifecycle events.
// It type-caches plugins at registration time so emit calls iterate
// only over plugins implementing the relevant hook.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger

	roleCreated        []roleCreatedEntry
	roleUpdated        []roleUpdatedEntry
	roleDeleted        []roleDeletedEntry
	roleCopied         []roleCopiedEntry
	permissionsChanged []permissionsChangedEntry
	permissionCreated  []permissionCreatedEntry
	permissionUpdated  []permissionUpdatedEntry
	roleAssigned       []roleAssignedEntry
	roleUnassigned     []roleUnassignedEntry
	shutdown           []shutdownEntry
}

// NewRegistry creates a plugin registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a plugin and type-asserts it into all applicable
// hook caches. Plugins are notified in registration order.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
	name := p.Name()

	if h, ok := p.(RoleCreated); ok {
		r.roleCreated = append(r.roleCreated, roleCreatedEntry{name, h})
	}
	if h, ok := p.(RoleUpdated); ok {
		r.roleUpdated = append(r.roleUpdated, roleUpdatedEntry{name, h})
	}
	if h, ok := p.(RoleDeleted); ok {
		r.roleDeleted = append(r.roleDeleted, roleDeletedEntry{name, h})
	}
	if h, ok := p.(RoleCopied); ok {
		r.roleCopied = append(r.roleCopied, roleCopiedEntry{name, h})
	}
	if h, ok := p.(PermissionsChanged); ok {
		r.permissionsChanged = append(r.permissionsChanged, permissionsChangedEntry{name, h})
	}
	if h, ok := p.(PermissionCreated); ok {
		r.permissionCreated = append(r.permissionCreated, permissionCreatedEntry{name, h})
	}
	if h, ok := p.(PermissionUpdated); ok {
		r.permissionUpdated = append(r.permissionUpdated, permissionUpdatedEntry{name, h})
	}
	if h, ok := p.(RoleAssigned); ok {
		r.roleAssigned = append(r.roleAssigned, roleAssignedEntry{name, h})
	}
	if h, ok := p.(RoleUnassigned); ok {
		r.roleUnassigned = append(r.roleUnassigned, roleUnassignedEntry{name, h})
	}
	if h, ok := p.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Plugins returns all registered plugins.
func (r *Registry) Plugins() []Plugin { return r.plugins }

// SetLogger replaces the logger used for hook errors.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// ──────────────────────────────────────────────────
// Role event emitters
// ──────────────────────────────────────────────────

// EmitRoleCreated notifies all plugins that implement RoleCreated.
func (r *Registry) EmitRoleCreated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleCreated {
		r.call("OnRoleCreated", e.name, func() error { return e.hook.OnRoleCreated(ctx, rl) })
	}
}

// EmitRoleUpdated notifies all plugins that implement RoleUpdated.
func (r *Registry) EmitRoleUpdated(ctx context.Context, rl *role.Role) {
	for _, e := range r.roleUpdated {
		r.call("OnRoleUpdated", e.name, func() error { return e.hook.OnRoleUpdated(ctx, rl) })
	}
}

// EmitRoleDeleted notifies all plugins that implement RoleDeleted.
func (r *Registry) EmitRoleDeleted(ctx context.Context, roleID id.RoleID, to role.State) {
	for _, e := range r.roleDeleted {
		r.call("OnRoleDeleted", e.name, func() error { return e.hook.OnRoleDeleted(ctx, roleID, to) })
	}
}

// EmitRoleCopied notifies all plugins that implement RoleCopied.
func (r *Registry) EmitRoleCopied(ctx context.Context, source, created *role.Role) {
	for _, e := range r.roleCopied {
		r.call("OnRoleCopied", e.name, func() error { return e.hook.OnRoleCopied(ctx, source, created) })
	}
}

// ──────────────────────────────────────────────────
// Permission event emitters
// ──────────────────────────────────────────────────

// EmitPermissionsChanged notifies all plugins that implement PermissionsChanged.
func (r *Registry) EmitPermissionsChanged(ctx context.Context, roleID id.RoleID, userIDs []string) {
	for _, e := range r.permissionsChanged {
		r.call("OnPermissionsChanged", e.name, func() error { return e.hook.OnPermissionsChanged(ctx, roleID, userIDs) })
	}
}

// EmitPermissionCreated notifies all plugins that implement PermissionCreated.
func (r *Registry) EmitPermissionCreated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionCreated {
		r.call("OnPermissionCreated", e.name, func() error { return e.hook.OnPermissionCreated(ctx, p) })
	}
}

// EmitPermissionUpdated notifies all plugins that implement PermissionUpdated.
func (r *Registry) EmitPermissionUpdated(ctx context.Context, p *permission.Permission) {
	for _, e := range r.permissionUpdated {
		r.call("OnPermissionUpdated", e.name, func() error { return e.hook.OnPermissionUpdated(ctx, p) })
	}
}

// ──────────────────────────────────────────────────
// Assignment event emitters
// ──────────────────────────────────────────────────

// EmitRoleAssigned notifies all plugins that implement RoleAssigned.
func (r *Registry) EmitRoleAssigned(ctx context.Context, ur *assignment.UserRole) {
	for _, e := range r.roleAssigned {
		r.call("OnRoleAssigned", e.name, func() error { return e.hook.OnRoleAssigned(ctx, ur) })
	}
}

// EmitRoleUnassigned notifies all plugins that implement RoleUnassigned.
func (r *Registry) EmitRoleUnassigned(ctx context.Context, ur *assignment.UserRole) {
	for _, e := range r.roleUnassigned {
		r.call("OnRoleUnassigned", e.name, func() error { return e.hook.OnRoleUnassigned(ctx, ur) })
	}
}

// ──────────────────────────────────────────────────
// Shutdown emitter
// ──────────────────────────────────────────────────

// EmitShutdown notifies all plugins that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		r.call("OnShutdown", e.name, func() error { return e.hook.OnShutdown(ctx) })
	}
}

// call runs one hook. Errors and panics are logged, never propagated.
func (r *Registry) call(hook, pluginName string, fn func() error) {
	defer func() {
		if p := recover(); p != nil {
			r.logHookError(hook, pluginName, fmt.Errorf("panic: %v", p))
		}
	}()
	if err := fn(); err != nil {
		r.logHookError(hook, pluginName, err)
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
func (r *Registry) logHookError(hook, pluginName string, err error) {
	r.logger.Warn("plugin hook error",
		slog.String("hook", hook),
		slog.String("plugin", pluginName),
		slog.String("error", err.Error()),
	)
}
