package api

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string `json:"name" description:"Role name, unique within the organization"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
	IsSystem    bool   `json:"is_system_role,omitempty" description:"Create a system role (system administrators only)"`
	OrgID       string `json:"org_id,omitempty" description:"Target organization (cross-tenant actors only)"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty" description:"Role name"`
	Description *string `json:"description,omitempty" description:"Human-readable description"`
	IsActive    *bool   `json:"is_active,omitempty" description:"Activate or deactivate the role"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// DeleteRoleRequest holds the parameters for deleting a role.
type DeleteRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
	Force  bool   `query:"force" description:"Delete even if users hold the role; purges for system administrators"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	OrgID              string `query:"org_id" description:"Organization context (cross-tenant actors only)"`
	FilterOrgID        string `query:"filter_org_id" description:"Only roles of this organization"`
	IsSystem           string `query:"is_system_role" description:"Filter by system flag (ignored for tenants)"`
	IsGlobal           string `query:"is_global_role" description:"Filter by global flag"`
	IsActive           string `query:"is_active" description:"Filter by active flag"`
	Search             string `query:"search" description:"Search by name or description"`
	OrderBy            string `query:"order_by" description:"created_at, name or updated_at"`
	Asc                bool   `query:"asc" description:"Ascending order"`
	IncludeStats       bool   `query:"include_stats" description:"Include permission and user counts"`
	IncludePermissions bool   `query:"include_permissions" description:"Include permission slugs"`
	Limit              int    `query:"limit" description:"Maximum results (default: 20)"`
	Offset             int    `query:"offset" description:"Results to skip"`
}

// RolePermissionsRequest is the body for assigning or removing permissions.
type RolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" description:"Permission IDs"`
}

// BulkUpdateRequest is the body for bulk activation changes.
type BulkUpdateRequest struct {
	RoleIDs []string `json:"role_ids" description:"Role IDs"`
	Action  string   `json:"action" description:"activate or deactivate"`
}

// BulkDeleteRequest is the body for bulk deletion.
type BulkDeleteRequest struct {
	RoleIDs []string `json:"role_ids" description:"Role IDs"`
	Force   bool     `json:"force,omitempty" description:"Delete even if users hold the roles"`
}

// CopyRoleRequest is the body for copying a role into another organization.
type CopyRoleRequest struct {
	TargetOrgID string `json:"target_org_id" description:"Organization receiving the copy"`
	Name        string `json:"name,omitempty" description:"Name of the copy (default: source name)"`
}

// CopyTemplatesRequest is the path parameter for seeding an organization.
type CopyTemplatesRequest struct {
	OrgID string `path:"orgId" description:"Organization to seed with global role templates"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// CreatePermissionRequest is the body for creating a catalog entry.
type CreatePermissionRequest struct {
	Slug        string `json:"slug" description:"Permission slug (resource:operation)"`
	Name        string `json:"name,omitempty" description:"Display name (default: slug)"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
	Category    string `json:"category,omitempty" description:"Catalog category"`
}

// UpdatePermissionRequest is the body for updating a catalog entry.
type UpdatePermissionRequest struct {
	Name        *string `json:"name,omitempty" description:"Display name"`
	Description *string `json:"description,omitempty" description:"Human-readable description"`
	Category    *string `json:"category,omitempty" description:"Catalog category"`
	IsActive    *bool   `json:"is_active,omitempty" description:"Activate or deactivate the entry"`
}

// GetPermissionRequest is the path parameter for getting a permission.
type GetPermissionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
}

// GetPermissionBySlugRequest is the path parameter for a slug lookup.
type GetPermissionBySlugRequest struct {
	Slug string `path:"slug" description:"Permission slug"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Category        string `query:"category" description:"Filter by category"`
	Search          string `query:"search" description:"Search by slug or name"`
	IncludeInactive bool   `query:"include_inactive" description:"Include inactive entries (catalog admins only)"`
	Limit           int    `query:"limit" description:"Maximum results"`
	Offset          int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Assignment requests
// ──────────────────────────────────────────────────

// AssignRoleRequest is the body for assigning a role to a user.
type AssignRoleRequest struct {
	UserID string `json:"user_id" description:"User receiving the role"`
	RoleID string `json:"role_id" description:"Role ID to assign"`
	OrgID  string `json:"org_id,omitempty" description:"Organization (cross-tenant actors only)"`
}

// UserRoleRequest identifies one assignment.
type UserRoleRequest struct {
	UserID string `path:"userId" description:"User ID"`
	RoleID string `path:"roleId" description:"Role ID"`
	OrgID  string `query:"org_id" description:"Organization (cross-tenant actors only)"`
}

// ListUserRolesRequest holds query parameters.
type ListUserRolesRequest struct {
	UserID   string `query:"user_id" description:"Filter by user"`
	RoleID   string `query:"role_id" description:"Filter by role ID"`
	OrgID    string `query:"org_id" description:"Filter by organization (cross-tenant actors only)"`
	IsActive string `query:"is_active" description:"Filter by active flag"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// UserPermissionsRequest identifies a user and org.
type UserPermissionsRequest struct {
	UserID string `path:"userId" description:"User ID"`
	OrgID  string `query:"org_id" description:"Organization (default: caller's organization)"`
}
