// Package role defines the Role entity, its lifecycle, the visibility scope
// used to filter role queries, and the role store interface.
package role

import (
	"time"

	"github.com/xraph/rampart/id"
)

// Role is a named bundle of permissions owned by an organization, or by the
// platform when OrgID is empty.
//
// An empty OrgID means the role is either a system role (platform-internal)
// or a global role (usable by every organization). A role with a concrete
// OrgID is never global.
type Role struct {
	ID          id.RoleID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	IsSystem    bool      `json:"is_system_role" db:"is_system"`
	IsGlobal    bool      `json:"is_global_role" db:"is_global"`
	OrgID       string    `json:"org_id,omitempty" db:"org_id"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// OrgScoped reports whether the role belongs to exactly one organization.
func (r *Role) OrgScoped() bool { return r.OrgID != "" }

// State returns the lifecycle state of a persisted role.
func (r *Role) State() State {
	if r.IsActive {
		return StateActive
	}
	return StateInactive
}

// Valid checks the structural invariants of a role.
func (r *Role) Valid() error {
	switch {
	case r.Name == "":
		return ErrEmptyName
	case r.OrgID != "" && r.IsGlobal:
		return ErrGlobalWithOrg
	case r.OrgID != "" && r.IsSystem:
		return ErrSystemWithOrg
	case r.OrgID == "" && !r.IsSystem && !r.IsGlobal:
		return ErrMissingOrg
	}
	return nil
}

// PermissionLink grants a permission to a role. An empty OrgID makes the
// grant visible to every organization using the role.
type PermissionLink struct {
	RoleID       id.RoleID       `json:"role_id" db:"role_id"`
	PermissionID id.PermissionID `json:"permission_id" db:"permission_id"`
	OrgID        string          `json:"org_id,omitempty" db:"org_id"`
}

// Stats carries aggregate counts for a role.
type Stats struct {
	PermissionCount int `json:"permission_count"`
	UserCount       int `json:"user_count"`
}

// OrderBy names a sortable role column.
type OrderBy string

// Sortable columns.
const (
	OrderCreatedAt OrderBy = "created_at"
	OrderName      OrderBy = "name"
	OrderUpdatedAt OrderBy = "updated_at"
)

// ListFilter contains the non-scoping filters for listing roles. Org and
// system/global constraints are carried by Scope.
type ListFilter struct {
	Search   string  `json:"search,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	OrderBy  OrderBy `json:"order_by,omitempty"`
	Asc      bool    `json:"asc,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}

// Order returns the sort column, defaulting to creation time.
func (f *ListFilter) Order() OrderBy {
	if f == nil {
		return OrderCreatedAt
	}
	switch f.OrderBy {
	case OrderName, OrderUpdatedAt:
		return f.OrderBy
	default:
		return OrderCreatedAt
	}
}

// Direction returns "ASC" or "DESC"; roles are newest-first by default.
func (f *ListFilter) Direction() string {
	if f != nil && f.Asc {
		return "ASC"
	}
	return "DESC"
}
