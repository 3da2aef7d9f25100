// Package assignment defines the UserRole entity (user→role binding within an
// organization) and its store interface.
package assignment

import (
	"time"

	"github.com/xraph/rampart/id"
)

// UserRole binds a user to a role inside an organization. An empty OrgID is
// a system-wide assignment that applies inside every organization.
//
// Assignments are deactivated rather than deleted so history survives.
type UserRole struct {
	ID         id.UserRoleID `json:"id" db:"id"`
	UserID     string        `json:"user_id" db:"user_id"`
	RoleID     id.RoleID     `json:"role_id" db:"role_id"`
	OrgID      string        `json:"org_id,omitempty" db:"org_id"`
	IsActive   bool          `json:"is_active" db:"is_active"`
	AssignedBy string        `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt time.Time     `json:"assigned_at" db:"assigned_at"`
}

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	UserID   string     `json:"user_id,omitempty"`
	RoleID   *id.RoleID `json:"role_id,omitempty"`
	OrgID    *string    `json:"org_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
