package assignment

import (
	"context"

	"github.com/xraph/rampart/id"
)

// Store defines persistence operations for user-role assignments.
//
// Counting methods take an orgID: when non-empty they count assignments in
// that org plus system-wide ones, since a system-wide grant applies in every
// org. An empty orgID counts across all orgs.
type Store interface {
	// CreateUserRole persists a new assignment.
	CreateUserRole(ctx context.Context, ur *UserRole) error

	// GetUserRole retrieves the assignment for (userID, orgID, roleID).
	GetUserRole(ctx context.Context, userID, orgID string, roleID id.RoleID) (*UserRole, error)

	// UpdateUserRole persists changes to an assignment.
	UpdateUserRole(ctx context.Context, ur *UserRole) error

	// DeleteUserRole removes an assignment by ID.
	DeleteUserRole(ctx context.Context, urID id.UserRoleID) error

	// ListUserRoles returns assignments matching the filter, newest first.
	ListUserRoles(ctx context.Context, filter *ListFilter) ([]*UserRole, error)

	// CountActiveUsers counts active assignments of roleID.
	CountActiveUsers(ctx context.Context, roleID id.RoleID, orgID string) (int64, error)

	// ActiveUserCounts counts active assignments per role id string in one
	// batched query.
	ActiveUserCounts(ctx context.Context, roleIDs []id.RoleID, orgID string) (map[string]int, error)

	// ListActiveUserIDs returns the distinct users actively holding roleID.
	ListActiveUserIDs(ctx context.Context, roleID id.RoleID, orgID string) ([]string, error)
}
