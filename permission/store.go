package permission

import (
	"context"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
)

// Store defines persistence operations for the permission catalog.
type Store interface {
	// CreatePermission persists a new catalog entry.
	CreatePermission(ctx context.Context, p *Permission) error

	// GetPermission retrieves a permission by ID.
	GetPermission(ctx context.Context, permID id.PermissionID) (*Permission, error)

	// GetPermissionBySlug retrieves a permission by its unique slug.
	GetPermissionBySlug(ctx context.Context, slug string) (*Permission, error)

	// GetPermissions retrieves the permissions among permIDs, skipping unknown IDs.
	GetPermissions(ctx context.Context, permIDs []id.PermissionID) ([]*Permission, error)

	// GetPermissionsBySlug retrieves the permissions among slugs, skipping unknown slugs.
	GetPermissionsBySlug(ctx context.Context, slugs []string) ([]*Permission, error)

	// UpdatePermission persists changes to a permission.
	UpdatePermission(ctx context.Context, p *Permission) error

	// ListPermissions returns catalog entries ordered by category then slug.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	// CountPermissions counts catalog entries matching filter, ignoring pagination.
	CountPermissions(ctx context.Context, filter *ListFilter) (int64, error)

	// ListCategories aggregates active entries by category.
	ListCategories(ctx context.Context, filter *ListFilter) ([]Category, error)

	// ListPermissionUsage returns, for each permission matching filter, the
	// roles visible under sc that hold it. Roles are fetched in one batched
	// query, never one query per permission.
	ListPermissionUsage(ctx context.Context, sc role.Scope, filter *ListFilter) ([]*Usage, error)
}
