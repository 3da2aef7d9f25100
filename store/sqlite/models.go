package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:rampart_roles"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	IsGlobal        bool      `grove:"is_global,notnull"`
	OrgID           string    `grove:"org_id,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		IsGlobal:    r.IsGlobal,
		OrgID:       r.OrgID,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		IsGlobal:    m.IsGlobal,
		OrgID:       m.OrgID,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func rolesFromModels(models []roleModel) []*role.Role {
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:rampart_permissions"`
	ID              string    `grove:"id,pk"`
	Slug            string    `grove:"slug,notnull"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	Category        string    `grove:"category,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func permissionsFromModels(models []permissionModel) []*permission.Permission {
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result
}

// ──────────────────────────────────────────────────
// Role-Permission junction model
// ──────────────────────────────────────────────────

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:rampart_role_permissions"`
	RoleID          string `grove:"role_id,pk"`
	PermissionID    string `grove:"permission_id,pk"`
	OrgID           string `grove:"org_id,pk"`
}

func linkFromModel(m *rolePermissionModel) (*role.PermissionLink, bool) {
	rid, err := id.ParseRoleID(m.RoleID)
	if err != nil {
		return nil, false
	}
	pid, err := id.ParsePermissionID(m.PermissionID)
	if err != nil {
		return nil, false
	}
	return &role.PermissionLink{RoleID: rid, PermissionID: pid, OrgID: m.OrgID}, true
}

// ──────────────────────────────────────────────────
// User-role model
// ──────────────────────────────────────────────────

type userRoleModel struct {
	grove.BaseModel `grove:"table:rampart_user_roles"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	RoleID          string    `grove:"role_id,notnull"`
	OrgID           string    `grove:"org_id,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	AssignedBy      string    `grove:"assigned_by"`
	AssignedAt      time.Time `grove:"assigned_at,notnull"`
}

func userRoleToModel(ur *assignment.UserRole) *userRoleModel {
	return &userRoleModel{
		ID:         ur.ID.String(),
		UserID:     ur.UserID,
		RoleID:     ur.RoleID.String(),
		OrgID:      ur.OrgID,
		IsActive:   ur.IsActive,
		AssignedBy: ur.AssignedBy,
		AssignedAt: ur.AssignedAt,
	}
}

func userRoleFromModel(m *userRoleModel) *assignment.UserRole {
	urID, _ := id.ParseUserRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)  //nolint:errcheck // stored IDs are always valid
	return &assignment.UserRole{
		ID:         urID,
		UserID:     m.UserID,
		RoleID:     rid,
		OrgID:      m.OrgID,
		IsActive:   m.IsActive,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt,
	}
}
