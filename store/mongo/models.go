package mongo

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
	ID              string    `grove:"id,pk"       bson:"_id"`
	Name            string    `grove:"name"        bson:"name"`
	Description     string    `grove:"description" bson:"description"`
	IsSystem        bool      `grove:"is_system"   bson:"is_system"`
	IsGlobal        bool      `grove:"is_global"   bson:"is_global"`
	OrgID           string    `grove:"org_id"      bson:"org_id"`
	IsActive        bool      `grove:"is_active"   bson:"is_active"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"  bson:"updated_at"`
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
	ID              string    `grove:"id,pk"       bson:"_id"`
	Slug            string    `grove:"slug"        bson:"slug"`
	Name            string    `grove:"name"        bson:"name"`
	Description     string    `grove:"description" bson:"description"`
	Category        string    `grove:"category"    bson:"category"`
	IsActive        bool      `grove:"is_active"   bson:"is_active"`
	CreatedAt       time.Time `grove:"created_at"  bson:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"  bson:"updated_at"`
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
	RoleID          string `grove:"role_id,pk"       bson:"role_id"`
	PermissionID    string `grove:"permission_id,pk" bson:"permission_id"`
	OrgID           string `grove:"org_id,pk"        bson:"org_id"`
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
	ID              string    `grove:"id,pk"       bson:"_id"`
	UserID          string    `grove:"user_id"     bson:"user_id"`
	RoleID          string    `grove:"role_id"     bson:"role_id"`
	OrgID           string    `grove:"org_id"      bson:"org_id"`
	IsActive        bool      `grove:"is_active"   bson:"is_active"`
	AssignedBy      string    `grove:"assigned_by" bson:"assigned_by,omitempty"`
	AssignedAt      time.Time `grove:"assigned_at" bson:"assigned_at"`
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
