package api

import (
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/role"
)

func (a *API) registerRoleRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/roles", a.createRole,
		forge.WithSummary("Create role"),
		forge.WithDescription("Creates an organization role, or a system role for system administrators."),
		forge.WithOperationID("createRole"),
		forge.WithRequestSchema(CreateRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/role-hierarchy", a.getRoleHierarchy,
		forge.WithSummary("Get role hierarchy"),
		forge.WithDescription("Returns the visible roles grouped into system, global and organization roles."),
		forge.WithOperationID("getRoleHierarchy"),
		forge.WithResponseSchema(http.StatusOK, "Role hierarchy", &rampart.Hierarchy{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:roleId", a.getRole,
		forge.WithSummary("Get role"),
		forge.WithDescription("Returns a role with its stats and permission slugs."),
		forge.WithOperationID("getRole"),
		forge.WithResponseSchema(http.StatusOK, "Role details", &rampart.RoleView{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:roleId", a.updateRole,
		forge.WithSummary("Update role"),
		forge.WithDescription("Updates name, description or active flag of a role."),
		forge.WithOperationID("updateRole"),
		forge.WithRequestSchema(UpdateRoleRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated role", &role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/roles/:roleId", a.deleteRole,
		forge.WithSummary("Delete role"),
		forge.WithDescription("Deactivates a role; force purges it for system administrators."),
		forge.WithOperationID("deleteRole"),
		forge.WithResponseSchema(http.StatusOK, "Resulting role state", &rampart.DeleteResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/roles/:roleId/users/stats", a.getRoleUserStats,
		forge.WithSummary("Role user stats"),
		forge.WithDescription("Counts the users actively holding a role."),
		forge.WithOperationID("getRoleUserStats"),
		forge.WithResponseSchema(http.StatusOK, "User stats", &rampart.RoleUserStats{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/roles/:roleId/copy", a.copyRole,
		forge.WithSummary("Copy role"),
		forge.WithDescription("Copies a role and its permissions into another organization."),
		forge.WithOperationID("copyRole"),
		forge.WithRequestSchema(CopyRoleRequest{}),
		forge.WithCreatedResponse(&role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/orgs/:orgId/roles/templates", a.copyRoleTemplates,
		forge.WithSummary("Seed organization roles"),
		forge.WithDescription("Copies every active global role into the organization."),
		forge.WithOperationID("copyRoleTemplates"),
		forge.WithCreatedResponse([]*role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/roles", a.listRoles,
		forge.WithSummary("List roles"),
		forge.WithDescription("Lists the roles visible to the caller."),
		forge.WithOperationID("listRoles"),
		forge.WithRequestSchema(ListRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role list", &rampart.RoleList{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createRole(ctx forge.Context, req *CreateRoleRequest) (*role.Role, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, forge.BadRequest("name is required")
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.svc.CreateRole(ctx.Context(), actor, rampart.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    req.IsSystem,
		OrgID:       req.OrgID,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getRole(ctx forge.Context, _ *GetRoleRequest) (*rampart.RoleView, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	v, err := a.svc.GetRole(ctx.Context(), actor, roleID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return v, ctx.JSON(http.StatusOK, v)
}

func (a *API) updateRole(ctx forge.Context, req *UpdateRoleRequest) (*role.Role, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.svc.UpdateRole(ctx.Context(), actor, roleID, rampart.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteRole(ctx forge.Context, req *DeleteRoleRequest) (*rampart.DeleteResult, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := a.svc.DeleteRole(ctx.Context(), actor, roleID, req.Force)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return res, ctx.JSON(http.StatusOK, res)
}

func (a *API) listRoles(ctx forge.Context, req *ListRolesRequest) (*rampart.RoleList, error) {
	isSystem, err := optionalBool("is_system_role", req.IsSystem)
	if err != nil {
		return nil, err
	}
	isGlobal, err := optionalBool("is_global_role", req.IsGlobal)
	if err != nil {
		return nil, err
	}
	isActive, err := optionalBool("is_active", req.IsActive)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	list, err := a.svc.ListRoles(ctx.Context(), actor, rampart.ListRolesInput{
		OrgID:              req.OrgID,
		FilterOrgID:        optionalString(req.FilterOrgID),
		IsSystem:           isSystem,
		IsGlobal:           isGlobal,
		IsActive:           isActive,
		Search:             req.Search,
		OrderBy:            role.OrderBy(req.OrderBy),
		Asc:                req.Asc,
		Limit:              req.Limit,
		Offset:             req.Offset,
		IncludeStats:       req.IncludeStats,
		IncludePermissions: req.IncludePermissions,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return list, ctx.JSON(http.StatusOK, list)
}

func (a *API) getRoleHierarchy(ctx forge.Context, _ *struct{}) (*rampart.Hierarchy, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	h, err := a.svc.GetRoleHierarchy(ctx.Context(), actor)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return h, ctx.JSON(http.StatusOK, h)
}

func (a *API) getRoleUserStats(ctx forge.Context, _ *GetRoleRequest) (*rampart.RoleUserStats, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := a.svc.GetRoleUserStats(ctx.Context(), actor, roleID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return stats, ctx.JSON(http.StatusOK, stats)
}

func (a *API) copyRole(ctx forge.Context, req *CopyRoleRequest) (*role.Role, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.TargetOrgID) == "" {
		return nil, forge.BadRequest("target_org_id is required")
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	r, err := a.svc.CopyRole(ctx.Context(), actor, roleID, rampart.CopyRoleInput{
		TargetOrgID: req.TargetOrgID,
		Name:        req.Name,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) copyRoleTemplates(ctx forge.Context, _ *CopyTemplatesRequest) ([]*role.Role, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	created, err := a.svc.CopyRoleTemplates(ctx.Context(), actor, ctx.Param("orgId"))
	if err != nil {
		return nil, fail(ctx, err)
	}

	return created, ctx.JSON(http.StatusCreated, created)
}
