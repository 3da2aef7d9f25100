package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/scope"
)

type permissionChange func(context.Context, *scope.Actor, id.RoleID, []id.PermissionID) (*rampart.RolePermissions, error)

func (a *API) registerRolePermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.GET("/roles/:roleId/permissions", a.getRolePermissions,
		forge.WithSummary("Get role permissions"),
		forge.WithDescription("Returns the effective permissions of a role in the caller's organization."),
		forge.WithOperationID("getRolePermissions"),
		forge.WithResponseSchema(http.StatusOK, "Role permissions", &rampart.RolePermissions{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/roles/:roleId/permissions", a.assignPermissions,
		forge.WithSummary("Assign permissions"),
		forge.WithDescription("Replaces the role's permissions in the caller's organization."),
		forge.WithOperationID("assignPermissions"),
		forge.WithRequestSchema(RolePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role permissions", &rampart.RolePermissions{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/roles/:roleId/permissions/remove", a.removePermissions,
		forge.WithSummary("Remove permissions"),
		forge.WithDescription("Removes permissions from the role in the caller's organization."),
		forge.WithOperationID("removePermissions"),
		forge.WithRequestSchema(RolePermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Role permissions", &rampart.RolePermissions{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) getRolePermissions(ctx forge.Context, _ *GetRoleRequest) (*rampart.RolePermissions, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	rp, err := a.svc.GetRolePermissions(ctx.Context(), actor, roleID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return rp, ctx.JSON(http.StatusOK, rp)
}

func (a *API) assignPermissions(ctx forge.Context, req *RolePermissionsRequest) (*rampart.RolePermissions, error) {
	return a.changePermissions(ctx, req, a.svc.AssignPermissions)
}

func (a *API) removePermissions(ctx forge.Context, req *RolePermissionsRequest) (*rampart.RolePermissions, error) {
	return a.changePermissions(ctx, req, a.svc.RemovePermissions)
}

func (a *API) changePermissions(ctx forge.Context, req *RolePermissionsRequest, apply permissionChange) (*rampart.RolePermissions, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	permIDs, err := id.ParsePermissionIDs(req.PermissionIDs)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid permission ID: %v", err))
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	rp, err := apply(ctx.Context(), actor, roleID, permIDs)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return rp, ctx.JSON(http.StatusOK, rp)
}
