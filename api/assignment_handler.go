package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/scope"
)

func (a *API) registerAssignmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("assignments"))

	if err := g.POST("/user-roles", a.assignUserRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Assigns a role to a user in an organization."),
		forge.WithOperationID("assignUserRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithCreatedResponse(&assignment.UserRole{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/users/:userId/roles/:roleId/deactivate", a.deactivateUserRole,
		forge.WithSummary("Deactivate assignment"),
		forge.WithDescription("Turns a user-role assignment off, keeping its history."),
		forge.WithOperationID("deactivateUserRole"),
		forge.WithResponseSchema(http.StatusOK, "Assignment", &assignment.UserRole{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/users/:userId/roles/:roleId", a.unassignUserRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Removes a user-role assignment."),
		forge.WithOperationID("unassignUserRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/permissions", a.userPermissions,
		forge.WithSummary("User permissions"),
		forge.WithDescription("Returns the permission slugs a user holds in an organization."),
		forge.WithOperationID("userPermissions"),
		forge.WithResponseSchema(http.StatusOK, "Effective permissions", &rampart.EffectivePermissions{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/user-roles", a.listUserRoles,
		forge.WithSummary("List assignments"),
		forge.WithOperationID("listUserRoles"),
		forge.WithRequestSchema(ListUserRolesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", &ListResponse[*assignment.UserRole]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignUserRole(ctx forge.Context, req *AssignRoleRequest) (*assignment.UserRole, error) {
	if strings.TrimSpace(req.UserID) == "" || req.RoleID == "" {
		return nil, forge.BadRequest("user_id and role_id are required")
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	ur, err := a.svc.AssignUserRole(ctx.Context(), actor, rampart.AssignUserRoleInput{
		UserID: req.UserID,
		RoleID: roleID,
		OrgID:  req.OrgID,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return ur, ctx.JSON(http.StatusCreated, ur)
}

func (a *API) deactivateUserRole(ctx forge.Context, req *UserRoleRequest) (*assignment.UserRole, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	ur, err := a.svc.DeactivateUserRole(ctx.Context(), actor, ctx.Param("userId"), roleID, req.OrgID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return ur, ctx.JSON(http.StatusOK, ur)
}

func (a *API) unassignUserRole(ctx forge.Context, req *UserRoleRequest) (*struct{}, error) {
	roleID, err := roleIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.svc.UnassignUserRole(ctx.Context(), actor, ctx.Param("userId"), roleID, req.OrgID); err != nil {
		return nil, fail(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listUserRoles(ctx forge.Context, req *ListUserRolesRequest) (*ListResponse[*assignment.UserRole], error) {
	in := rampart.ListUserRolesInput{
		UserID: req.UserID,
		OrgID:  optionalString(req.OrgID),
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if req.RoleID != "" {
		roleID, err := id.ParseRoleID(req.RoleID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid role_id: %v", err))
		}
		in.RoleID = &roleID
	}
	isActive, err := optionalBool("is_active", req.IsActive)
	if err != nil {
		return nil, err
	}
	in.IsActive = isActive

	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	list, err := a.svc.ListUserRoles(ctx.Context(), actor, in)
	if err != nil {
		return nil, fail(ctx, err)
	}

	resp := &ListResponse[*assignment.UserRole]{Items: list, Limit: req.Limit, Offset: req.Offset}
	return resp, ctx.JSON(http.StatusOK, resp)
}

// userPermissions serves the caller's own permissions, or any user's for
// cross-tenant actors.
func (a *API) userPermissions(ctx forge.Context, req *UserPermissionsRequest) (*rampart.EffectivePermissions, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}
	userID := ctx.Param("userId")
	d := a.svc.Resolve(actor, scope.Request{OrgID: req.OrgID})
	if userID != actor.UserID && !d.CrossTenant {
		return nil, forge.Forbidden("cannot read another user's permissions")
	}

	eff, err := a.svc.UserPermissions(ctx.Context(), userID, d.OrgID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return eff, ctx.JSON(http.StatusOK, eff)
}
