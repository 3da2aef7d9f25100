package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
)

func (a *API) registerBulkRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("roles"))

	if err := g.POST("/bulk/roles/update", a.bulkUpdateRoles,
		forge.WithSummary("Bulk update roles"),
		forge.WithDescription("Activates or deactivates roles. The batch is applied entirely or not at all."),
		forge.WithOperationID("bulkUpdateRoles"),
		forge.WithRequestSchema(BulkUpdateRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk result", &rampart.BulkResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.POST("/bulk/roles/delete", a.bulkDeleteRoles,
		forge.WithSummary("Bulk delete roles"),
		forge.WithDescription("Deletes roles. The batch is applied entirely or not at all."),
		forge.WithOperationID("bulkDeleteRoles"),
		forge.WithRequestSchema(BulkDeleteRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Bulk result", &rampart.BulkResult{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) bulkUpdateRoles(ctx forge.Context, req *BulkUpdateRequest) (*rampart.BulkResult, error) {
	roleIDs, err := id.ParseRoleIDs(req.RoleIDs)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := a.svc.BulkUpdate(ctx.Context(), actor, roleIDs, rampart.BulkAction(req.Action))
	if err != nil {
		return nil, fail(ctx, err)
	}

	return res, ctx.JSON(http.StatusOK, res)
}

func (a *API) bulkDeleteRoles(ctx forge.Context, req *BulkDeleteRequest) (*rampart.BulkResult, error) {
	roleIDs, err := id.ParseRoleIDs(req.RoleIDs)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	res, err := a.svc.BulkDelete(ctx.Context(), actor, roleIDs, req.Force)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return res, ctx.JSON(http.StatusOK, res)
}
