package api

import (
	"net/http"
	"strings"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/permission"
)

func (a *API) registerPermissionRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("permissions"))

	if err := g.POST("/permissions", a.createPermission,
		forge.WithSummary("Create permission"),
		forge.WithDescription("Adds an entry to the permission catalog."),
		forge.WithOperationID("createPermission"),
		forge.WithRequestSchema(CreatePermissionRequest{}),
		forge.WithCreatedResponse(&permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permissions/:permissionId", a.getPermission,
		forge.WithSummary("Get permission"),
		forge.WithOperationID("getPermission"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/permissions/:permissionId", a.updatePermission,
		forge.WithSummary("Update permission"),
		forge.WithOperationID("updatePermission"),
		forge.WithRequestSchema(UpdatePermissionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated permission", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/permissions/:permissionId", a.deletePermission,
		forge.WithSummary("Delete permission"),
		forge.WithDescription("Deactivates a catalog entry."),
		forge.WithOperationID("deletePermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permission-slugs/:slug", a.getPermissionBySlug,
		forge.WithSummary("Get permission by slug"),
		forge.WithOperationID("getPermissionBySlug"),
		forge.WithResponseSchema(http.StatusOK, "Permission details", &permission.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permission-groups", a.listPermissionsByCategory,
		forge.WithSummary("List permissions by category"),
		forge.WithOperationID("listPermissionsByCategory"),
		forge.WithResponseSchema(http.StatusOK, "Permission groups", []*rampart.CategoryGroup{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permission-categories", a.listPermissionCategories,
		forge.WithSummary("List permission categories"),
		forge.WithOperationID("listPermissionCategories"),
		forge.WithResponseSchema(http.StatusOK, "Categories", []permission.Category{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/permission-usage", a.listPermissionUsage,
		forge.WithSummary("List permission usage"),
		forge.WithDescription("Lists catalog entries with the visible roles holding each one."),
		forge.WithOperationID("listPermissionUsage"),
		forge.WithRequestSchema(ListPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission usage", []*permission.Usage{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/permissions", a.listPermissions,
		forge.WithSummary("List permissions"),
		forge.WithOperationID("listPermissions"),
		forge.WithRequestSchema(ListPermissionsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Permission list", &rampart.PermissionList{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createPermission(ctx forge.Context, req *CreatePermissionRequest) (*permission.Permission, error) {
	if strings.TrimSpace(req.Slug) == "" {
		return nil, forge.BadRequest("slug is required")
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.svc.CreatePermission(ctx.Context(), actor, rampart.CreatePermissionInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return p, ctx.JSON(http.StatusCreated, p)
}

func (a *API) getPermission(ctx forge.Context, _ *GetPermissionRequest) (*permission.Permission, error) {
	permID, err := permissionIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.svc.GetPermission(ctx.Context(), actor, permID)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) getPermissionBySlug(ctx forge.Context, _ *GetPermissionBySlugRequest) (*permission.Permission, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.svc.GetPermissionBySlug(ctx.Context(), actor, ctx.Param("slug"))
	if err != nil {
		return nil, fail(ctx, err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) updatePermission(ctx forge.Context, req *UpdatePermissionRequest) (*permission.Permission, error) {
	permID, err := permissionIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	p, err := a.svc.UpdatePermission(ctx.Context(), actor, permID, rampart.UpdatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return nil, fail(ctx, err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) deletePermission(ctx forge.Context, _ *GetPermissionRequest) (*struct{}, error) {
	permID, err := permissionIDParam(ctx)
	if err != nil {
		return nil, err
	}
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := a.svc.DeletePermission(ctx.Context(), actor, permID); err != nil {
		return nil, fail(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listPermissions(ctx forge.Context, req *ListPermissionsRequest) (*rampart.PermissionList, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	list, err := a.svc.ListPermissions(ctx.Context(), actor, permissionQuery(req))
	if err != nil {
		return nil, fail(ctx, err)
	}

	return list, ctx.JSON(http.StatusOK, list)
}

func (a *API) listPermissionsByCategory(ctx forge.Context, _ *struct{}) ([]*rampart.CategoryGroup, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := a.svc.ListPermissionsByCategory(ctx.Context(), actor)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return groups, ctx.JSON(http.StatusOK, groups)
}

func (a *API) listPermissionCategories(ctx forge.Context, _ *struct{}) ([]permission.Category, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	cats, err := a.svc.ListPermissionCategories(ctx.Context(), actor)
	if err != nil {
		return nil, fail(ctx, err)
	}

	return cats, ctx.JSON(http.StatusOK, cats)
}

func (a *API) listPermissionUsage(ctx forge.Context, req *ListPermissionsRequest) ([]*permission.Usage, error) {
	actor, err := a.actor(ctx)
	if err != nil {
		return nil, err
	}

	usage, err := a.svc.ListPermissionsWithUsage(ctx.Context(), actor, permissionQuery(req))
	if err != nil {
		return nil, fail(ctx, err)
	}

	return usage, ctx.JSON(http.StatusOK, usage)
}

func permissionQuery(req *ListPermissionsRequest) rampart.PermissionQuery {
	return rampart.PermissionQuery{
		Category:        req.Category,
		Search:          req.Search,
		IncludeInactive: req.IncludeInactive,
		Limit:           req.Limit,
		Offset:          req.Offset,
	}
}
