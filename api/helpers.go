package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/scope"
)

// fail maps service errors to HTTP responses. CONFLICT carries its meta
// (for example the active user count of a role in use) in the body.
func fail(ctx forge.Context, err error) error {
	if err == nil {
		return nil
	}
	var e *rampart.Error
	if !errors.As(err, &e) {
		return err
	}
	switch e.Kind {
	case rampart.KindNotFound:
		return forge.NotFound(e.Message)
	case rampart.KindBadRequest:
		return forge.BadRequest(e.Message)
	case rampart.KindForbidden:
		return forge.Forbidden(e.Message)
	case rampart.KindConflict:
		return ctx.JSON(http.StatusConflict, ErrorResponse{Code: string(e.Kind), Message: e.Message, Meta: e.Meta})
	default:
		return err
	}
}

// actor resolves the calling actor of the request.
func (a *API) actor(ctx forge.Context) (*scope.Actor, error) {
	act, err := a.svc.ResolveActor(ctx.Context())
	if err != nil {
		return nil, fail(ctx, err)
	}
	return act, nil
}

func roleIDParam(ctx forge.Context) (id.RoleID, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}
	return roleID, nil
}

func permissionIDParam(ctx forge.Context) (id.PermissionID, error) {
	permID, err := id.ParsePermissionID(ctx.Param("permissionId"))
	if err != nil {
		return id.Nil, forge.BadRequest(fmt.Sprintf("invalid permission ID: %v", err))
	}
	return permID, nil
}

// optionalBool parses a tri-state query flag: empty means unset.
func optionalBool(name, v string) (*bool, error) {
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid %s: %q", name, v))
	}
	return &b, nil
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
