// Package middleware provides HTTP authorization middleware for rampart.
package middleware

import (
	"context"
	"encoding/json"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
)

// rule decides whether a resolved actor may continue.
type rule func(ctx context.Context, svc *rampart.Service) bool

// Require enforces that the caller holds slug. The caller is resolved from
// the request context (WithActor, or the Forge user and org) and its
// permissions are matched with wildcard support ("roles:*", "*").
func Require(svc *rampart.Service, slug string) forge.Middleware {
	return gate(svc, all(slug))
}

// RequireAny allows the request if the caller holds ANY of slugs.
func RequireAny(svc *rampart.Service, slugs ...string) forge.Middleware {
	return gate(svc, anyOf(slugs...))
}

// RequireAll allows the request only if the caller holds ALL of slugs.
func RequireAll(svc *rampart.Service, slugs ...string) forge.Middleware {
	return gate(svc, all(slugs...))
}

// RequireSystemAdmin allows only callers that can manage system roles.
func RequireSystemAdmin(svc *rampart.Service) forge.Middleware {
	return gate(svc, systemAdmin)
}

// RequireCrossTenant allows only callers that may act outside their org.
func RequireCrossTenant(svc *rampart.Service) forge.Middleware {
	return gate(svc, crossTenant)
}

func gate(svc *rampart.Service, allow rule) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			if !allow(ctx.Context(), svc) {
				return denyResponse(ctx)
			}
			return next(ctx)
		}
	}
}

func anyOf(slugs ...string) rule {
	return func(ctx context.Context, svc *rampart.Service) bool {
		actor, err := svc.ResolveActor(ctx)
		if err != nil {
			return false
		}
		return actor.HasAny(slugs...)
	}
}

func all(slugs ...string) rule {
	return func(ctx context.Context, svc *rampart.Service) bool {
		actor, err := svc.ResolveActor(ctx)
		if err != nil {
			return false
		}
		for _, s := range slugs {
			if !actor.Has(s) {
				return false
			}
		}
		return true
	}
}

func systemAdmin(ctx context.Context, svc *rampart.Service) bool {
	actor, err := svc.ResolveActor(ctx)
	if err != nil {
		return false
	}
	return svc.Resolver().CanManageSystemRoles(actor)
}

func crossTenant(ctx context.Context, svc *rampart.Service) bool {
	actor, err := svc.ResolveActor(ctx)
	if err != nil {
		return false
	}
	return svc.Resolver().CrossTenant(actor)
}

func denyResponse(ctx forge.Context) error {
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(403)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"code": string(rampart.KindForbidden), "error": "access denied"})
}
