// Package api provides HTTP handlers for the rampart role authorization
// service.
package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/rampart"
)

// API wires all rampart HTTP handlers together.
type API struct {
	svc    *rampart.Service
	router forge.Router
}

// New creates an API from a Service and a Forge router.
func New(svc *rampart.Service, router forge.Router) *API {
	return &API{svc: svc, router: router}
}

// Handler returns the fully assembled http.Handler with all routes.
func (a *API) Handler() http.Handler {
	if a.router == nil {
		a.router = forge.NewRouter()
	}
	if err := a.RegisterRoutes(a.router); err != nil {
		panic("rampart: register routes: " + err.Error())
	}
	return a.router.Handler()
}

// RegisterRoutes registers all API routes into the given Forge router.
func (a *API) RegisterRoutes(router forge.Router) error {
	registerers := []func(forge.Router) error{
		a.registerRoleRoutes,
		a.registerRolePermissionRoutes,
		a.registerBulkRoutes,
		a.registerPermissionRoutes,
		a.registerAssignmentRoutes,
	}
	for _, fn := range registerers {
		if err := fn(router); err != nil {
			return err
		}
	}
	return nil
}
