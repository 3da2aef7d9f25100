// Package scope resolves an actor and a requested org context into the role
// visibility predicate and the system-role capabilities every role operation
// runs under.
//
// Resolution is pure: the same actor and request always yield the same
// Decision, and no storage is consulted.
package scope

import "github.com/xraph/rampart/role"

// DefaultFullAccessSlug is the permission slug granting system-role
// management when no Capability override is configured.
const DefaultFullAccessSlug = "*"

// Capability decides whether an actor may manage system roles. It replaces
// the default full-access slug check.
type Capability func(a *Actor) bool

// Request carries the caller-supplied context and filters of a role query.
type Request struct {
	// OrgID is the requested org context. Tenant actors are always pinned
	// to their own org regardless of this value.
	OrgID string `json:"org_id,omitempty"`

	// Filters. IsSystem is honored only for actors that can manage system
	// roles. The others only ever narrow the result.
	FilterOrgID *string `json:"filter_org_id,omitempty"`
	IsSystem    *bool   `json:"is_system,omitempty"`
	IsGlobal    *bool   `json:"is_global,omitempty"`
}

// Decision is the outcome of resolving an actor against a request.
type Decision struct {
	// Scope is the visibility predicate for role queries.
	Scope role.Scope `json:"scope"`

	// OrgID is the effective org context: links are written and counted
	// against it.
	OrgID string `json:"org_id,omitempty"`

	CanManageSystemRoles bool `json:"can_manage_system_roles"`
	CanViewSystemRoles   bool `json:"can_view_system_roles"`
	CrossTenant          bool `json:"cross_tenant"`
}

// CanManage reports whether the decision permits mutating r: the role is
// not a system role, or the actor can manage system roles.
func (d Decision) CanManage(r *role.Role) bool {
	if r == nil {
		return false
	}
	return !r.IsSystem || d.CanManageSystemRoles
}

// TargetScope returns the scope for loading the target of a mutation. It is
// Scope with system roles admitted, so that a mutation of a system role
// fails as forbidden instead of looking like a missing role.
func (d Decision) TargetScope() role.Scope {
	sc := d.Scope
	sc.ExcludeSystem = false
	if sc.Tenant {
		sc.TenantSystem = true
	}
	return sc
}

// Resolver turns actors into Decisions.
type Resolver struct {
	fullAccessSlug  string
	crossTenantSlug string
	capability      Capability
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFullAccessSlug sets the slug that grants system-role management.
func WithFullAccessSlug(slug string) Option {
	return func(r *Resolver) { r.fullAccessSlug = slug }
}

// WithCrossTenantSlug sets a slug that grants cross-tenant visibility
// without system-role management. The slug may be a pattern such as
// "platform:*", granted to any actor holding a slug it matches. Empty
// disables it.
func WithCrossTenantSlug(slug string) Option {
	return func(r *Resolver) { r.crossTenantSlug = slug }
}

// WithCapability overrides how system-role management is decided.
func WithCapability(fn Capability) Option {
	return func(r *Resolver) { r.capability = fn }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{fullAccessSlug: DefaultFullAccessSlug}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CanManageSystemRoles reports whether a may manage system roles.
func (r *Resolver) CanManageSystemRoles(a *Actor) bool {
	if a == nil {
		return false
	}
	if r.capability != nil {
		return r.capability(a)
	}
	return r.fullAccessSlug != "" && a.Has(r.fullAccessSlug)
}

// CrossTenant reports whether a may operate outside its own org.
func (r *Resolver) CrossTenant(a *Actor) bool {
	if a == nil {
		return false
	}
	if a.IsSystemUser || r.CanManageSystemRoles(a) {
		return true
	}
	return r.crossTenantSlug != "" && a.HasMatching(r.crossTenantSlug)
}

// Resolve computes the visibility decision for a and req.
//
// Without system capability, system roles are excluded and a requested
// IsSystem filter is dropped. Without cross-tenant access, visibility is
// pinned to the actor's org plus global roles. Cross-tenant actors get no
// org restriction and their filters apply verbatim.
func (r *Resolver) Resolve(a *Actor, req Request) Decision {
	manage := r.CanManageSystemRoles(a)
	cross := r.CrossTenant(a)

	d := Decision{
		CanManageSystemRoles: manage,
		CanViewSystemRoles:   manage,
		CrossTenant:          cross,
	}

	var sc role.Scope
	if !manage {
		sc.ExcludeSystem = true
	}

	if cross {
		d.OrgID = req.OrgID
		if d.OrgID == "" && a != nil {
			d.OrgID = a.OrgID
		}
	} else {
		sc.Tenant = true
		if a != nil {
			sc.TenantOrg = a.OrgID
			d.OrgID = a.OrgID
		}
	}

	isSystem := req.IsSystem
	if !manage {
		isSystem = nil
	}
	d.Scope = sc.Narrow(req.FilterOrgID, isSystem, req.IsGlobal)
	return d
}

// Resolve is a convenience for NewResolver().Resolve.
func Resolve(a *Actor, req Request) Decision {
	return NewResolver().Resolve(a, req)
}
