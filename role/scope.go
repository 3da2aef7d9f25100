package role

// Scope is the visibility predicate every role query runs under. It is
// produced by the access scope resolver and translated by each store backend
// into its native filter language; Matches evaluates it in memory.
//
// The zero Scope matches every role.
type Scope struct {
	// ExcludeSystem drops system roles.
	ExcludeSystem bool `json:"exclude_system,omitempty"`

	// Tenant restricts visibility to roles of TenantOrg plus global roles.
	// With an empty TenantOrg only global roles are visible. TenantSystem
	// additionally admits system roles, for loading mutation targets that
	// must be rejected rather than hidden.
	Tenant       bool   `json:"tenant,omitempty"`
	TenantOrg    string `json:"tenant_org,omitempty"`
	TenantSystem bool   `json:"tenant_system,omitempty"`

	// Exact-match filters.
	OrgID    *string `json:"org_id,omitempty"`
	IsSystem *bool   `json:"is_system,omitempty"`
	IsGlobal *bool   `json:"is_global,omitempty"`
}

// Unscoped matches every role, system roles included.
var Unscoped = Scope{}

// Matches reports whether r is visible under s.
func (s Scope) Matches(r *Role) bool {
	if r == nil {
		return false
	}
	if s.ExcludeSystem && r.IsSystem {
		return false
	}
	if s.Tenant {
		inOrg := s.TenantOrg != "" && r.OrgID == s.TenantOrg
		global := r.OrgID == "" && r.IsGlobal
		system := s.TenantSystem && r.OrgID == "" && r.IsSystem
		if !inOrg && !global && !system {
			return false
		}
	}
	if s.OrgID != nil && r.OrgID != *s.OrgID {
		return false
	}
	if s.IsSystem != nil && r.IsSystem != *s.IsSystem {
		return false
	}
	if s.IsGlobal != nil && r.IsGlobal != *s.IsGlobal {
		return false
	}
	return true
}

// Narrow returns a copy of s with the given exact-match filters added.
// Narrowing never widens visibility: it only adds conjuncts.
func (s Scope) Narrow(orgID *string, isSystem, isGlobal *bool) Scope {
	if orgID != nil {
		s.OrgID = orgID
	}
	if isSystem != nil {
		s.IsSystem = isSystem
	}
	if isGlobal != nil {
		s.IsGlobal = isGlobal
	}
	return s
}
