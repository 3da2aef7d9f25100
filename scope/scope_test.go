package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xraph/rampart/role"
)

func ptr[T any](v T) *T { return &v }

func testRoles() []*role.Role {
	return []*role.Role{
		{Name: "platform-admin", IsSystem: true, IsActive: true},
		{Name: "Admin", IsGlobal: true, IsActive: true},
		{Name: "Auditor", OrgID: "org_5", IsActive: true},
		{Name: "Auditor", OrgID: "org_7", IsActive: true},
	}
}

func visible(d Decision) []string {
	var out []string
	for _, r := range testRoles() {
		if d.Scope.Matches(r) {
			out = append(out, r.Name+"@"+r.OrgID)
		}
	}
	return out
}

func TestMatchPermission(t *testing.T) {
	tests := []struct {
		held, required string
		want           bool
	}{
		{"roles:read", "roles:read", true},
		{"roles:*", "roles:read", true},
		{"*", "permissions:manage", true},
		{"roles:*", "permissions:read", false},
		{"roles:read", "roles:update", false},
		{"", "roles:read", false},
		{"docs:*", "*", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchPermission(tt.held, tt.required), "%s vs %s", tt.held, tt.required)
	}
}

func TestActor_HasMatching(t *testing.T) {
	support := &Actor{UserID: "u1", Permissions: []string{"platform:support"}}
	wild := &Actor{UserID: "u2", Permissions: []string{"platform:*"}}
	plain := &Actor{UserID: "u3", Permissions: []string{"reports:read"}}

	assert.True(t, support.HasMatching("platform:*"))
	assert.True(t, support.HasMatching("platform:support"))
	assert.True(t, wild.HasMatching("platform:cross"))
	assert.False(t, plain.HasMatching("platform:*"))
	assert.False(t, support.HasMatching("*"))
	assert.False(t, (*Actor)(nil).HasMatching("platform:*"))

	// Has keeps treating the required slug literally.
	assert.False(t, support.Has("platform:*"))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		actor  *Actor
		req    Request
		want   []string
		manage bool
		cross  bool
		orgID  string
	}{
		{
			name:  "tenant sees own org and globals",
			actor: &Actor{UserID: "u1", OrgID: "org_5"},
			want:  []string{"Admin@", "Auditor@org_5"},
			orgID: "org_5",
		},
		{
			name:  "tenant system filter is ignored",
			actor: &Actor{UserID: "u1", OrgID: "org_5"},
			req:   Request{IsSystem: ptr(true)},
			want:  []string{"Admin@", "Auditor@org_5"},
			orgID: "org_5",
		},
		{
			name:  "tenant cannot request another org",
			actor: &Actor{UserID: "u1", OrgID: "org_5"},
			req:   Request{OrgID: "org_7"},
			want:  []string{"Admin@", "Auditor@org_5"},
			orgID: "org_5",
		},
		{
			name:  "tenant org filter only narrows",
			actor: &Actor{UserID: "u1", OrgID: "org_5", Permissions: []string{"roles:*"}},
			req:   Request{FilterOrgID: ptr("org_7")},
			want:  nil,
			orgID: "org_5",
		},
		{
			name:  "tenant without org sees only globals",
			actor: &Actor{UserID: "u1"},
			want:  []string{"Admin@"},
		},
		{
			name:  "nil actor sees only globals",
			actor: nil,
			want:  []string{"Admin@"},
		},
		{
			name:   "full access sees everything",
			actor:  &Actor{UserID: "root", Permissions: []string{"*"}},
			want:   []string{"platform-admin@", "Admin@", "Auditor@org_5", "Auditor@org_7"},
			manage: true,
			cross:  true,
		},
		{
			name:   "full access system filter honored",
			actor:  &Actor{UserID: "root", Permissions: []string{"*"}},
			req:    Request{IsSystem: ptr(true)},
			want:   []string{"platform-admin@"},
			manage: true,
			cross:  true,
		},
		{
			name:   "full access org filter honored",
			actor:  &Actor{UserID: "root", Permissions: []string{"*"}},
			req:    Request{FilterOrgID: ptr("org_7"), OrgID: "org_7"},
			want:   []string{"Auditor@org_7"},
			manage: true,
			cross:  true,
			orgID:  "org_7",
		},
		{
			name:  "system user is cross tenant but cannot see system roles",
			actor: &Actor{UserID: "ops", IsSystemUser: true},
			req:   Request{IsSystem: ptr(true)},
			want:  []string{"Admin@", "Auditor@org_5", "Auditor@org_7"},
			cross: true,
		},
		{
			name:  "global filter honored for tenants",
			actor: &Actor{UserID: "u1", OrgID: "org_5"},
			req:   Request{IsGlobal: ptr(false)},
			want:  []string{"Auditor@org_5"},
			orgID: "org_5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Resolve(tt.actor, tt.req)
			assert.Equal(t, tt.want, visible(d))
			assert.Equal(t, tt.manage, d.CanManageSystemRoles)
			assert.Equal(t, tt.manage, d.CanViewSystemRoles)
			assert.Equal(t, tt.cross, d.CrossTenant)
			assert.Equal(t, tt.orgID, d.OrgID)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	a := &Actor{UserID: "u1", OrgID: "org_5", Permissions: []string{"roles:read"}}
	req := Request{IsSystem: ptr(true), IsGlobal: ptr(true)}
	assert.Equal(t, Resolve(a, req), Resolve(a, req))
}

func TestResolver_NoSystemRoleLeak(t *testing.T) {
	r := NewResolver()
	for _, a := range []*Actor{
		{UserID: "u1", OrgID: "org_5"},
		{UserID: "u2", OrgID: "org_5", Permissions: []string{"roles:*", "permissions:*"}},
		{UserID: "u3", IsSystemUser: true},
	} {
		for _, req := range []Request{{}, {IsSystem: ptr(true)}, {FilterOrgID: ptr("")}} {
			d := r.Resolve(a, req)
			for _, ro := range testRoles() {
				if ro.IsSystem {
					assert.False(t, d.Scope.Matches(ro), "actor %s saw system role", a.UserID)
				}
			}
		}
	}
}

func TestResolver_Options(t *testing.T) {
	a := &Actor{UserID: "u1", OrgID: "org_5", Permissions: []string{"platform:admin"}}

	assert.False(t, NewResolver().CanManageSystemRoles(a))
	assert.True(t, NewResolver(WithFullAccessSlug("platform:admin")).CanManageSystemRoles(a))

	override := NewResolver(WithCapability(func(a *Actor) bool { return a.UserID == "u1" }))
	assert.True(t, override.CanManageSystemRoles(a))
	assert.True(t, override.CrossTenant(a))

	crossOnly := NewResolver(WithCrossTenantSlug("platform:*"))
	assert.True(t, crossOnly.CrossTenant(a))
	assert.False(t, crossOnly.CanManageSystemRoles(a))
	d := crossOnly.Resolve(a, Request{})
	assert.True(t, d.Scope.ExcludeSystem)
	assert.False(t, d.Scope.Tenant)
}

func TestDecision_CanManage(t *testing.T) {
	sys := &role.Role{Name: "platform-admin", IsSystem: true}
	org := &role.Role{Name: "Auditor", OrgID: "org_5"}

	tenant := Resolve(&Actor{UserID: "u1", OrgID: "org_5"}, Request{})
	assert.False(t, tenant.CanManage(sys))
	assert.True(t, tenant.CanManage(org))
	assert.False(t, tenant.CanManage(nil))

	root := Resolve(&Actor{UserID: "root", Permissions: []string{"*"}}, Request{})
	assert.True(t, root.CanManage(sys))
}

func TestDecision_TargetScope(t *testing.T) {
	d := Resolve(&Actor{UserID: "u1", OrgID: "org_5"}, Request{})
	sc := d.TargetScope()

	var got []string
	for _, r := range testRoles() {
		if sc.Matches(r) {
			got = append(got, r.Name+"@"+r.OrgID)
		}
	}
	assert.Equal(t, []string{"platform-admin@", "Admin@", "Auditor@org_5"}, got)
	assert.True(t, d.Scope.ExcludeSystem, "read scope is unchanged")
}
