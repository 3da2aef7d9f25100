package role

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rampart/id"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		r    Role
		want error
	}{
		{"org role", Role{Name: "Auditor", OrgID: "5"}, nil},
		{"global role", Role{Name: "Admin", IsGlobal: true}, nil},
		{"system role", Role{Name: "Root", IsSystem: true}, nil},
		{"empty name", Role{OrgID: "5"}, ErrEmptyName},
		{"global with org", Role{Name: "x", OrgID: "5", IsGlobal: true}, ErrGlobalWithOrg},
		{"system with org", Role{Name: "x", OrgID: "5", IsSystem: true}, ErrSystemWithOrg},
		{"orphan", Role{Name: "x"}, ErrMissingOrg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Valid()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNextState(t *testing.T) {
	tests := []struct {
		from    State
		ev      Event
		want    State
		wantErr error
	}{
		{StateActive, EventDeactivate, StateInactive, nil},
		{StateInactive, EventActivate, StateActive, nil},
		{StateActive, EventPurge, StatePurged, nil},
		{StateInactive, EventPurge, StatePurged, nil},
		{StateActive, EventActivate, StateActive, ErrInvalidState},
		{StateInactive, EventDeactivate, StateInactive, ErrInvalidState},
		{StatePurged, EventActivate, StatePurged, ErrPurgedIsTerminal},
		{StatePurged, EventPurge, StatePurged, ErrPurgedIsTerminal},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.ev), func(t *testing.T) {
			got, err := NextState(tt.from, tt.ev)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.True(t, LeavesActive(StateActive, EventDeactivate))
	assert.True(t, LeavesActive(StateActive, EventPurge))
	assert.False(t, LeavesActive(StateInactive, EventPurge))
}

func TestScopeMatches(t *testing.T) {
	system := &Role{ID: id.NewRoleID(), Name: "Root", IsSystem: true, IsActive: true}
	global := &Role{ID: id.NewRoleID(), Name: "Admin", IsGlobal: true, IsActive: true}
	org5 := &Role{ID: id.NewRoleID(), Name: "Auditor", OrgID: "5", IsActive: true}
	org7 := &Role{ID: id.NewRoleID(), Name: "Auditor", OrgID: "7", IsActive: true}

	t.Run("unscoped sees everything", func(t *testing.T) {
		for _, r := range []*Role{system, global, org5, org7} {
			assert.True(t, Unscoped.Matches(r), r.Name)
		}
	})

	t.Run("tenant scope", func(t *testing.T) {
		sc := Scope{ExcludeSystem: true, Tenant: true, TenantOrg: "5"}
		assert.False(t, sc.Matches(system))
		assert.True(t, sc.Matches(global))
		assert.True(t, sc.Matches(org5))
		assert.False(t, sc.Matches(org7))
	})

	t.Run("tenant without org sees only global roles", func(t *testing.T) {
		sc := Scope{ExcludeSystem: true, Tenant: true}
		assert.True(t, sc.Matches(global))
		assert.False(t, sc.Matches(org5))
	})

	t.Run("narrow adds conjuncts", func(t *testing.T) {
		yes := true
		sc := Scope{ExcludeSystem: true}.Narrow(nil, &yes, nil)
		assert.False(t, sc.Matches(system), "exclusion survives narrowing")
		assert.False(t, sc.Matches(global))

		org := "7"
		sc = Unscoped.Narrow(&org, nil, nil)
		assert.True(t, sc.Matches(org7))
		assert.False(t, sc.Matches(org5))
	})

	require.False(t, Scope{}.Matches(nil))
}

func TestListFilterOrdering(t *testing.T) {
	var f *ListFilter
	assert.Equal(t, OrderCreatedAt, f.Order())
	assert.Equal(t, "DESC", f.Direction())

	f = &ListFilter{OrderBy: "DROP TABLE", Asc: true}
	assert.Equal(t, OrderCreatedAt, f.Order())
	assert.Equal(t, "ASC", f.Direction())

	f = &ListFilter{OrderBy: OrderName}
	assert.Equal(t, OrderName, f.Order())
}
