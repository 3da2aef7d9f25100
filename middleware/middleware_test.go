package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store/memory"
)

func TestRules(t *testing.T) {
	svc, err := rampart.NewService(rampart.WithStore(memory.New()))
	require.NoError(t, err)

	as := func(a *scope.Actor) context.Context {
		return rampart.WithActor(context.Background(), a)
	}
	editor := as(&scope.Actor{UserID: "alice", OrgID: "org_5", Permissions: []string{"roles:*", "reports:read"}})
	root := as(&scope.Actor{UserID: "root", Permissions: []string{"*"}})
	support := as(&scope.Actor{UserID: "sam", IsSystemUser: true})

	tests := []struct {
		name  string
		allow rule
		ctx   context.Context
		want  bool
	}{
		{"wildcard grants operation", all("roles:update"), editor, true},
		{"missing slug", all("roles:update", "reports:export"), editor, false},
		{"any of", anyOf("reports:export", "reports:read"), editor, true},
		{"none of", anyOf("billing:read"), editor, false},
		{"tenant is not system admin", systemAdmin, editor, false},
		{"full access is system admin", systemAdmin, root, true},
		{"system user crosses tenants", crossTenant, support, true},
		{"tenant stays in org", crossTenant, editor, false},
		{"no actor", all("roles:read"), context.Background(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.allow(tt.ctx, svc))
		})
	}
}
