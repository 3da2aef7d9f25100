package plugin

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
)

// testPlugin implements Plugin + RoleCreated + PermissionsChanged.
type testPlugin struct {
	roleCreatedCalled bool
	changedUsers      []string
}

func (t *testPlugin) Name() string { return "test-plugin" }

func (t *testPlugin) OnRoleCreated(_ context.Context, _ *role.Role) error {
	t.roleCreatedCalled = true
	return nil
}

func (t *testPlugin) OnPermissionsChanged(_ context.Context, _ id.RoleID, userIDs []string) error {
	t.changedUsers = userIDs
	return nil
}

// minimalPlugin only implements Plugin (no hooks).
type minimalPlugin struct{}

func (m *minimalPlugin) Name() string { return "minimal" }

// brokenPlugin fails every PermissionsChanged notification.
type brokenPlugin struct{ panics bool }

func (b *brokenPlugin) Name() string { return "broken" }

func (b *brokenPlugin) OnPermissionsChanged(_ context.Context, _ id.RoleID, _ []string) error {
	if b.panics {
		panic("socket closed")
	}
	return errors.New("socket closed")
}

func TestRegistryDispatch(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(slog.Default())

	tp := &testPlugin{}
	reg.Register(tp)
	reg.Register(&minimalPlugin{})

	if len(reg.Plugins()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(reg.Plugins()))
	}

	// Should dispatch RoleCreated to testPlugin only.
	reg.EmitRoleCreated(ctx, &role.Role{ID: id.NewRoleID(), Name: "admin"})
	if !tp.roleCreatedCalled {
		t.Fatal("OnRoleCreated was not called")
	}

	reg.EmitPermissionsChanged(ctx, id.NewRoleID(), []string{"u1", "u2"})
	if len(tp.changedUsers) != 2 {
		t.Fatalf("expected 2 users, got %v", tp.changedUsers)
	}

	// Should not panic on hooks with no listeners.
	reg.EmitRoleDeleted(ctx, id.NewRoleID(), role.StatePurged)
	reg.EmitRoleCopied(ctx, &role.Role{}, &role.Role{})
	reg.EmitShutdown(ctx)
}

func TestRegistryIsolatesFailingHooks(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(nil)

	tp := &testPlugin{}
	reg.Register(&brokenPlugin{})
	reg.Register(&brokenPlugin{panics: true})
	reg.Register(tp)

	reg.EmitPermissionsChanged(ctx, id.NewRoleID(), []string{"u1"})
	if len(tp.changedUsers) != 1 {
		t.Fatal("later plugins must still be notified after a failing hook")
	}
}
