package rampart

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store/memory"
)

type changedCall struct {
	roleID  id.RoleID
	userIDs []string
}

type hookRecorder struct {
	mu    sync.Mutex
	calls []changedCall
	err   error
	panic bool
}

func (h *hookRecorder) fn(_ context.Context, roleID id.RoleID, userIDs []string) error {
	h.mu.Lock()
	h.calls = append(h.calls, changedCall{roleID: roleID, userIDs: userIDs})
	h.mu.Unlock()
	if h.panic {
		panic("hub unavailable")
	}
	return h.err
}

func (h *hookRecorder) last() changedCall {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.calls) == 0 {
		return changedCall{}
	}
	return h.calls[len(h.calls)-1]
}

type testEnv struct {
	svc   *Service
	store *memory.Store
	hook  *hookRecorder

	system   *role.Role
	global   *role.Role
	auditor5 *role.Role
	auditor7 *role.Role

	read        *permission.Permission
	update      *permission.Permission
	del         *permission.Permission
	export      *permission.Permission
	maintenance *permission.Permission

	root    *scope.Actor
	tenant5 *scope.Actor
	tenant7 *scope.Actor
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()
	s := memory.New()
	hook := &hookRecorder{}

	opts = append([]Option{WithStore(s), WithPermissionsChangedFunc(hook.fn)}, opts...)
	svc, err := NewService(opts...)
	require.NoError(t, err)

	env := &testEnv{
		svc:     svc,
		store:   s,
		hook:    hook,
		root:    &scope.Actor{UserID: "root", Permissions: []string{"*"}},
		tenant5: &scope.Actor{UserID: "alice", OrgID: "org_5", Permissions: []string{"roles:manage"}},
		tenant7: &scope.Actor{UserID: "carol", OrgID: "org_7", Permissions: []string{"roles:manage"}},
	}

	mkRole := func(name string, system, global bool) *role.Role {
		r := &role.Role{ID: id.NewRoleID(), Name: name, IsSystem: system, IsGlobal: global, IsActive: true}
		require.NoError(t, s.CreateRole(ctx, r))
		return r
	}
	env.system = mkRole("platform-admin", true, false)
	env.global = mkRole("Admin", false, true)

	env.auditor5, err = svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "Auditor"})
	require.NoError(t, err)
	env.auditor7, err = svc.CreateRole(ctx, env.tenant7, CreateRoleInput{Name: "Auditor"})
	require.NoError(t, err)

	mkPerm := func(slug, category string) *permission.Permission {
		p := &permission.Permission{ID: id.NewPermissionID(), Slug: slug, Name: slug, Category: category, IsActive: true}
		require.NoError(t, s.CreatePermission(ctx, p))
		return p
	}
	env.read = mkPerm("reports:read", "reports")
	env.update = mkPerm("reports:update", "reports")
	env.del = mkPerm("reports:delete", "reports")
	env.export = mkPerm("reports:export", "reports")
	env.maintenance = mkPerm("platform:maintain", "system")
	return env
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
	var e *Error
	require.True(t, errors.As(err, &e))
	return e
}

func roleKeys(views []*RoleView) []string {
	out := make([]string, 0, len(views))
	for _, v := range views {
		out = append(out, v.Name+"@"+v.OrgID)
	}
	return out
}

func slugsOf(t *testing.T) func(*RolePermissions, error) []string {
	return func(rp *RolePermissions, err error) []string {
		t.Helper()
		require.NoError(t, err)
		return rp.Slugs()
	}
}

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService()
	assert.ErrorIs(t, err, ErrStoreRequired)
}

func TestListRoles_TenantScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	list, err := env.svc.ListRoles(ctx, env.tenant5, ListRolesInput{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Admin@", "Auditor@org_5"}, roleKeys(list.Roles))
	assert.Equal(t, int64(2), list.Total)

	// A requested org context does not widen a tenant's view.
	list, err = env.svc.ListRoles(ctx, env.tenant5, ListRolesInput{OrgID: "org_7"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Admin@", "Auditor@org_5"}, roleKeys(list.Roles))

	list, err = env.svc.ListRoles(ctx, env.root, ListRolesInput{})
	require.NoError(t, err)
	assert.Len(t, list.Roles, 4)
}

func TestListRoles_SystemFilterIgnoredForTenants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	yes := true

	list, err := env.svc.ListRoles(ctx, env.tenant5, ListRolesInput{IsSystem: &yes})
	require.NoError(t, err)
	for _, v := range list.Roles {
		assert.False(t, v.IsSystem, "tenant saw system role %s", v.Name)
	}
	assert.ElementsMatch(t, []string{"Admin@", "Auditor@org_5"}, roleKeys(list.Roles))

	list, err = env.svc.ListRoles(ctx, env.root, ListRolesInput{IsSystem: &yes})
	require.NoError(t, err)
	assert.Equal(t, []string{"platform-admin@"}, roleKeys(list.Roles))
}

func TestListRoles_StatsStayInScope(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.export.ID})
	require.NoError(t, err)
	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	require.NoError(t, err)

	list, err := env.svc.ListRoles(ctx, env.tenant7, ListRolesInput{IncludeStats: true, IncludePermissions: true})
	require.NoError(t, err)
	for _, v := range list.Roles {
		require.NotNil(t, v.Stats)
		assert.Zero(t, v.Stats.UserCount, v.Name)
		assert.Zero(t, v.Stats.PermissionCount, v.Name)
		assert.Empty(t, v.Permissions, v.Name)
	}

	v, err := env.svc.GetRole(ctx, env.tenant5, env.auditor5.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Stats.UserCount)
	assert.Equal(t, 1, v.Stats.PermissionCount)
	assert.Equal(t, []string{"reports:export"}, v.Permissions)
}

func TestGetRole_OutOfScopeIsNotFound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.GetRole(ctx, env.tenant5, env.auditor7.ID)
	requireKind(t, err, KindNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.GetRole(ctx, env.tenant5, env.system.ID)
	requireKind(t, err, KindNotFound)

	_, err = env.svc.GetRole(ctx, env.tenant5, id.NewRoleID())
	requireKind(t, err, KindNotFound)

	_, err = env.svc.GetRolePermissions(ctx, env.tenant5, env.auditor7.ID)
	requireKind(t, err, KindNotFound)
}

func TestCreateRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "Auditor"})
	e := requireKind(t, err, KindConflict)
	assert.ErrorIs(t, err, ErrDuplicateRoleName)
	assert.Equal(t, "Auditor", e.Meta["name"])

	_, err = env.svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "  "})
	requireKind(t, err, KindBadRequest)

	_, err = env.svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "Root", IsSystem: true})
	requireKind(t, err, KindForbidden)

	_, err = env.svc.CreateRole(ctx, &scope.Actor{UserID: "nobody"}, CreateRoleInput{Name: "Orphan"})
	requireKind(t, err, KindBadRequest)

	r, err := env.svc.CreateRole(ctx, env.root, CreateRoleInput{Name: "Support", OrgID: "org_9"})
	require.NoError(t, err)
	assert.Equal(t, "org_9", r.OrgID)
	assert.False(t, r.IsGlobal)

	sys, err := env.svc.CreateRole(ctx, env.root, CreateRoleInput{Name: "operator", IsSystem: true})
	require.NoError(t, err)
	assert.True(t, sys.IsSystem)
	assert.Empty(t, sys.OrgID)
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "Viewer"})
	require.NoError(t, err)

	name := "Viewer"
	_, err = env.svc.UpdateRole(ctx, env.tenant5, env.auditor5.ID, UpdateRoleInput{Name: &name})
	requireKind(t, err, KindConflict)

	name = "Reviewer"
	desc := "reviews reports"
	r, err := env.svc.UpdateRole(ctx, env.tenant5, env.auditor5.ID, UpdateRoleInput{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Reviewer", r.Name)
	assert.Equal(t, "reviews reports", r.Description)

	_, err = env.svc.UpdateRole(ctx, env.tenant7, env.auditor5.ID, UpdateRoleInput{Description: &desc})
	requireKind(t, err, KindNotFound)

	_, err = env.svc.UpdateRole(ctx, env.tenant5, env.global.ID, UpdateRoleInput{Description: &desc})
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrGlobalRoleImmutable)
}

func TestSystemRoleImmutable(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	desc := "changed"

	_, err := env.svc.UpdateRole(ctx, env.tenant5, env.system.ID, UpdateRoleInput{Description: &desc})
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrSystemRoleImmutable)

	_, err = env.svc.AssignPermissions(ctx, env.tenant5, env.system.ID, []id.PermissionID{env.read.ID})
	requireKind(t, err, KindForbidden)

	_, err = env.svc.DeleteRole(ctx, env.tenant5, env.system.ID, true)
	requireKind(t, err, KindForbidden)

	// Not even a system administrator deletes a system role.
	_, err = env.svc.DeleteRole(ctx, env.root, env.system.ID, true)
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrSystemRoleUndeletable)

	r, err := env.svc.UpdateRole(ctx, env.root, env.system.ID, UpdateRoleInput{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "changed", r.Description)
}

func TestDeleteRole_InUseGuard(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, u := range []string{"bob", "dave"} {
		_, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: u, RoleID: env.auditor5.ID})
		require.NoError(t, err)
	}

	_, err := env.svc.DeleteRole(ctx, env.tenant5, env.auditor5.ID, false)
	e := requireKind(t, err, KindConflict)
	assert.ErrorIs(t, err, ErrRoleInUse)
	assert.Equal(t, 2, e.Meta["active_users"])

	inactive := false
	_, err = env.svc.UpdateRole(ctx, env.tenant5, env.auditor5.ID, UpdateRoleInput{IsActive: &inactive})
	requireKind(t, err, KindConflict)

	// A tenant's force only soft-deletes.
	res, err := env.svc.DeleteRole(ctx, env.tenant5, env.auditor5.ID, true)
	require.NoError(t, err)
	assert.Equal(t, role.StateInactive, res.State)
	assert.ElementsMatch(t, []string{"bob", "dave"}, env.hook.last().userIDs)

	v, err := env.svc.GetRole(ctx, env.tenant5, env.auditor5.ID)
	require.NoError(t, err)
	assert.False(t, v.IsActive)

	res, err = env.svc.DeleteRole(ctx, env.root, env.auditor5.ID, true)
	require.NoError(t, err)
	assert.Equal(t, role.StatePurged, res.State)

	_, err = env.svc.GetRole(ctx, env.root, env.auditor5.ID)
	requireKind(t, err, KindNotFound)
}

func TestDeleteRole_SoftThenReactivate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	res, err := env.svc.DeleteRole(ctx, env.tenant5, env.auditor5.ID, false)
	require.NoError(t, err)
	assert.Equal(t, role.StateInactive, res.State)

	// Repeating is a no-op.
	res, err = env.svc.DeleteRole(ctx, env.tenant5, env.auditor5.ID, false)
	require.NoError(t, err)
	assert.Equal(t, role.StateInactive, res.State)

	active := true
	r, err := env.svc.UpdateRole(ctx, env.tenant5, env.auditor5.ID, UpdateRoleInput{IsActive: &active})
	require.NoError(t, err)
	assert.True(t, r.IsActive)
}

func TestAssignPermissions_ReplaceIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	ids := []id.PermissionID{env.read.ID, env.export.ID}

	first := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, ids))
	second := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, ids))
	assert.Equal(t, []string{"reports:export", "reports:read"}, first)
	assert.Equal(t, first, second)

	got := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.export.ID}))
	assert.Equal(t, []string{"reports:export"}, got)

	got = slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, nil))
	assert.Empty(t, got)

	_, err := env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{id.NewPermissionID()})
	requireKind(t, err, KindBadRequest)

	// The system category is not assignable by tenants.
	_, err = env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.maintenance.ID})
	requireKind(t, err, KindBadRequest)
}

func TestPermissionCascade(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	got := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.del.ID}))
	assert.Equal(t, []string{"reports:delete", "reports:read", "reports:update"}, got)

	got = slugsOf(t)(env.svc.RemovePermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.update.ID}))
	assert.Equal(t, []string{"reports:read"}, got)

	got = slugsOf(t)(env.svc.RemovePermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.read.ID}))
	assert.Empty(t, got)
}

func TestPermissionCascade_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	off := false
	cfg.EnforceCascade = &off
	env := newTestEnv(t, WithConfig(cfg))

	got := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.del.ID}))
	assert.Equal(t, []string{"reports:delete"}, got)
}

func TestAuditorScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	require.NoError(t, err)

	got := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID,
		[]id.PermissionID{env.read.ID, env.export.ID}))
	assert.Equal(t, []string{"reports:export", "reports:read"}, got)
	call := env.hook.last()
	assert.Equal(t, env.auditor5.ID.String(), call.roleID.String())
	assert.Equal(t, []string{"bob"}, call.userIDs)

	got = slugsOf(t)(env.svc.RemovePermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.export.ID}))
	assert.Equal(t, []string{"reports:read"}, got)
	assert.Len(t, env.hook.calls, 2)

	// The other org's Auditor is untouched.
	got = slugsOf(t)(env.svc.GetRolePermissions(ctx, env.tenant7, env.auditor7.ID))
	assert.Empty(t, got)
}

func TestSharedGrantVisibility(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignPermissions(ctx, env.root, env.global.ID, []id.PermissionID{env.read.ID})
	require.NoError(t, err)

	got := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.global.ID, []id.PermissionID{env.export.ID}))
	assert.Equal(t, []string{"reports:export", "reports:read"}, got)

	got = slugsOf(t)(env.svc.GetRolePermissions(ctx, env.tenant7, env.global.ID))
	assert.Equal(t, []string{"reports:read"}, got)

	got = slugsOf(t)(env.svc.GetRolePermissions(ctx, env.root, env.global.ID))
	assert.Equal(t, []string{"reports:read"}, got)
}

func TestGlobalRoleCustomizationDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	off := false
	cfg.AllowGlobalRoleCustomization = &off
	env := newTestEnv(t, WithConfig(cfg))

	_, err := env.svc.AssignPermissions(ctx, env.tenant5, env.global.ID, []id.PermissionID{env.export.ID})
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrGlobalRoleImmutable)
}

func TestBulkDelete_SystemRoleRejectsBatch(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.BulkDelete(ctx, env.tenant5, []id.RoleID{env.auditor5.ID, env.system.ID}, false)
	e := requireKind(t, err, KindForbidden)
	assert.Equal(t, []string{"platform-admin"}, e.Meta["system_roles"])

	v, err := env.svc.GetRole(ctx, env.tenant5, env.auditor5.ID)
	require.NoError(t, err)
	assert.True(t, v.IsActive)

	_, err = env.svc.BulkDelete(ctx, env.root, []id.RoleID{env.auditor5.ID, env.system.ID}, true)
	requireKind(t, err, KindForbidden)
}

func TestBulkUpdate_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	viewer, err := env.svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "Viewer"})
	require.NoError(t, err)

	_, err = env.svc.BulkUpdate(ctx, env.tenant5, []id.RoleID{env.auditor5.ID, env.auditor7.ID}, BulkDeactivate)
	e := requireKind(t, err, KindNotFound)
	assert.Equal(t, []string{env.auditor7.ID.String()}, e.Meta["role_ids"])

	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: viewer.ID})
	require.NoError(t, err)
	_, err = env.svc.BulkUpdate(ctx, env.tenant5, []id.RoleID{env.auditor5.ID, viewer.ID}, BulkDeactivate)
	requireKind(t, err, KindConflict)

	list, err := env.svc.ListRoles(ctx, env.tenant5, ListRolesInput{})
	require.NoError(t, err)
	for _, v := range list.Roles {
		assert.True(t, v.IsActive, "%s changed by a rejected batch", v.Name)
	}

	_, err = env.svc.BulkUpdate(ctx, env.tenant5, []id.RoleID{env.auditor5.ID}, BulkAction("explode"))
	requireKind(t, err, KindBadRequest)

	_, err = env.svc.BulkUpdate(ctx, env.tenant5, nil, BulkDeactivate)
	requireKind(t, err, KindBadRequest)

	res, err := env.svc.BulkDelete(ctx, env.tenant5, []id.RoleID{env.auditor5.ID, viewer.ID, env.auditor5.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Affected)
	assert.Equal(t, role.StateInactive, res.State)

	res, err = env.svc.BulkUpdate(ctx, env.tenant5, []id.RoleID{env.auditor5.ID, viewer.ID}, BulkActivate)
	require.NoError(t, err)
	assert.Equal(t, role.StateActive, res.State)
}

func TestPermissionsChangedHookFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()

	for _, panics := range []bool{false, true} {
		env := newTestEnv(t)
		env.hook.err = errors.New("hub unavailable")
		env.hook.panic = panics

		_, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
		require.NoError(t, err)

		got := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.export.ID}))
		assert.Equal(t, []string{"reports:export"}, got)
		assert.Len(t, env.hook.calls, 1)
	}
}

func TestCopyRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.read.ID, env.export.ID})
	require.NoError(t, err)

	_, err = env.svc.CopyRole(ctx, env.tenant5, env.auditor5.ID, CopyRoleInput{TargetOrgID: "org_9"})
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrCrossTenantRequired)

	_, err = env.svc.CopyRole(ctx, env.root, env.auditor5.ID, CopyRoleInput{})
	requireKind(t, err, KindBadRequest)

	cp, err := env.svc.CopyRole(ctx, env.root, env.auditor5.ID, CopyRoleInput{TargetOrgID: "org_9"})
	require.NoError(t, err)
	assert.Equal(t, "Auditor", cp.Name)
	assert.Equal(t, "org_9", cp.OrgID)
	assert.False(t, cp.IsSystem)
	assert.False(t, cp.IsGlobal)
	assert.NotEqual(t, env.auditor5.ID.String(), cp.ID.String())

	got := slugsOf(t)(env.svc.GetRolePermissions(ctx, env.root, cp.ID))
	assert.Equal(t, []string{"reports:export", "reports:read"}, got)

	_, err = env.svc.CopyRole(ctx, env.root, env.auditor5.ID, CopyRoleInput{TargetOrgID: "org_9"})
	requireKind(t, err, KindConflict)

	renamed, err := env.svc.CopyRole(ctx, env.root, env.auditor5.ID, CopyRoleInput{TargetOrgID: "org_9", Name: "Auditor (copy)"})
	require.NoError(t, err)
	assert.Equal(t, "Auditor (copy)", renamed.Name)
}

func TestCopyRoleTemplates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignPermissions(ctx, env.root, env.global.ID, []id.PermissionID{env.read.ID})
	require.NoError(t, err)

	_, err = env.svc.CopyRoleTemplates(ctx, env.tenant5, "org_9")
	requireKind(t, err, KindForbidden)

	created, err := env.svc.CopyRoleTemplates(ctx, env.root, "org_9")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "Admin", created[0].Name)
	assert.Equal(t, "org_9", created[0].OrgID)
	assert.False(t, created[0].IsGlobal)

	got := slugsOf(t)(env.svc.GetRolePermissions(ctx, env.root, created[0].ID))
	assert.Equal(t, []string{"reports:read"}, got)

	again, err := env.svc.CopyRoleTemplates(ctx, env.root, "org_9")
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestGetRoleHierarchy(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	h, err := env.svc.GetRoleHierarchy(ctx, env.tenant5)
	require.NoError(t, err)
	assert.Empty(t, h.System)
	require.Len(t, h.Global, 1)
	assert.Equal(t, "Admin", h.Global[0].Name)
	require.Len(t, h.Organization, 1)
	assert.Equal(t, env.auditor5.ID.String(), h.Organization[0].ID.String())

	h, err = env.svc.GetRoleHierarchy(ctx, env.root)
	require.NoError(t, err)
	require.Len(t, h.System, 1)
	assert.Equal(t, "platform-admin", h.System[0].Name)
	assert.Empty(t, h.Organization)
}

func TestPermissionCatalog(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	admin := &scope.Actor{UserID: "erin", OrgID: "org_5", Permissions: []string{"permissions:manage"}}

	_, err := env.svc.CreatePermission(ctx, env.tenant5, CreatePermissionInput{Slug: "billing:read"})
	requireKind(t, err, KindForbidden)
	assert.ErrorIs(t, err, ErrCatalogAdminRequired)

	p, err := env.svc.CreatePermission(ctx, admin, CreatePermissionInput{Slug: "billing:read", Category: "billing"})
	require.NoError(t, err)
	assert.Equal(t, "billing:read", p.Name)

	_, err = env.svc.CreatePermission(ctx, admin, CreatePermissionInput{Slug: "billing:read"})
	requireKind(t, err, KindConflict)

	_, err = env.svc.CreatePermission(ctx, admin, CreatePermissionInput{Slug: "billing"})
	requireKind(t, err, KindBadRequest)

	_, err = env.svc.CreatePermission(ctx, admin, CreatePermissionInput{Slug: "platform:reboot", Category: "system"})
	requireKind(t, err, KindForbidden)

	list, err := env.svc.ListPermissions(ctx, env.tenant5, PermissionQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), list.Total)
	for _, p := range list.Permissions {
		assert.NotEqual(t, "system", p.Category)
	}

	list, err = env.svc.ListPermissions(ctx, env.root, PermissionQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), list.Total)

	_, err = env.svc.GetPermission(ctx, env.tenant5, env.maintenance.ID)
	requireKind(t, err, KindNotFound)

	groups, err := env.svc.ListPermissionsByCategory(ctx, env.tenant5)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "billing", groups[0].Category)
	assert.Equal(t, "reports", groups[1].Category)
	assert.Len(t, groups[1].Permissions, 4)

	removed, err := env.svc.DeletePermission(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.False(t, removed.IsActive)

	_, err = env.svc.ResolvePermissionSlugs(ctx, []string{"reports:read", "billing:read"})
	e := requireKind(t, err, KindBadRequest)
	assert.Equal(t, []string{"billing:read"}, e.Meta["slugs"])
}

func TestAssignUserRole(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	ur, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	require.NoError(t, err)
	assert.Equal(t, "org_5", ur.OrgID)
	assert.Equal(t, "alice", ur.AssignedBy)

	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	requireKind(t, err, KindConflict)
	assert.ErrorIs(t, err, ErrDuplicateAssignment)

	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor7.ID})
	requireKind(t, err, KindNotFound)

	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.system.ID})
	requireKind(t, err, KindForbidden)

	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{RoleID: env.auditor5.ID})
	requireKind(t, err, KindBadRequest)

	off, err := env.svc.DeactivateUserRole(ctx, env.tenant5, "bob", env.auditor5.ID, "")
	require.NoError(t, err)
	assert.False(t, off.IsActive)

	again, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	require.NoError(t, err)
	assert.True(t, again.IsActive)
	assert.Equal(t, ur.ID.String(), again.ID.String())

	require.NoError(t, env.svc.UnassignUserRole(ctx, env.tenant5, "bob", env.auditor5.ID, ""))
	err = env.svc.UnassignUserRole(ctx, env.tenant5, "bob", env.auditor5.ID, "")
	requireKind(t, err, KindNotFound)

	_, err = env.svc.DeleteRole(ctx, env.tenant5, env.auditor5.ID, false)
	require.NoError(t, err)
	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	requireKind(t, err, KindBadRequest)
}

func TestListUserRoles_TenantPinned(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor5.ID})
	require.NoError(t, err)
	_, err = env.svc.AssignUserRole(ctx, env.tenant7, AssignUserRoleInput{UserID: "bob", RoleID: env.auditor7.ID})
	require.NoError(t, err)

	org7 := "org_7"
	list, err := env.svc.ListUserRoles(ctx, env.tenant5, ListUserRolesInput{UserID: "bob", OrgID: &org7})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "org_5", list[0].OrgID)

	list, err = env.svc.ListUserRoles(ctx, env.root, ListUserRolesInput{UserID: "bob"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestUserPermissionsAndResolveActor(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{env.export.ID})
	require.NoError(t, err)
	_, err = env.svc.AssignPermissions(ctx, env.root, env.global.ID, []id.PermissionID{env.read.ID})
	require.NoError(t, err)
	_, err = env.svc.AssignPermissions(ctx, env.root, env.system.ID, []id.PermissionID{env.maintenance.ID})
	require.NoError(t, err)

	for _, rid := range []id.RoleID{env.auditor5.ID, env.global.ID} {
		_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: rid})
		require.NoError(t, err)
	}
	_, err = env.svc.AssignUserRole(ctx, env.root, AssignUserRoleInput{UserID: "ops", RoleID: env.system.ID})
	require.NoError(t, err)

	eff, err := env.svc.UserPermissions(ctx, "bob", "org_5")
	require.NoError(t, err)
	assert.Equal(t, []string{"reports:export", "reports:read"}, eff.Permissions)
	assert.False(t, eff.IsSystemUser)

	eff, err = env.svc.UserPermissions(ctx, "bob", "org_7")
	require.NoError(t, err)
	assert.Empty(t, eff.Permissions)

	eff, err = env.svc.UserPermissions(ctx, "ops", "org_5")
	require.NoError(t, err)
	assert.True(t, eff.IsSystemUser)
	assert.Equal(t, []string{"platform:maintain"}, eff.Permissions)

	actor, err := env.svc.ResolveActor(WithActor(ctx, env.tenant7))
	require.NoError(t, err)
	assert.Equal(t, "carol", actor.UserID)
}

func TestGetRoleUserStats(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	for _, user := range []string{"bob", "dave"} {
		_, err := env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: user, RoleID: env.auditor5.ID})
		require.NoError(t, err)
	}
	_, err := env.svc.DeactivateUserRole(ctx, env.tenant5, "dave", env.auditor5.ID, "")
	require.NoError(t, err)

	stats, err := env.svc.GetRoleUserStats(ctx, env.tenant5, env.auditor5.ID)
	require.NoError(t, err)
	assert.Equal(t, "org_5", stats.OrgID)
	assert.Equal(t, int64(1), stats.ActiveUsers)

	_, err = env.svc.GetRoleUserStats(ctx, env.tenant7, env.auditor5.ID)
	requireKind(t, err, KindNotFound)
}

func TestPartialConfigKeepsCatalogVisible(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, WithConfig(Config{CrossTenantSlug: "platform:*"}))
	assert.Equal(t, DefaultConfig().SystemCategory, env.svc.Config().SystemCategory)

	billing := &permission.Permission{ID: id.NewPermissionID(), Slug: "billing:read", Name: "billing:read", IsActive: true}
	require.NoError(t, env.store.CreatePermission(ctx, billing))

	got, err := env.svc.GetPermission(ctx, env.tenant5, billing.ID)
	require.NoError(t, err)
	assert.Equal(t, "billing:read", got.Slug)

	slugs := slugsOf(t)(env.svc.AssignPermissions(ctx, env.tenant5, env.auditor5.ID, []id.PermissionID{billing.ID}))
	assert.Equal(t, []string{"billing:read"}, slugs)

	_, err = env.svc.GetPermission(ctx, env.tenant5, env.maintenance.ID)
	requireKind(t, err, KindNotFound)
}

func TestCrossTenantSlugPattern(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, WithConfig(Config{CrossTenantSlug: "platform:*"}))
	support := &scope.Actor{UserID: "sam", OrgID: "org_5", Permissions: []string{"platform:support"}}

	d := env.svc.Resolve(support, scope.Request{})
	assert.True(t, d.CrossTenant)
	assert.False(t, d.CanManageSystemRoles)

	created, err := env.svc.CopyRoleTemplates(ctx, support, "org_9")
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "org_9", created[0].OrgID)

	_, err = env.svc.CopyRoleTemplates(ctx, env.tenant5, "org_9")
	requireKind(t, err, KindForbidden)
}

func TestBulkDelete_NotifiesFormerHolders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	viewer, err := env.svc.CreateRole(ctx, env.tenant5, CreateRoleInput{Name: "Viewer"})
	require.NoError(t, err)
	_, err = env.svc.AssignUserRole(ctx, env.tenant5, AssignUserRoleInput{UserID: "bob", RoleID: viewer.ID})
	require.NoError(t, err)

	env.hook.mu.Lock()
	env.hook.calls = nil
	env.hook.mu.Unlock()

	res, err := env.svc.BulkDelete(ctx, env.root, []id.RoleID{env.auditor5.ID, viewer.ID}, true)
	require.NoError(t, err)
	assert.Equal(t, role.StatePurged, res.State)

	env.hook.mu.Lock()
	defer env.hook.mu.Unlock()
	require.Len(t, env.hook.calls, 1)
	assert.Equal(t, viewer.ID.String(), env.hook.calls[0].roleID.String())
	assert.Equal(t, []string{"bob"}, env.hook.calls[0].userIDs)
}
