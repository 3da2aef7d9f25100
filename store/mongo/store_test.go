package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// newTestStore connects to RAMPART_TEST_MONGO_URL or skips. Transactions
// need a replica set, so the URL must point at one.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("RAMPART_TEST_MONGO_URL")
	if url == "" {
		t.Skip("RAMPART_TEST_MONGO_URL not set")
	}
	ctx := context.Background()

	mdb := mongodriver.New()
	dbName := "rampart_test_" + id.NewRoleID().String()
	if err := mdb.Open(ctx, url, mongodriver.WithDatabase(dbName)); err != nil {
		t.Skipf("mongo unavailable: %v", err)
	}
	db, err := grove.Open(mdb)
	require.NoError(t, err)

	s := New(db)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() {
		_ = mdb.Database().Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func linkSet(t *testing.T, s *Store, roleID id.RoleID, orgID string) []string {
	t.Helper()
	links, err := s.ListRolePermissions(context.Background(), []id.RoleID{roleID}, orgID)
	require.NoError(t, err)
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.PermissionID.String())
	}
	return out
}

func TestSetRolePermissionsReplacesAtomically(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := &role.Role{ID: id.NewRoleID(), Name: "Auditor", OrgID: "org_5", IsActive: true}
	require.NoError(t, s.CreateRole(ctx, r))

	read, update := id.NewPermissionID(), id.NewPermissionID()
	require.NoError(t, s.SetRolePermissions(ctx, r.ID, "org_5", []id.PermissionID{read}))
	assert.Equal(t, []string{read.String()}, linkSet(t, s, r.ID, "org_5"))

	// A duplicate in the batch violates the unique link index, so the
	// transaction aborts and the earlier links survive.
	err := s.SetRolePermissions(ctx, r.ID, "org_5", []id.PermissionID{update, update})
	require.Error(t, err)
	assert.Equal(t, []string{read.String()}, linkSet(t, s, r.ID, "org_5"))

	require.NoError(t, s.SetRolePermissions(ctx, r.ID, "org_5", []id.PermissionID{update}))
	assert.Equal(t, []string{update.String()}, linkSet(t, s, r.ID, "org_5"))
}

func TestDeleteRolesPurgesLinksAndAssignments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	r := &role.Role{ID: id.NewRoleID(), Name: "Editor", OrgID: "org_5", IsActive: true}
	require.NoError(t, s.CreateRole(ctx, r))
	require.NoError(t, s.SetRolePermissions(ctx, r.ID, "org_5", []id.PermissionID{id.NewPermissionID()}))
	require.NoError(t, s.CreateUserRole(ctx, &assignment.UserRole{
		ID: id.NewUserRoleID(), UserID: "bob", RoleID: r.ID, OrgID: "org_5", IsActive: true,
	}))

	require.NoError(t, s.DeleteRoles(ctx, []id.RoleID{r.ID}))

	_, err := s.GetRole(ctx, role.Unscoped, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, linkSet(t, s, r.ID, "org_5"))
	n, err := s.CountActiveUsers(ctx, r.ID, "org_5")
	require.NoError(t, err)
	assert.Zero(t, n)
}
