// Package mongo provides a MongoDB implementation of the rampart composite
// store using grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Collection name constants.
const (
	colRoles           = "rampart_roles"
	colPermissions     = "rampart_permissions"
	colRolePermissions = "rampart_role_permissions"
	colUserRoles       = "rampart_user_roles"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite rampart store.
//
// Multi-document writes run inside a session transaction, which requires a
// replica set or sharded cluster.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all rampart collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}
		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("rampart/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// wrapWrite maps duplicate key errors to store.ErrConflict.
func wrapWrite(op string, err error) error {
	if mongod.IsDuplicateKeyError(err) {
		return fmt.Errorf("rampart: %s: %w", op, store.ErrConflict)
	}
	return fmt.Errorf("rampart: %s: %w", op, err)
}

// migrationIndexes returns the index definitions for all rampart collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "org_id", Value: 1}, {Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "is_system", Value: 1}, {Key: "is_global", Value: 1}}},
		},
		colPermissions: {
			{
				Keys:    bson.D{{Key: "slug", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "slug", Value: 1}}},
		},
		colRolePermissions: {
			{
				Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}, {Key: "org_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colUserRoles: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "org_id", Value: 1}, {Key: "role_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}, {Key: "is_active", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		return wrapWrite("create role", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, sc role.Scope, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	conds := append([]bson.M{{"_id": roleID.String()}}, scopeConds(sc)...)
	err := s.mdb.NewFind(&m).Filter(and(conds)).Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoles(ctx context.Context, sc role.Scope, roleIDs []id.RoleID) ([]*role.Role, error) {
	if len(roleIDs) == 0 {
		return []*role.Role{}, nil
	}
	var models []roleModel
	conds := append([]bson.M{{"_id": bson.M{"$in": id.Strings(roleIDs)}}}, scopeConds(sc)...)
	if err := s.mdb.NewFind(&models).
		Filter(and(conds)).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: get roles: %w", err)
	}
	return rolesFromModels(models), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = now()
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return wrapWrite("update role", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRolesActive(ctx context.Context, roleIDs []id.RoleID, active bool) (int64, error) {
	if len(roleIDs) == 0 {
		return 0, nil
	}
	res, err := s.mdb.Collection(colRoles).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": id.Strings(roleIDs)}},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("rampart: set roles active: %w", err)
	}
	return res.MatchedCount, nil
}

func (s *Store) DeleteRoles(ctx context.Context, roleIDs []id.RoleID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	in := bson.M{"$in": id.Strings(roleIDs)}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": in}).
		Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete role permissions: %w", err)
	}
	if _, err := tx.NewDelete((*userRoleModel)(nil)).
		Many().
		Filter(bson.M{"role_id": in}).
		Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete role assignments: %w", err)
	}
	if _, err := tx.NewDelete((*roleModel)(nil)).
		Many().
		Filter(bson.M{"_id": in}).
		Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete roles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, sc role.Scope, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.mdb.NewFind(&models).
		Filter(roleFilter(sc, filter)).
		Sort(roleSort(filter))
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list roles: %w", err)
	}
	return rolesFromModels(models), nil
}

func (s *Store) CountRoles(ctx context.Context, sc role.Scope, filter *role.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(roleFilter(sc, filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) RoleNameExists(ctx context.Context, name, orgID string, excludeID id.RoleID) (bool, error) {
	f := bson.M{"name": name, "org_id": orgID}
	if !excludeID.IsNil() {
		f["_id"] = bson.M{"$ne": excludeID.String()}
	}
	count, err := s.mdb.NewFind((*roleModel)(nil)).Filter(f).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("rampart: role name exists: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListRolePermissions(ctx context.Context, roleIDs []id.RoleID, orgID string) ([]*role.PermissionLink, error) {
	models, err := s.visibleLinks(ctx, roleIDs, orgID)
	if err != nil {
		return nil, fmt.Errorf("rampart: list role permissions: %w", err)
	}
	result := make([]*role.PermissionLink, 0, len(models))
	for i := range models {
		if l, ok := linkFromModel(&models[i]); ok {
			result = append(result, l)
		}
	}
	return result, nil
}

func (s *Store) CountRolePermissions(ctx context.Context, roleIDs []id.RoleID, orgID string) (map[string]int, error) {
	models, err := s.visibleLinks(ctx, roleIDs, orgID)
	if err != nil {
		return nil, fmt.Errorf("rampart: count role permissions: %w", err)
	}
	return store.CountDistinctLinks(models, func(m rolePermissionModel) (string, string) {
		return m.RoleID, m.PermissionID
	}), nil
}

func (s *Store) visibleLinks(ctx context.Context, roleIDs []id.RoleID, orgID string) ([]rolePermissionModel, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var models []rolePermissionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": bson.M{"$in": id.Strings(roleIDs)}, "org_id": orgIn(orgID)}).
		Sort(bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}, {Key: "org_id", Value: 1}}).
		Scan(ctx)
	return models, err
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String(), "org_id": orgID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: clear role permissions: %w", err)
	}

	if len(permIDs) > 0 {
		models := make([]rolePermissionModel, len(permIDs))
		for i, pid := range permIDs {
			models[i] = rolePermissionModel{
				RoleID:       roleID.String(),
				PermissionID: pid.String(),
				OrgID:        orgID,
			}
		}
		if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
			return wrapWrite("set role permissions", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

// beginTx starts a session transaction on the underlying driver.
func (s *Store) beginTx(ctx context.Context) (*mongodriver.MongoTx, error) {
	raw, err := s.mdb.GroveTx(ctx, 0, false)
	if err != nil {
		return nil, fmt.Errorf("rampart: begin tx: %w", err)
	}
	tx, ok := raw.(*mongodriver.MongoTx)
	if !ok {
		return nil, fmt.Errorf("rampart: begin tx: unexpected transaction type %T", raw)
	}
	return tx, nil
}

func (s *Store) RemoveRolePermissions(ctx context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error {
	if len(permIDs) == 0 {
		return nil
	}
	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{
			"role_id":       roleID.String(),
			"org_id":        orgID,
			"permission_id": bson.M{"$in": id.Strings(permIDs)},
		}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: remove role permissions: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	if _, err := s.mdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		return wrapWrite("create permission", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": permID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissionBySlug(ctx context.Context, slug string) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"slug": slug}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission by slug: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissions(ctx context.Context, permIDs []id.PermissionID) ([]*permission.Permission, error) {
	return s.findPermissions(ctx, bson.M{"_id": bson.M{"$in": id.Strings(permIDs)}}, len(permIDs))
}

func (s *Store) GetPermissionsBySlug(ctx context.Context, slugs []string) ([]*permission.Permission, error) {
	return s.findPermissions(ctx, bson.M{"slug": bson.M{"$in": slugs}}, len(slugs))
}

func (s *Store) findPermissions(ctx context.Context, f bson.M, n int) ([]*permission.Permission, error) {
	if n == 0 {
		return []*permission.Permission{}, nil
	}
	var models []permissionModel
	if err := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "category", Value: 1}, {Key: "slug", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: get permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	p.UpdatedAt = now()
	m := permissionToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return wrapWrite("update permission", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.mdb.NewFind(&models).
		Filter(permissionFilter(filter)).
		Sort(bson.D{{Key: "category", Value: 1}, {Key: "slug", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(permissionFilter(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count permissions: %w", err)
	}
	return count, nil
}

func (s *Store) ListCategories(ctx context.Context, filter *permission.ListFilter) ([]permission.Category, error) {
	var all *permission.ListFilter
	if filter != nil {
		f := *filter
		f.Limit, f.Offset = 0, 0
		all = &f
	}
	perms, err := s.ListPermissions(ctx, all)
	if err != nil {
		return nil, fmt.Errorf("rampart: list categories: %w", err)
	}
	return store.GroupCategories(perms), nil
}

func (s *Store) ListPermissionUsage(ctx context.Context, sc role.Scope, filter *permission.ListFilter) ([]*permission.Usage, error) {
	perms, err := s.ListPermissions(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("rampart: list permission usage: %w", err)
	}
	if len(perms) == 0 {
		return []*permission.Usage{}, nil
	}

	permIDs := make([]string, len(perms))
	for i, p := range perms {
		permIDs[i] = p.ID.String()
	}
	lf := bson.M{"permission_id": bson.M{"$in": permIDs}}
	if sc.Tenant {
		lf["org_id"] = orgIn(sc.TenantOrg)
	}
	var links []rolePermissionModel
	if err := s.mdb.NewFind(&links).Filter(lf).Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list permission usage links: %w", err)
	}

	roleIDs := make([]string, 0, len(links))
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		if _, ok := seen[l.RoleID]; !ok {
			seen[l.RoleID] = struct{}{}
			roleIDs = append(roleIDs, l.RoleID)
		}
	}
	roles := make(map[string]*role.Role, len(roleIDs))
	if len(roleIDs) > 0 {
		var models []roleModel
		conds := append([]bson.M{{"_id": bson.M{"$in": roleIDs}}}, scopeConds(sc)...)
		if err := s.mdb.NewFind(&models).Filter(and(conds)).Scan(ctx); err != nil {
			return nil, fmt.Errorf("rampart: list permission usage roles: %w", err)
		}
		for i := range models {
			roles[models[i].ID] = roleFromModel(&models[i])
		}
	}

	pairs := make([][2]string, len(links))
	for i, l := range links {
		pairs[i] = [2]string{l.PermissionID, l.RoleID}
	}
	return store.BuildUsage(perms, pairs, roles), nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateUserRole(ctx context.Context, ur *assignment.UserRole) error {
	if ur.AssignedAt.IsZero() {
		ur.AssignedAt = now()
	}
	if _, err := s.mdb.NewInsert(userRoleToModel(ur)).Exec(ctx); err != nil {
		return wrapWrite("create user role", err)
	}
	return nil
}

func (s *Store) GetUserRole(ctx context.Context, userID, orgID string, roleID id.RoleID) (*assignment.UserRole, error) {
	var m userRoleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"user_id": userID, "org_id": orgID, "role_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %s role %s: %w", userID, roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get user role: %w", err)
	}
	return userRoleFromModel(&m), nil
}

func (s *Store) UpdateUserRole(ctx context.Context, ur *assignment.UserRole) error {
	m := userRoleToModel(ur)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: update user role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("user role %s: %w", ur.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteUserRole(ctx context.Context, urID id.UserRoleID) error {
	res, err := s.mdb.NewDelete((*userRoleModel)(nil)).
		Filter(bson.M{"_id": urID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: delete user role: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("user role %s: %w", urID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUserRoles(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.UserRole, error) {
	var models []userRoleModel
	f := bson.M{}
	if filter != nil {
		if filter.UserID != "" {
			f["user_id"] = filter.UserID
		}
		if filter.RoleID != nil {
			f["role_id"] = filter.RoleID.String()
		}
		if filter.OrgID != nil {
			f["org_id"] = *filter.OrgID
		}
		if filter.IsActive != nil {
			f["is_active"] = *filter.IsActive
		}
	}
	q := s.mdb.NewFind(&models).
		Filter(f).
		Sort(bson.D{{Key: "assigned_at", Value: -1}, {Key: "_id", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list user roles: %w", err)
	}
	result := make([]*assignment.UserRole, len(models))
	for i := range models {
		result[i] = userRoleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountActiveUsers(ctx context.Context, roleID id.RoleID, orgID string) (int64, error) {
	count, err := s.mdb.NewFind((*userRoleModel)(nil)).
		Filter(activeFilter([]string{roleID.String()}, orgID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count active users: %w", err)
	}
	return count, nil
}

func (s *Store) ActiveUserCounts(ctx context.Context, roleIDs []id.RoleID, orgID string) (map[string]int, error) {
	models, err := s.activeAssignments(ctx, id.Strings(roleIDs), orgID)
	if err != nil {
		return nil, fmt.Errorf("rampart: active user counts: %w", err)
	}
	counts := make(map[string]int, len(roleIDs))
	for _, m := range models {
		counts[m.RoleID]++
	}
	return counts, nil
}

func (s *Store) ListActiveUserIDs(ctx context.Context, roleID id.RoleID, orgID string) ([]string, error) {
	models, err := s.activeAssignments(ctx, []string{roleID.String()}, orgID)
	if err != nil {
		return nil, fmt.Errorf("rampart: list active user ids: %w", err)
	}
	seen := make(map[string]struct{}, len(models))
	result := make([]string, 0, len(models))
	for _, m := range models {
		if _, ok := seen[m.UserID]; !ok {
			seen[m.UserID] = struct{}{}
			result = append(result, m.UserID)
		}
	}
	sort.Strings(result)
	return result, nil
}

func (s *Store) activeAssignments(ctx context.Context, roleIDs []string, orgID string) ([]userRoleModel, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var models []userRoleModel
	err := s.mdb.NewFind(&models).Filter(activeFilter(roleIDs, orgID)).Scan(ctx)
	return models, err
}

// activeFilter matches active assignments of roleIDs counted in orgID.
func activeFilter(roleIDs []string, orgID string) bson.M {
	f := bson.M{"role_id": bson.M{"$in": roleIDs}, "is_active": true}
	if orgID != "" {
		f["org_id"] = orgIn(orgID)
	}
	return f
}
