// Package postgres provides a PostgreSQL implementation of the rampart
// composite store using grove ORM with Go-based migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/rampart/assignment"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a PostgreSQL implementation of the composite rampart store.
type Store struct {
	db   *grove.DB
	pgdb *pgdriver.PgDB
}

// New creates a new PostgreSQL store.
func New(db *grove.DB) *Store {
	return &Store{
		db:   db,
		pgdb: pgdriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pgdb)
	if err != nil {
		return fmt.Errorf("rampart: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("rampart: migration failed: %w", err)
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

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	_, err := s.pgdb.NewInsert(roleToModel(r)).Exec(ctx)
	if err != nil {
		return wrapWrite("create role", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, sc role.Scope, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	q := s.pgdb.NewSelect(m).Where("id = ?", roleID.String())
	for _, c := range store.ScopeConds(sc, "") {
		q = q.Where(c.Expr, c.Args...)
	}
	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("role %s: %w", roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) GetRoles(ctx context.Context, sc role.Scope, roleIDs []id.RoleID) ([]*role.Role, error) {
	if len(roleIDs) == 0 {
		return []*role.Role{}, nil
	}
	var models []roleModel
	q := s.pgdb.NewSelect(&models).
		Where("id IN (?)", id.Strings(roleIDs)).
		OrderExpr("created_at ASC")
	for _, c := range store.ScopeConds(sc, "") {
		q = q.Where(c.Expr, c.Args...)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: get roles: %w", err)
	}
	return rolesFromModels(models), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := s.pgdb.NewUpdate(roleToModel(r)).WherePK().Exec(ctx)
	if err != nil {
		return wrapWrite("update role", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("role %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRolesActive(ctx context.Context, roleIDs []id.RoleID, active bool) (int64, error) {
	if len(roleIDs) == 0 {
		return 0, nil
	}
	res, err := s.pgdb.NewUpdate((*roleModel)(nil)).
		Set("is_active = ?", active).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id IN (?)", id.Strings(roleIDs)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: set roles active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rampart: set roles active rows: %w", err)
	}
	return n, nil
}

func (s *Store) DeleteRoles(ctx context.Context, roleIDs []id.RoleID) error {
	if len(roleIDs) == 0 {
		return nil
	}
	ids := id.Strings(roleIDs)

	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("rampart: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	if _, err := tx.NewDelete((*rolePermissionModel)(nil)).Where("role_id IN (?)", ids).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete role permissions: %w", err)
	}
	if _, err := tx.NewDelete((*userRoleModel)(nil)).Where("role_id IN (?)", ids).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete role assignments: %w", err)
	}
	if _, err := tx.NewDelete((*roleModel)(nil)).Where("id IN (?)", ids).Exec(ctx); err != nil {
		return fmt.Errorf("rampart: delete roles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) ListRoles(ctx context.Context, sc role.Scope, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	dir := filter.Direction()
	q := s.pgdb.NewSelect(&models).OrderExpr(string(filter.Order()) + " " + dir + ", id " + dir)
	for _, c := range append(store.ScopeConds(sc, ""), store.RoleFilterConds(filter, "")...) {
		q = q.Where(c.Expr, c.Args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list roles: %w", err)
	}
	return rolesFromModels(models), nil
}

func (s *Store) CountRoles(ctx context.Context, sc role.Scope, filter *role.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*roleModel)(nil))
	for _, c := range append(store.ScopeConds(sc, ""), store.RoleFilterConds(filter, "")...) {
		q = q.Where(c.Expr, c.Args...)
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("rampart: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) RoleNameExists(ctx context.Context, name, orgID string, excludeID id.RoleID) (bool, error) {
	q := s.pgdb.NewSelect((*roleModel)(nil)).
		Where("name = ?", name).
		Where("org_id = ?", orgID)
	if !excludeID.IsNil() {
		q = q.Where("id <> ?", excludeID.String())
	}
	count, err := q.Count(ctx)
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

// visibleLinks loads the links of roleIDs granted in orgID or shared.
func (s *Store) visibleLinks(ctx context.Context, roleIDs []id.RoleID, orgID string) ([]rolePermissionModel, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var models []rolePermissionModel
	err := s.pgdb.NewSelect(&models).
		Where("role_id IN (?)", id.Strings(roleIDs)).
		Where("org_id IN (?)", linkOrgs(orgID)).
		OrderExpr("role_id ASC, permission_id ASC, org_id ASC").
		Scan(ctx)
	return models, err
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error {
	tx, err := s.pgdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("rampart: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	_, err = tx.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("org_id = ?", orgID).
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
		_, err = tx.NewInsert(&models).
			OnConflict("(role_id, permission_id, org_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("rampart: set role permissions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rampart: commit tx: %w", err)
	}
	return nil
}

func (s *Store) RemoveRolePermissions(ctx context.Context, roleID id.RoleID, orgID string, permIDs []id.PermissionID) error {
	if len(permIDs) == 0 {
		return nil
	}
	_, err := s.pgdb.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("org_id = ?", orgID).
		Where("permission_id IN (?)", id.Strings(permIDs)).
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
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	_, err := s.pgdb.NewInsert(permissionToModel(p)).Exec(ctx)
	if err != nil {
		return wrapWrite("create permission", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.pgdb.NewSelect(m).Where("id = ?", permID.String()).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission %s: %w", permID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) GetPermissionBySlug(ctx context.Context, slug string) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.pgdb.NewSelect(m).Where("slug = ?", slug).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("permission slug %q: %w", slug, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get permission by slug: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) GetPermissions(ctx context.Context, permIDs []id.PermissionID) ([]*permission.Permission, error) {
	if len(permIDs) == 0 {
		return []*permission.Permission{}, nil
	}
	var models []permissionModel
	err := s.pgdb.NewSelect(&models).
		Where("id IN (?)", id.Strings(permIDs)).
		OrderExpr("category ASC, slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: get permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) GetPermissionsBySlug(ctx context.Context, slugs []string) ([]*permission.Permission, error) {
	if len(slugs) == 0 {
		return []*permission.Permission{}, nil
	}
	var models []permissionModel
	err := s.pgdb.NewSelect(&models).
		Where("slug IN (?)", slugs).
		OrderExpr("category ASC, slug ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("rampart: get permissions by slug: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.pgdb.NewUpdate(permissionToModel(p)).WherePK().Exec(ctx)
	if err != nil {
		return wrapWrite("update permission", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("permission %s: %w", p.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.pgdb.NewSelect(&models).OrderExpr("category ASC, slug ASC")
	for _, c := range store.PermissionFilterConds(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("rampart: list permissions: %w", err)
	}
	return permissionsFromModels(models), nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	q := s.pgdb.NewSelect((*permissionModel)(nil))
	for _, c := range store.PermissionFilterConds(filter) {
		q = q.Where(c.Expr, c.Args...)
	}
	count, err := q.Count(ctx)
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
	var links []rolePermissionModel
	lq := s.pgdb.NewSelect(&links).Where("permission_id IN (?)", permIDs)
	if sc.Tenant {
		lq = lq.Where("org_id IN (?)", linkOrgs(sc.TenantOrg))
	}
	if err := lq.Scan(ctx); err != nil {
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
		rq := s.pgdb.NewSelect(&models).Where("id IN (?)", roleIDs)
		for _, c := range store.ScopeConds(sc, "") {
			rq = rq.Where(c.Expr, c.Args...)
		}
		if err := rq.Scan(ctx); err != nil {
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
		ur.AssignedAt = time.Now().UTC()
	}
	_, err := s.pgdb.NewInsert(userRoleToModel(ur)).Exec(ctx)
	if err != nil {
		return wrapWrite("create user role", err)
	}
	return nil
}

func (s *Store) GetUserRole(ctx context.Context, userID, orgID string, roleID id.RoleID) (*assignment.UserRole, error) {
	m := new(userRoleModel)
	err := s.pgdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("org_id = ?", orgID).
		Where("role_id = ?", roleID.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s role %s: %w", userID, roleID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("rampart: get user role: %w", err)
	}
	return userRoleFromModel(m), nil
}

func (s *Store) UpdateUserRole(ctx context.Context, ur *assignment.UserRole) error {
	res, err := s.pgdb.NewUpdate(userRoleToModel(ur)).WherePK().Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: update user role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user role %s: %w", ur.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteUserRole(ctx context.Context, urID id.UserRoleID) error {
	res, err := s.pgdb.NewDelete((*userRoleModel)(nil)).
		Where("id = ?", urID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("rampart: delete user role: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user role %s: %w", urID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) ListUserRoles(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.UserRole, error) {
	var models []userRoleModel
	q := s.pgdb.NewSelect(&models).OrderExpr("assigned_at DESC, id DESC")
	if filter != nil {
		if filter.UserID != "" {
			q = q.Where("user_id = ?", filter.UserID)
		}
		if filter.RoleID != nil {
			q = q.Where("role_id = ?", filter.RoleID.String())
		}
		if filter.OrgID != nil {
			q = q.Where("org_id = ?", *filter.OrgID)
		}
		if filter.IsActive != nil {
			q = q.Where("is_active = ?", *filter.IsActive)
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
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
	q := s.pgdb.NewSelect((*userRoleModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("is_active = ?", true)
	if orgID != "" {
		q = q.Where("org_id IN (?)", linkOrgs(orgID))
	}
	count, err := q.Count(ctx)
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
	q := s.pgdb.NewSelect(&models).
		Where("role_id IN (?)", roleIDs).
		Where("is_active = ?", true)
	if orgID != "" {
		q = q.Where("org_id IN (?)", linkOrgs(orgID))
	}
	err := q.Scan(ctx)
	return models, err
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// linkOrgs lists the org values visible from orgID: its own and shared.
func linkOrgs(orgID string) []string {
	if orgID == "" {
		return []string{""}
	}
	return []string{"", orgID}
}

// wrapWrite maps unique violations (SQLSTATE 23505) to store.ErrConflict.
func wrapWrite(op string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("rampart: %s: %w", op, store.ErrConflict)
	}
	return fmt.Errorf("rampart: %s: %w", op, err)
}
