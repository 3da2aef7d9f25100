// Package rampart provides multi-tenant role-based access control for Go.
//
// Organizations own roles, roles hold permissions from a global catalog, and
// users are assigned roles within an organization. System roles and global
// role templates live outside any organization; system roles stay invisible
// and immutable to tenant actors.
//
// Every operation goes through the Service, which resolves the calling actor
// into a visibility scope, runs the scoped store query and enforces the role
// invariants:
//
//	svc, err := rampart.NewService(
//	    rampart.WithStore(memory.New()),
//	)
//	actor := &scope.Actor{UserID: "u1", OrgID: "org_5", Permissions: []string{"roles:*"}}
//	r, err := svc.CreateRole(ctx, actor, rampart.CreateRoleInput{Name: "Auditor"})
package rampart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/role"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store"
)

// PermissionsChangedFunc receives the role whose permission set changed and
// the users actively holding it. Its error is logged and dropped.
type PermissionsChangedFunc func(ctx context.Context, roleID id.RoleID, userIDs []string) error

// Service is the role authorization service. All role, permission and
// assignment mutations go through it.
type Service struct {
	store      store.Store
	resolver   *scope.Resolver
	capability scope.Capability
	cache      Cache
	plugins    *plugin.Registry
	logger     *slog.Logger
	config     Config

	onPermissionsChanged PermissionsChangedFunc
}

// NewService creates a new rampart Service with the given options.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		return nil, ErrStoreRequired
	}
	if s.config.FullAccessSlug == "" {
		s.config.FullAccessSlug = scope.DefaultFullAccessSlug
	}
	if s.config.CatalogAdminSlug == "" {
		s.config.CatalogAdminSlug = DefaultConfig().CatalogAdminSlug
	}
	if s.config.SystemCategory == "" {
		s.config.SystemCategory = DefaultConfig().SystemCategory
	}
	ropts := []scope.Option{
		scope.WithFullAccessSlug(s.config.FullAccessSlug),
		scope.WithCrossTenantSlug(s.config.CrossTenantSlug),
	}
	if s.capability != nil {
		ropts = append(ropts, scope.WithCapability(s.capability))
	}
	s.resolver = scope.NewResolver(ropts...)
	if s.plugins != nil {
		s.plugins.SetLogger(s.logger)
	}
	return s, nil
}

// Store returns the underlying composite store.
func (s *Service) Store() store.Store { return s.store }

// Resolver returns the access scope resolver.
func (s *Service) Resolver() *scope.Resolver { return s.resolver }

// Plugins returns the plugin registry (may be nil).
func (s *Service) Plugins() *plugin.Registry { return s.plugins }

// Config returns the active configuration.
func (s *Service) Config() Config { return s.config }

// Start performs any startup initialization.
func (s *Service) Start(_ context.Context) error { return nil }

// Stop notifies plugins of shutdown.
func (s *Service) Stop(ctx context.Context) error {
	if s.plugins != nil {
		s.plugins.EmitShutdown(ctx)
	}
	return nil
}

// Resolve computes the visibility decision for actor and req.
func (s *Service) Resolve(actor *scope.Actor, req scope.Request) scope.Decision {
	return s.resolver.Resolve(actor, req)
}

// internal logs a storage failure and wraps it as INTERNAL_ERROR. The
// returned message never carries the cause.
func (s *Service) internal(ctx context.Context, op string, err error, attrs ...slog.Attr) *Error {
	attrs = append([]slog.Attr{
		slog.String("op", op),
		slog.String("error", err.Error()),
	}, attrs...)
	s.logger.LogAttrs(ctx, slog.LevelError, "rampart: storage failure", attrs...)
	return newError(KindInternal, err, "rampart: %s failed", op)
}

// loadRole fetches a role visible under sc. Missing and out-of-scope roles
// both surface as NOT_FOUND.
func (s *Service) loadRole(ctx context.Context, sc role.Scope, roleID id.RoleID, op string) (*role.Role, error) {
	r, err := s.store.GetRole(ctx, sc, roleID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("role %s not found", roleID)
		}
		return nil, s.internal(ctx, op, err, slog.String("role_id", roleID.String()))
	}
	return r, nil
}

// guardMutation rejects mutations of system roles by actors without
// system capability, and of global roles by tenant actors.
func (s *Service) guardMutation(d scope.Decision, r *role.Role) error {
	if !d.CanManage(r) {
		return forbidden(ErrSystemRoleImmutable, "role %q is a system role", r.Name)
	}
	if r.IsGlobal && !d.CrossTenant {
		return forbidden(ErrGlobalRoleImmutable, "role %q is a global role", r.Name)
	}
	return nil
}

// linkOrg returns the org that permission links of r are written under and
// read for. Org roles always use their own org. Global and system roles use
// the decision's org: empty for platform actors (shared grants), the
// tenant's org for tenant customizations.
func linkOrg(r *role.Role, d scope.Decision) string {
	if r.OrgScoped() {
		return r.OrgID
	}
	return d.OrgID
}

// notifyPermissionsChanged fans out a permission change to the configured
// hook and plugins. Failures never reach the caller.
func (s *Service) notifyPermissionsChanged(ctx context.Context, r *role.Role, orgID string) {
	if s.onPermissionsChanged == nil && s.plugins == nil {
		return
	}
	userIDs, err := s.store.ListActiveUserIDs(ctx, r.ID, orgID)
	if err != nil {
		s.logger.Warn("rampart: list users for permission change",
			slog.String("role_id", r.ID.String()),
			slog.String("org_id", orgID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.emitPermissionsChanged(ctx, r.ID, userIDs)
}

func (s *Service) emitPermissionsChanged(ctx context.Context, roleID id.RoleID, userIDs []string) {
	if s.onPermissionsChanged != nil {
		if err := s.callPermissionsChanged(ctx, roleID, userIDs); err != nil {
			s.logger.Warn("rampart: permissions changed hook",
				slog.String("role_id", roleID.String()),
				slog.Int("users", len(userIDs)),
				slog.String("error", err.Error()),
			)
		}
	}
	if s.plugins != nil {
		s.plugins.EmitPermissionsChanged(ctx, roleID, userIDs)
	}
}

func (s *Service) callPermissionsChanged(ctx context.Context, roleID id.RoleID, userIDs []string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return s.onPermissionsChanged(ctx, roleID, userIDs)
}
