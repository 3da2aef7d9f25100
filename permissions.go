package rampart

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store"
)

// PermissionQuery filters catalog reads.
type PermissionQuery struct {
	Category        string `json:"category,omitempty"`
	Search          string `json:"search,omitempty"`
	IncludeInactive bool   `json:"include_inactive,omitempty"`
	Limit           int    `json:"limit,omitempty"`
	Offset          int    `json:"offset,omitempty"`
}

// PermissionList is a page of catalog entries.
type PermissionList struct {
	Permissions []*permission.Permission `json:"permissions"`
	Total       int64                    `json:"total"`
	Limit       int                      `json:"limit"`
	Offset      int                      `json:"offset"`
}

// CategoryGroup is the catalog entries of one category.
type CategoryGroup struct {
	Category    string                   `json:"category"`
	Permissions []*permission.Permission `json:"permissions"`
}

// CreatePermissionInput describes a new catalog entry.
type CreatePermissionInput struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// UpdatePermissionInput carries partial catalog changes. The slug is
// immutable.
type UpdatePermissionInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// permissionVisible hides the system category from actors that cannot
// view system roles.
func (s *Service) permissionVisible(d scope.Decision, p *permission.Permission) bool {
	return d.CanViewSystemRoles || s.config.SystemCategory == "" || p.Category != s.config.SystemCategory
}

// catalogFilter builds the store filter for actor, hiding the system
// category and inactive entries as needed.
func (s *Service) catalogFilter(actor *scope.Actor, d scope.Decision, q PermissionQuery, paged bool) (*permission.ListFilter, bool) {
	f := &permission.ListFilter{
		Category:        strings.TrimSpace(q.Category),
		Search:          strings.TrimSpace(q.Search),
		IncludeInactive: q.IncludeInactive && s.isCatalogAdmin(actor, d),
	}
	if paged {
		f.Limit = s.config.pageSize(q.Limit)
		f.Offset = max(q.Offset, 0)
	}
	if !d.CanViewSystemRoles && s.config.SystemCategory != "" {
		if f.Category == s.config.SystemCategory {
			return f, false
		}
		f.ExcludeCategory = []string{s.config.SystemCategory}
	}
	return f, true
}

func (s *Service) isCatalogAdmin(actor *scope.Actor, d scope.Decision) bool {
	return d.CanManageSystemRoles || actor.Has(s.config.CatalogAdminSlug)
}

// ListPermissions returns the catalog ordered by category then slug.
func (s *Service) ListPermissions(ctx context.Context, actor *scope.Actor, q PermissionQuery) (*PermissionList, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	f, ok := s.catalogFilter(actor, d, q, true)
	out := &PermissionList{Permissions: []*permission.Permission{}, Limit: f.Limit, Offset: f.Offset}
	if !ok {
		return out, nil
	}
	perms, err := s.store.ListPermissions(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "list permissions", err)
	}
	total, err := s.store.CountPermissions(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "count permissions", err)
	}
	out.Permissions, out.Total = perms, total
	return out, nil
}

// ListPermissionsByCategory returns all active catalog entries grouped by
// category, categories in name order.
func (s *Service) ListPermissionsByCategory(ctx context.Context, actor *scope.Actor) ([]*CategoryGroup, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	f, _ := s.catalogFilter(actor, d, PermissionQuery{}, false)
	perms, err := s.store.ListPermissions(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "list permissions", err)
	}
	groups := make([]*CategoryGroup, 0)
	for _, p := range perms {
		if n := len(groups); n == 0 || groups[n-1].Category != p.Category {
			groups = append(groups, &CategoryGroup{Category: p.Category})
		}
		g := groups[len(groups)-1]
		g.Permissions = append(g.Permissions, p)
	}
	return groups, nil
}

// ListPermissionsWithUsage returns catalog entries with the roles visible
// to actor that hold each one.
func (s *Service) ListPermissionsWithUsage(ctx context.Context, actor *scope.Actor, q PermissionQuery) ([]*permission.Usage, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	f, ok := s.catalogFilter(actor, d, q, true)
	if !ok {
		return []*permission.Usage{}, nil
	}
	usage, err := s.store.ListPermissionUsage(ctx, d.Scope, f)
	if err != nil {
		return nil, s.internal(ctx, "list permission usage", err, slog.String("org_id", d.OrgID))
	}
	return usage, nil
}

// ListPermissionCategories aggregates active catalog entries by category.
func (s *Service) ListPermissionCategories(ctx context.Context, actor *scope.Actor) ([]permission.Category, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	f, _ := s.catalogFilter(actor, d, PermissionQuery{}, false)
	cats, err := s.store.ListCategories(ctx, f)
	if err != nil {
		return nil, s.internal(ctx, "list permission categories", err)
	}
	return cats, nil
}

// GetPermission returns a catalog entry. Hidden entries are NOT_FOUND.
func (s *Service) GetPermission(ctx context.Context, actor *scope.Actor, permID id.PermissionID) (*permission.Permission, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	p, err := s.store.GetPermission(ctx, permID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("permission %s not found", permID)
		}
		return nil, s.internal(ctx, "get permission", err, slog.String("permission_id", permID.String()))
	}
	if !s.permissionVisible(d, p) {
		return nil, notFound("permission %s not found", permID)
	}
	return p, nil
}

// GetPermissionBySlug returns a catalog entry by slug, through the cache
// when one is configured. Hidden entries are NOT_FOUND.
func (s *Service) GetPermissionBySlug(ctx context.Context, actor *scope.Actor, slug string) (*permission.Permission, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	p, err := s.permissionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !s.permissionVisible(d, p) {
		return nil, notFound("permission %q not found", slug)
	}
	return p, nil
}

func (s *Service) permissionBySlug(ctx context.Context, slug string) (*permission.Permission, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, slug); ok {
			return p, nil
		}
	}
	p, err := s.store.GetPermissionBySlug(ctx, slug)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("permission %q not found", slug)
		}
		return nil, s.internal(ctx, "get permission by slug", err, slog.String("slug", slug))
	}
	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p, nil
}

// ResolvePermissionSlugs maps slugs to active catalog IDs. Unknown or
// inactive slugs are a BAD_REQUEST naming them.
func (s *Service) ResolvePermissionSlugs(ctx context.Context, slugs []string) ([]id.PermissionID, error) {
	out := make([]id.PermissionID, 0, len(slugs))
	var unknown []string
	for _, slug := range slugs {
		p, err := s.permissionBySlug(ctx, strings.TrimSpace(slug))
		if err != nil {
			if KindOf(err) == KindNotFound {
				unknown = append(unknown, slug)
				continue
			}
			return nil, err
		}
		if !p.IsActive {
			unknown = append(unknown, slug)
			continue
		}
		out = append(out, p.ID)
	}
	if len(unknown) > 0 {
		return nil, badRequest("unknown permissions: %s", strings.Join(unknown, ", ")).with("slugs", unknown)
	}
	return out, nil
}

// CreatePermission adds a catalog entry. Requires catalog administration;
// the system category requires system capability.
func (s *Service) CreatePermission(ctx context.Context, actor *scope.Actor, in CreatePermissionInput) (*permission.Permission, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	if !s.isCatalogAdmin(actor, d) {
		return nil, forbidden(ErrCatalogAdminRequired, "permission catalog administration required")
	}
	slug := strings.TrimSpace(in.Slug)
	if err := permission.ValidateSlug(slug); err != nil {
		return nil, newError(KindBadRequest, err, "invalid slug %q", slug)
	}
	category := strings.TrimSpace(in.Category)
	if category == s.config.SystemCategory && !d.CanManageSystemRoles {
		return nil, forbidden(ErrCatalogAdminRequired, "the %q category is reserved", category)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = slug
	}

	now := time.Now().UTC()
	p := &permission.Permission{
		ID:          id.NewPermissionID(),
		Slug:        slug,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Category:    category,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.store.GetPermissionBySlug(ctx, slug); err == nil {
		return nil, conflict(ErrDuplicatePermission, "permission %q already exists", slug)
	} else if !store.IsNotFound(err) {
		return nil, s.internal(ctx, "get permission by slug", err, slog.String("slug", slug))
	}
	if err := s.store.CreatePermission(ctx, p); err != nil {
		if store.IsConflict(err) {
			return nil, conflict(ErrDuplicatePermission, "permission %q already exists", slug)
		}
		return nil, s.internal(ctx, "create permission", err, slog.String("slug", slug))
	}

	if s.plugins != nil {
		s.plugins.EmitPermissionCreated(ctx, p)
	}
	return p, nil
}

// UpdatePermission applies partial changes to a catalog entry.
func (s *Service) UpdatePermission(ctx context.Context, actor *scope.Actor, permID id.PermissionID, in UpdatePermissionInput) (*permission.Permission, error) {
	d := s.resolver.Resolve(actor, scope.Request{})
	if !s.isCatalogAdmin(actor, d) {
		return nil, forbidden(ErrCatalogAdminRequired, "permission catalog administration required")
	}
	p, err := s.GetPermission(ctx, actor, permID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if name := strings.TrimSpace(*in.Name); name != "" {
			p.Name = name
		}
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Category != nil {
		category := strings.TrimSpace(*in.Category)
		if category == s.config.SystemCategory && !d.CanManageSystemRoles {
			return nil, forbidden(ErrCatalogAdminRequired, "the %q category is reserved", category)
		}
		p.Category = category
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return s.savePermission(ctx, p)
}

// DeletePermission deactivates a catalog entry. Existing links stay but
// inactive entries drop out of every effective permission set.
func (s *Service) DeletePermission(ctx context.Context, actor *scope.Actor, permID id.PermissionID) (*permission.Permission, error) {
	inactive := false
	return s.UpdatePermission(ctx, actor, permID, UpdatePermissionInput{IsActive: &inactive})
}

func (s *Service) savePermission(ctx context.Context, p *permission.Permission) (*permission.Permission, error) {
	p.UpdatedAt = time.Now().UTC()
	if err := s.store.UpdatePermission(ctx, p); err != nil {
		if store.IsNotFound(err) {
			return nil, notFound("permission %s not found", p.ID)
		}
		return nil, s.internal(ctx, "update permission", err, slog.String("permission_id", p.ID.String()))
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, p.Slug)
	}
	if s.plugins != nil {
		s.plugins.EmitPermissionUpdated(ctx, p)
	}
	return p, nil
}
