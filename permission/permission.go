// Package permission defines the global permission catalog entity, the
// read/update/delete cascade between operations on the same resource, and
// the catalog store interface.
package permission

import (
	"errors"
	"strings"
	"time"

	"github.com/xraph/rampart/id"
)

// ErrInvalidSlug is returned for slugs not of the form "resource:operation".
var ErrInvalidSlug = errors.New("permission: slug must have the form resource:operation")

// Permission is a catalog entry. Permissions are not org-scoped.
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Slug        string          `json:"slug" db:"slug"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Category    string          `json:"category,omitempty" db:"category"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Resource returns the part of the slug before the colon.
func (p *Permission) Resource() string {
	res, _, _ := SplitSlug(p.Slug)
	return res
}

// Operation returns the part of the slug after the colon.
func (p *Permission) Operation() string {
	_, op, _ := SplitSlug(p.Slug)
	return op
}

// SplitSlug splits "resource:operation".
func SplitSlug(slug string) (resource, operation string, ok bool) {
	resource, operation, ok = strings.Cut(slug, ":")
	if !ok || resource == "" || operation == "" || strings.Contains(operation, ":") {
		return "", "", false
	}
	return resource, operation, true
}

// ValidateSlug checks the "resource:operation" convention.
func ValidateSlug(slug string) error {
	if _, _, ok := SplitSlug(slug); !ok {
		return ErrInvalidSlug
	}
	if strings.ContainsAny(slug, " \t\n") {
		return ErrInvalidSlug
	}
	return nil
}

// ListFilter contains filters for listing catalog entries.
type ListFilter struct {
	Category        string   `json:"category,omitempty"`
	Search          string   `json:"search,omitempty"`
	IncludeInactive bool     `json:"include_inactive,omitempty"`
	ExcludeCategory []string `json:"exclude_category,omitempty"`
	Limit           int      `json:"limit,omitempty"`
	Offset          int      `json:"offset,omitempty"`
}

// Category aggregates catalog entries by category.
type Category struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RoleRef is a compact reference to a role holding a permission.
type RoleRef struct {
	ID    id.RoleID `json:"id"`
	Name  string    `json:"name"`
	OrgID string    `json:"org_id,omitempty"`
}

// Usage reports which roles reference a permission.
type Usage struct {
	Permission *Permission `json:"permission"`
	RoleCount  int         `json:"role_count"`
	Roles      []RoleRef   `json:"roles"`
}
