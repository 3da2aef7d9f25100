package rampart

// Config holds configuration for the rampart Service.
type Config struct {
	// FullAccessSlug is the permission slug that grants system-role
	// management. Defaults to "*".
	FullAccessSlug string `json:"full_access_slug,omitempty" mapstructure:"full_access_slug" yaml:"full_access_slug"`

	// CrossTenantSlug grants cross-tenant visibility without system-role
	// management. Empty disables it.
	CrossTenantSlug string `json:"cross_tenant_slug,omitempty" mapstructure:"cross_tenant_slug" yaml:"cross_tenant_slug"`

	// CatalogAdminSlug grants permission catalog mutations.
	// Defaults to "permissions:manage".
	CatalogAdminSlug string `json:"catalog_admin_slug,omitempty" mapstructure:"catalog_admin_slug" yaml:"catalog_admin_slug"`

	// SystemCategory names the permission category hidden from actors that
	// cannot view system roles. Defaults to "system".
	SystemCategory string `json:"system_category,omitempty" mapstructure:"system_category" yaml:"system_category"`

	// EnforceCascade closes assigned permission sets under the
	// read < update < delete implication. Defaults to true.
	EnforceCascade *bool `json:"enforce_cascade,omitempty" mapstructure:"enforce_cascade" yaml:"enforce_cascade"`

	// AllowGlobalRoleCustomization lets tenant actors assign org-specific
	// permissions to global roles. Defaults to true.
	AllowGlobalRoleCustomization *bool `json:"allow_global_role_customization,omitempty" mapstructure:"allow_global_role_customization" yaml:"allow_global_role_customization"`

	// DefaultPageSize applies when a list request has no limit. Defaults to 20.
	DefaultPageSize int `json:"default_page_size,omitempty" mapstructure:"default_page_size" yaml:"default_page_size"`

	// MaxPageSize caps list limits. Defaults to 100.
	MaxPageSize int `json:"max_page_size,omitempty" mapstructure:"max_page_size" yaml:"max_page_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	t := true
	return Config{
		FullAccessSlug:               "*",
		CatalogAdminSlug:             "permissions:manage",
		SystemCategory:               "system",
		EnforceCascade:               &t,
		AllowGlobalRoleCustomization: &t,
		DefaultPageSize:              20,
		MaxPageSize:                  100,
	}
}

func (c Config) cascadeEnforced() bool { return c.EnforceCascade == nil || *c.EnforceCascade }
func (c Config) globalCustomization() bool {
	return c.AllowGlobalRoleCustomization == nil || *c.AllowGlobalRoleCustomization
}

func (c Config) pageSize(limit int) int {
	def, ceiling := c.DefaultPageSize, c.MaxPageSize
	if def <= 0 {
		def = 20
	}
	if ceiling <= 0 {
		ceiling = 100
	}
	if limit <= 0 {
		return def
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
