package rampart

import (
	"log/slog"

	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store"
)

// Option is a functional option for the Service.
type Option func(*Service)

// WithStore sets the composite store.
func WithStore(st store.Store) Option { return func(s *Service) { s.store = st } }

// WithCache sets the permission catalog cache.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithConfig sets the service configuration.
func WithConfig(c Config) Option { return func(s *Service) { s.config = c } }

// WithCapability overrides how system-role management is decided. By
// default an actor needs Config.FullAccessSlug.
func WithCapability(fn scope.Capability) Option { return func(s *Service) { s.capability = fn } }

// WithPermissionsChangedFunc sets the hook invoked after a role's permission
// set changes.
func WithPermissionsChangedFunc(fn PermissionsChangedFunc) Option {
	return func(s *Service) { s.onPermissionsChanged = fn }
}

// WithPlugin registers a plugin with the service.
func WithPlugin(x plugin.Plugin) Option {
	return func(s *Service) {
		if s.plugins == nil {
			s.plugins = plugin.NewRegistry(s.logger)
		}
		s.plugins.Register(x)
	}
}
