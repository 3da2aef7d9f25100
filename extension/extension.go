// Package extension provides a Forge extension entry point for rampart.
package extension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/api"
	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/plugin"
	"github.com/xraph/rampart/store"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "rampart"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Multi-tenant role-based access control"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts rampart as a Forge extension.
type Extension struct {
	config      Config
	svc         *rampart.Service
	apiHandler  *api.API
	logger      *slog.Logger
	serviceOpts []rampart.Option
	plugins     []plugin.Plugin
	redis       redis.UniversalClient
}

// New creates a rampart Forge extension with the given options.
func New(opts ...ExtOption) *Extension {
	e := &Extension{config: DefaultConfig()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the extension name.
func (e *Extension) Name() string { return ExtensionName }

// Description returns the extension description.
func (e *Extension) Description() string { return ExtensionDescription }

// Version returns the extension version.
func (e *Extension) Version() string { return ExtensionVersion }

// Dependencies returns the list of extension names this extension depends on.
func (e *Extension) Dependencies() []string { return []string{} }

// Service returns the underlying authorization service.
func (e *Extension) Service() *rampart.Service { return e.svc }

// API returns the API handler.
func (e *Extension) API() *api.API { return e.apiHandler }

// Register implements [forge.Extension]. It initializes the service,
// registers it in the DI container, and optionally registers HTTP routes.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.init(fapp); err != nil {
		return err
	}

	if err := vessel.Provide(fapp.Container(), func() (*rampart.Service, error) {
		return e.svc, nil
	}); err != nil {
		return fmt.Errorf("rampart: register service in container: %w", err)
	}

	return nil
}

func (e *Extension) init(fapp forge.App) error {
	var injected store.Store
	if s, err := forge.Inject[store.Store](fapp.Container()); err == nil {
		injected = s
	}

	svc, err := e.newService(injected)
	if err != nil {
		return err
	}
	e.svc = svc

	e.apiHandler = api.New(svc, fapp.Router())

	if !e.config.DisableRoutes {
		if err := e.apiHandler.RegisterRoutes(fapp.Router()); err != nil {
			return fmt.Errorf("rampart: register routes: %w", err)
		}
	}

	return nil
}

// newService assembles the service from the extension configuration. A
// store from the DI container is overridden by one passed via WithStore.
func (e *Extension) newService(injected store.Store) (*rampart.Service, error) {
	logger := e.logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := make([]rampart.Option, 0, len(e.serviceOpts)+len(e.plugins)+4)
	opts = append(opts,
		rampart.WithLogger(logger),
		rampart.WithConfig(e.config.Service),
	)
	if injected != nil {
		opts = append(opts, rampart.WithStore(injected))
	}

	c, err := e.newCache(logger)
	if err != nil {
		return nil, err
	}
	if c != nil {
		opts = append(opts, rampart.WithCache(c))
	}

	// User-provided options may override the store or cache.
	opts = append(opts, e.serviceOpts...)

	for _, x := range e.plugins {
		opts = append(opts, rampart.WithPlugin(x))
	}

	svc, err := rampart.NewService(opts...)
	if err != nil {
		return nil, fmt.Errorf("rampart: create service: %w", err)
	}
	return svc, nil
}

// newCache picks the catalog cache: Redis when RedisURL is set, the
// in-process cache when CacheTTL is positive, none otherwise.
func (e *Extension) newCache(logger *slog.Logger) (rampart.Cache, error) {
	if e.config.RedisURL != "" {
		opt, err := redis.ParseURL(e.config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("rampart: parse redis url: %w", err)
		}
		e.redis = redis.NewClient(opt)
		ropts := []cache.RedisOption{cache.WithRedisLogger(logger)}
		if e.config.CacheTTL > 0 {
			ropts = append(ropts, cache.WithRedisTTL(e.config.CacheTTL))
		}
		return cache.NewRedis(e.redis, ropts...), nil
	}
	if e.config.CacheTTL <= 0 {
		return nil, nil
	}
	mopts := []cache.MemoryOption{cache.WithTTL(e.config.CacheTTL)}
	if e.config.CacheSize > 0 {
		mopts = append(mopts, cache.WithMaxSize(e.config.CacheSize))
	}
	return cache.NewMemory(mopts...), nil
}

// Start runs migrations if enabled and starts the service.
func (e *Extension) Start(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("rampart: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if s := e.svc.Store(); s != nil {
			if err := s.Migrate(ctx); err != nil {
				return fmt.Errorf("rampart: migration failed: %w", err)
			}
		}
	}

	return e.svc.Start(ctx)
}

// Stop gracefully shuts down the service and releases the cache client.
func (e *Extension) Stop(ctx context.Context) error {
	if e.svc == nil {
		return nil
	}
	err := e.svc.Stop(ctx)
	if e.redis != nil {
		err = errors.Join(err, e.redis.Close())
	}
	return err
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.svc == nil {
		return errors.New("rampart: extension not initialized")
	}
	s := e.svc.Store()
	if s == nil {
		return errors.New("rampart: no store configured")
	}
	if err := s.Ping(ctx); err != nil {
		return err
	}
	if e.redis != nil {
		return e.redis.Ping(ctx).Err()
	}
	return nil
}

// Handler returns the HTTP handler for all API routes.
func (e *Extension) Handler() http.Handler {
	if e.apiHandler == nil {
		return http.NotFoundHandler()
	}
	return e.apiHandler.Handler()
}

// RegisterRoutes registers all rampart API routes into a Forge router.
func (e *Extension) RegisterRoutes(router forge.Router) error {
	if e.apiHandler != nil {
		return e.apiHandler.RegisterRoutes(router)
	}
	return nil
}
