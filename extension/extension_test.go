package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/cache"
	"github.com/xraph/rampart/store/memory"
)

func TestNewDefaults(t *testing.T) {
	e := New()
	assert.Equal(t, ExtensionName, e.Name())
	assert.Equal(t, 5*time.Minute, e.config.CacheTTL)
	assert.Equal(t, rampart.DefaultConfig().FullAccessSlug, e.config.Service.FullAccessSlug)
	assert.Nil(t, e.Service())
}

func TestNewServiceRequiresStore(t *testing.T) {
	_, err := New().newService(nil)
	require.ErrorIs(t, err, rampart.ErrStoreRequired)
}

func TestNewServiceUsesInjectedStore(t *testing.T) {
	injected := memory.New()
	svc, err := New().newService(injected)
	require.NoError(t, err)
	assert.Same(t, injected, svc.Store())
}

func TestWithStoreOverridesInjected(t *testing.T) {
	explicit := memory.New()
	svc, err := New(WithStore(explicit)).newService(memory.New())
	require.NoError(t, err)
	assert.Same(t, explicit, svc.Store())
}

func TestNewServiceAppliesServiceConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Service.CrossTenantSlug = "orgs:view-all"
	svc, err := New(WithConfig(cfg)).newService(memory.New())
	require.NoError(t, err)
	assert.Equal(t, "orgs:view-all", svc.Config().CrossTenantSlug)
}

func TestNewCache(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		c, err := New().newCache(nil)
		require.NoError(t, err)
		assert.IsType(t, &cache.Memory{}, c)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CacheTTL = 0
		c, err := New(WithConfig(cfg)).newCache(nil)
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("redis", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RedisURL = "redis://localhost:6379/2"
		e := New(WithConfig(cfg))
		c, err := e.newCache(nil)
		require.NoError(t, err)
		assert.IsType(t, &cache.Redis{}, c)
		require.NotNil(t, e.redis)
		assert.NoError(t, e.redis.Close())
	})

	t.Run("bad redis url", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RedisURL = "ftp://nowhere"
		_, err := New(WithConfig(cfg)).newCache(nil)
		assert.Error(t, err)
	})
}

func TestDisableOptions(t *testing.T) {
	e := New(WithDisableRoutes(), WithDisableMigrate())
	assert.True(t, e.config.DisableRoutes)
	assert.True(t, e.config.DisableMigrate)
}
