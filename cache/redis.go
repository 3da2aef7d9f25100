package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/permission"
)

// Compile-time interface check.
var _ rampart.Cache = (*Redis)(nil)

// Redis is a catalog cache shared between service instances. Entries are
// JSON documents under "<prefix><slug>" with a TTL. Redis failures degrade
// to cache misses and are logged.
type Redis struct {
	db            redis.UniversalClient
	prefix        string
	ttl           time.Duration
	scanBatchSize int64
	logger        *slog.Logger
}

// RedisOption configures the Redis cache.
type RedisOption func(*Redis)

// WithRedisTTL sets the entry time-to-live.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) { r.ttl = ttl }
}

// WithKeyPrefix sets the key namespace. Defaults to "rampart:perm:".
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = prefix }
}

// WithRedisLogger sets the logger for Redis failures.
func WithRedisLogger(l *slog.Logger) RedisOption {
	return func(r *Redis) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRedis wraps a go-redis client as a catalog cache.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		db:            client,
		prefix:        "rampart:perm:",
		ttl:           5 * time.Minute,
		scanBatchSize: 1000,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get returns the cached entry for slug.
func (r *Redis) Get(ctx context.Context, slug string) (*permission.Permission, bool) {
	raw, err := r.db.Get(ctx, r.key(slug)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn("get", slug, err)
		}
		return nil, false
	}
	var p permission.Permission
	if err := json.Unmarshal(raw, &p); err != nil {
		r.warn("decode", slug, err)
		return nil, false
	}
	return &p, true
}

// Set stores p under its slug.
func (r *Redis) Set(ctx context.Context, p *permission.Permission) {
	if p == nil || p.Slug == "" {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		r.warn("encode", p.Slug, err)
		return
	}
	if err := r.db.Set(ctx, r.key(p.Slug), raw, r.ttl).Err(); err != nil {
		r.warn("set", p.Slug, err)
	}
}

// Invalidate removes the entry for slug.
func (r *Redis) Invalidate(ctx context.Context, slug string) {
	if err := r.db.Del(ctx, r.key(slug)).Err(); err != nil {
		r.warn("invalidate", slug, err)
	}
}

// Clear removes every key under the prefix using SCAN to avoid blocking
// Redis.
func (r *Redis) Clear(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := r.db.Scan(ctx, cursor, r.prefix+"*", r.scanBatchSize).Result()
		if err != nil {
			r.warn("clear", "", err)
			return
		}
		if len(keys) > 0 {
			if err := r.db.Del(ctx, keys...).Err(); err != nil {
				r.warn("clear", "", err)
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

func (r *Redis) key(slug string) string { return r.prefix + slug }

func (r *Redis) warn(op, slug string, err error) {
	r.logger.Warn("rampart: redis cache",
		slog.String("op", op),
		slog.String("slug", slug),
		slog.String("error", err.Error()),
	)
}
