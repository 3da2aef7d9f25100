package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to RAMPART_TEST_REDIS_URL or skips.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()
	url := os.Getenv("RAMPART_TEST_REDIS_URL")
	if url == "" {
		t.Skip("RAMPART_TEST_REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		t.Fatal(err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	return NewRedis(client, WithKeyPrefix("rampart:test:"+t.Name()+":"), WithRedisTTL(time.Minute))
}

func TestRedisCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestRedis(t)
	t.Cleanup(func() { c.Clear(ctx) })

	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("expected cache miss")
	}

	p := newPerm("reports:read")
	p.Category = "reports"
	c.Set(ctx, p)

	got, ok := c.Get(ctx, "reports:read")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.ID.String() != p.ID.String() || got.Category != "reports" {
		t.Fatalf("unexpected entry %+v", got)
	}

	c.Invalidate(ctx, "reports:read")
	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("expected miss after invalidate")
	}

	c.Set(ctx, newPerm("reports:export"))
	c.Clear(ctx)
	if _, ok := c.Get(ctx, "reports:export"); ok {
		t.Fatal("expected miss after clear")
	}
}

func TestRedisCacheDegradesToMiss(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	c := NewRedis(client)

	ctx := context.Background()
	c.Set(ctx, newPerm("reports:read"))
	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("expected miss when redis is unreachable")
	}
	c.Invalidate(ctx, "reports:read")
	c.Clear(ctx)
}
