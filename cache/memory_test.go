package cache

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/id"
	"github.com/xraph/rampart/permission"
	"github.com/xraph/rampart/scope"
	"github.com/xraph/rampart/store/memory"
)

func newPerm(slug string) *permission.Permission {
	return &permission.Permission{ID: id.NewPermissionID(), Slug: slug, Name: slug, IsActive: true}
}

func TestMemoryCacheHitMiss(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(time.Minute))

	// Miss
	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("expected cache miss")
	}

	// Set + Hit
	c.Set(ctx, newPerm("reports:read"))
	got, ok := c.Get(ctx, "reports:read")
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got.Slug != "reports:read" {
		t.Fatalf("expected reports:read, got %q", got.Slug)
	}

	// Callers cannot mutate the cached entry.
	got.IsActive = false
	again, _ := c.Get(ctx, "reports:read")
	if !again.IsActive {
		t.Fatal("cached entry was mutated through a returned copy")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithTTL(1 * time.Millisecond))

	c.Set(ctx, newPerm("reports:read"))
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("expected cache miss after TTL expiry")
	}
}

func TestMemoryCacheInvalidateAndClear(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	c.Set(ctx, newPerm("reports:read"))
	c.Set(ctx, newPerm("reports:export"))

	c.Invalidate(ctx, "reports:read")
	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("reports:read should be invalidated")
	}
	if _, ok := c.Get(ctx, "reports:export"); !ok {
		t.Fatal("reports:export should still be cached")
	}

	c.Clear(ctx)
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d entries", c.Len())
	}
}

func TestMemoryCacheMaxSize(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(WithMaxSize(2))

	for i := 0; i < 5; i++ {
		c.Set(ctx, newPerm("reports:"+string(rune('a'+i))))
	}

	if size := c.Len(); size > 2 {
		t.Fatalf("expected max 2 entries, got %d", size)
	}
}

func TestServiceInvalidatesOnCatalogUpdate(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	c := NewMemory()
	svc, err := rampart.NewService(rampart.WithStore(s), rampart.WithCache(c))
	if err != nil {
		t.Fatal(err)
	}

	p := newPerm("reports:read")
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}

	ids, err := svc.ResolvePermissionSlugs(ctx, []string{"reports:read"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0].String() != p.ID.String() {
		t.Fatalf("unexpected ids %v", ids)
	}
	if _, ok := c.Get(ctx, "reports:read"); !ok {
		t.Fatal("expected slug lookup to populate the cache")
	}

	admin := &scope.Actor{UserID: "root", Permissions: []string{"*"}}
	if _, err := svc.DeletePermission(ctx, admin, p.ID); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "reports:read"); ok {
		t.Fatal("expected catalog update to invalidate the slug")
	}

	if _, err := svc.ResolvePermissionSlugs(ctx, []string{"reports:read"}); rampart.KindOf(err) != rampart.KindBadRequest {
		t.Fatalf("expected BAD_REQUEST for inactive slug, got %v", err)
	}
}
