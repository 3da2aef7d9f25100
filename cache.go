package rampart

import (
	"context"

	"github.com/xraph/rampart/permission"
)

// Cache caches permission catalog entries by slug. The catalog is
// read-mostly, so slug lookups on the request path skip the store.
type Cache interface {
	// Get returns a cached catalog entry, if available.
	Get(ctx context.Context, slug string) (*permission.Permission, bool)

	// Set stores a catalog entry in the cache.
	Set(ctx context.Context, p *permission.Permission)

	// Invalidate removes the entry for slug.
	Invalidate(ctx context.Context, slug string)

	// Clear removes all entries.
	Clear(ctx context.Context)
}
