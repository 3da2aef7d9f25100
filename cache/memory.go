// Package cache provides caching implementations for the rampart
// permission catalog.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/xraph/rampart"
	"github.com/xraph/rampart/permission"
)

// Compile-time interface check.
var _ rampart.Cache = (*Memory)(nil)

// Memory is an in-memory catalog cache keyed by slug with TTL-based
// expiration.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	ttl     time.Duration
	maxSize int
}

type entry struct {
	perm      permission.Permission
	expiresAt time.Time
}

// MemoryOption configures the memory cache.
type MemoryOption func(*Memory)

// WithTTL sets the cache entry time-to-live.
func WithTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) { m.ttl = ttl }
}

// WithMaxSize sets the maximum number of cache entries.
func WithMaxSize(n int) MemoryOption {
	return func(m *Memory) { m.maxSize = n }
}

// NewMemory creates a new in-memory cache.
func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]*entry),
		ttl:     5 * time.Minute,
		maxSize: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns a copy of the cached entry for slug.
func (m *Memory) Get(_ context.Context, slug string) (*permission.Permission, bool) {
	m.mu.RLock()
	e, ok := m.entries[slug]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, slug)
		m.mu.Unlock()
		return nil, false
	}
	p := e.perm
	return &p, true
}

// Set stores a copy of p under its slug.
func (m *Memory) Set(_ context.Context, p *permission.Permission) {
	if p == nil || p.Slug == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[p.Slug]; !exists && len(m.entries) >= m.maxSize {
		m.evictExpired()
		if len(m.entries) >= m.maxSize {
			m.evictOne()
		}
	}

	m.entries[p.Slug] = &entry{
		perm:      *p,
		expiresAt: time.Now().Add(m.ttl),
	}
}

// Invalidate removes the entry for slug.
func (m *Memory) Invalidate(_ context.Context, slug string) {
	m.mu.Lock()
	delete(m.entries, slug)
	m.mu.Unlock()
}

// Clear removes all entries.
func (m *Memory) Clear(_ context.Context) {
	m.mu.Lock()
	m.entries = make(map[string]*entry)
	m.mu.Unlock()
}

// Len returns the number of cached entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// evictExpired removes all expired entries. Must hold write lock.
func (m *Memory) evictExpired() {
	now := time.Now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// evictOne removes one arbitrary entry. Must hold write lock.
func (m *Memory) evictOne() {
	for k := range m.entries {
		delete(m.entries, k)
		return
	}
}
