// Package cache caches resolved companies in front of the repository.
// The save pipeline and the permission guard resolve the owning company
// on every operation; this keeps those lookups off the database without
// letting a suspension go unnoticed for longer than the TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crpledger/core/internal/domain/tenancy"
	"github.com/google/uuid"
)

// CompanyCache stores resolved companies for a bounded time
type CompanyCache interface {
	Get(ctx context.Context, id uuid.UUID) (*tenancy.Company, bool)
	Set(ctx context.Context, company *tenancy.Company)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// CachingResolver wraps a CompanyResolver with a cache. Misses and
// lookup errors fall through to the inner resolver; only successful
// resolutions are cached.
type CachingResolver struct {
	inner tenancy.CompanyResolver
	cache CompanyCache
}

// NewCachingResolver wraps a resolver with a cache
func NewCachingResolver(inner tenancy.CompanyResolver, cache CompanyCache) *CachingResolver {
	return &CachingResolver{inner: inner, cache: cache}
}

// Resolve returns the cached company or falls through to the inner resolver
func (r *CachingResolver) Resolve(ctx context.Context, id uuid.UUID) (*tenancy.Company, error) {
	if company, ok := r.cache.Get(ctx, id); ok {
		return company, nil
	}
	company, err := r.inner.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, company)
	return company, nil
}

// Invalidate drops a company from the cache. Called after lifecycle
// changes so a suspension takes effect immediately, not after the TTL.
func (r *CachingResolver) Invalidate(ctx context.Context, id uuid.UUID) {
	r.cache.Invalidate(ctx, id)
}

type memoryEntry struct {
	company   tenancy.Company
	expiresAt time.Time
}

// MemoryCompanyCache is the in-process backend, suitable for a single
// instance or for tests
type MemoryCompanyCache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
}

// NewMemoryCompanyCache creates an in-memory cache with the given TTL
func NewMemoryCompanyCache(ttl time.Duration) *MemoryCompanyCache {
	return &MemoryCompanyCache{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
	}
}

// Get returns the cached company if present and not expired
func (c *MemoryCompanyCache) Get(_ context.Context, id uuid.UUID) (*tenancy.Company, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	company := entry.company
	return &company, true
}

// Set stores a company copy with the cache TTL
func (c *MemoryCompanyCache) Set(_ context.Context, company *tenancy.Company) {
	if company == nil {
		return
	}
	c.mu.Lock()
	c.entries[company.ID] = memoryEntry{
		company:   *company,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Invalidate removes a company from the cache
func (c *MemoryCompanyCache) Invalidate(_ context.Context, id uuid.UUID) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}
