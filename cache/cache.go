// Package cache keeps parsed pages keyed by page id, with time based
// expiry, bounded size, and at-most-one-fetch-in-flight per key.
package cache

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"tekstitv/page"
)

// Defaults for the cache configuration surface.
const (
	DefaultTTL      = 5 * time.Minute
	DefaultMaxPages = 64
)

// Entry pairs a cached page with its expiry deadline. Expired entries
// are logically absent even while still physically stored.
type Entry struct {
	Page      *page.Page
	ExpiresAt time.Time
}

// Store is the bounded container behind the cache. Implementations must
// be safe for concurrent use and must never block on eviction.
type Store interface {
	Get(key string) (Entry, bool)
	Add(key string, e Entry)
	Remove(key string)
	Len() int
}

// lruStore backs Store with a least-recently-used map.
type lruStore struct {
	inner *lru.Cache[string, Entry]
}

func newLRUStore(size int) *lruStore {
	// lru.New only fails for a non-positive size, which New sanitizes.
	inner, _ := lru.New[string, Entry](size)
	return &lruStore{inner: inner}
}

func (s *lruStore) Get(key string) (Entry, bool) { return s.inner.Get(key) }
func (s *lruStore) Add(key string, e Entry)      { s.inner.Add(key, e) }
func (s *lruStore) Remove(key string)            { s.inner.Remove(key) }
func (s *lruStore) Len() int                     { return s.inner.Len() }

// Options configures a Cache. Zero fields take defaults; Store and Now
// exist so tests can swap the bookkeeping and the clock independently.
type Options struct {
	TTL      time.Duration
	MaxPages int
	Store    Store
	Now      func() time.Time
	Logger   *slog.Logger
}

// Cache is a size bounded, TTL stamped page store.
type Cache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger
	flight singleflight.Group
}

// New creates a Cache with the given options.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Store == nil {
		opts.Store = newLRUStore(opts.MaxPages)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Cache{
		store: opts.Store,
		ttl:   opts.TTL,
		now:   opts.Now,
		log:   opts.Logger,
	}
}

// Get returns the cached page if present and not expired.
func (c *Cache) Get(id page.PageId) (*page.Page, bool) {
	entry, ok := c.store.Get(id.String())
	if !ok {
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		// Logically absent; the LRU will push it out eventually.
		return nil, false
	}
	return entry.Page, true
}

// Put inserts or atomically replaces the entry for id, stamping a fresh
// expiry deadline.
func (c *Cache) Put(id page.PageId, p *page.Page) {
	c.store.Add(id.String(), Entry{Page: p, ExpiresAt: c.now().Add(c.ttl)})
}

// Invalidate forces the next Get for id to miss regardless of expiry.
func (c *Cache) Invalidate(id page.PageId) {
	c.store.Remove(id.String())
}

// Len reports the number of physically stored entries, expired or not.
func (c *Cache) Len() int {
	return c.store.Len()
}

// GetOrFetch returns the cached page for id, or runs fill to produce
// and cache one. Concurrent callers for the same id share a single fill
// call; callers for different ids proceed independently.
func (c *Cache) GetOrFetch(ctx context.Context, id page.PageId, fill func(ctx context.Context) (*page.Page, error)) (*page.Page, error) {
	if p, ok := c.Get(id); ok {
		c.log.Debug("cache hit", "page", id.String())
		return p, nil
	}

	v, err, shared := c.flight.Do(id.String(), func() (interface{}, error) {
		// A concurrent fill may have landed between the miss and here.
		if p, ok := c.Get(id); ok {
			return p, nil
		}
		p, err := fill(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(id, p)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Debug("joined in-flight fetch", "page", id.String())
	}
	return v.(*page.Page), nil
}
