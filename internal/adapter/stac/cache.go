package stac

import (
	"context"
	"sync"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
	"github.com/couchcryptid/cyclone-catalog/internal/observability"
)

// Reader is the subset of Client the cache decorates.
type Reader interface {
	Collection(ctx context.Context, family domain.VisualizationType, id string) (domain.Collection, error)
	Items(ctx context.Context, family domain.VisualizationType, id string) ([]domain.Item, error)
}

// CachedCollections wraps a Reader with an in-memory LRU of collection
// metadata. Items always pass through. Entries live until Purge, which the
// refresher calls at the start of every cycle, so a snapshot never sees
// metadata fetched for an earlier one.
type CachedCollections struct {
	inner   Reader
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedCollections creates a cache decorator around a reader.
func NewCachedCollections(inner Reader, maxEntries int, metrics *observability.Metrics) *CachedCollections {
	return &CachedCollections{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedCollections) Collection(ctx context.Context, family domain.VisualizationType, id string) (domain.Collection, error) {
	key := string(family) + ":" + id
	if col, ok := c.cache.get(key); ok {
		c.metrics.CollectionCache.WithLabelValues("hit").Inc()
		return col, nil
	}
	c.metrics.CollectionCache.WithLabelValues("miss").Inc()

	col, err := c.inner.Collection(ctx, family, id)
	if err != nil {
		return col, err
	}
	c.cache.put(key, col)
	return col, nil
}

func (c *CachedCollections) Items(ctx context.Context, family domain.VisualizationType, id string) ([]domain.Item, error) {
	return c.inner.Items(ctx, family, id)
}

// Purge drops every cached collection.
func (c *CachedCollections) Purge() {
	c.cache.purge()
}

// lruCache is a thread-safe LRU of collection documents.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.Collection
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (domain.Collection, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.Collection{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value domain.Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
