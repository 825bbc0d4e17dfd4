package pattern

import (
	"regexp"
	"sync"
)

// DefaultCacheSize is the maximum number of compiled expressions kept by
// a cache created with a non-positive size.
const DefaultCacheSize = 1000

// CacheObserver receives cache events. RouterMetrics implements it.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
	CacheEviction()
	CacheSize(size int)
}

// cacheEntry holds a compiled regex and its access order for LRU eviction.
type cacheEntry struct {
	regex       *regexp.Regexp
	accessOrder int64
}

// Cache is a bounded LRU cache of compiled expressions. Patterns that
// translate to the same expression (for example the same pattern
// registered on several tag views) share one compiled regexp.
type Cache struct {
	mu            sync.Mutex
	entries       map[string]*cacheEntry
	maxSize       int
	accessCounter int64
	observer      CacheObserver
}

// NewCache creates a cache holding at most size expressions.
func NewCache(size int, observer CacheObserver) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Cache{
		entries:  make(map[string]*cacheEntry),
		maxSize:  size,
		observer: observer,
	}
}

// Compile compiles pattern through the cache.
func (c *Cache) Compile(pattern string) (*Matcher, error) {
	return compile(pattern, c)
}

// Len returns the number of cached expressions.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// get returns the compiled expression, compiling it on a miss.
func (c *Cache) get(expression string) (*regexp.Regexp, error) {
	c.mu.Lock()
	if entry, ok := c.entries[expression]; ok {
		c.accessCounter++
		entry.accessOrder = c.accessCounter
		c.mu.Unlock()
		c.observer.CacheHit()
		return entry.regex, nil
	}
	c.mu.Unlock()

	c.observer.CacheMiss()

	// Compile outside the lock.
	regex, err := regexp.Compile(expression)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have added it meanwhile.
	if existing, ok := c.entries[expression]; ok {
		c.accessCounter++
		existing.accessOrder = c.accessCounter
		return existing.regex, nil
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRU()
		c.observer.CacheEviction()
	}

	c.accessCounter++
	c.entries[expression] = &cacheEntry{
		regex:       regex,
		accessOrder: c.accessCounter,
	}
	c.observer.CacheSize(len(c.entries))

	return regex, nil
}

// evictLRU removes the least recently used entry.
// Must be called with c.mu held.
func (c *Cache) evictLRU() {
	var lruKey string
	var lruOrder int64 = -1

	for key, entry := range c.entries {
		if lruOrder == -1 || entry.accessOrder < lruOrder {
			lruOrder = entry.accessOrder
			lruKey = key
		}
	}

	if lruKey != "" {
		delete(c.entries, lruKey)
	}
}

type nopObserver struct{}

func (nopObserver) CacheHit()      {}
func (nopObserver) CacheMiss()     {}
func (nopObserver) CacheEviction() {}
func (nopObserver) CacheSize(int)  {}
