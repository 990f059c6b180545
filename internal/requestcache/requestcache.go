// Package requestcache provides a memoization cache scoped to a single
// request lifecycle. It is installed into the request context by
// middleware and cleared when the request ends; it is never shared
// across requests, so one tenant's cached reads can't leak into another
// tenant's request.
package requestcache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Cache is a request-scoped memoization store keyed by operation name
// plus serialized arguments.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]interface{}
}

// New creates an empty Cache
func New() *Cache {
	return &Cache{entries: make(map[string]interface{})}
}

// Get returns the cached value for key, if present
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value under key
func (c *Cache) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Key builds a cache key from an operation name and its arguments
func Key(op string, args interface{}) string {
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%s:%v", op, args)
	}
	return op + ":" + string(data)
}

type ctxKey struct{}

// NewContext returns a context carrying the cache
func NewContext(ctx context.Context, cache *Cache) context.Context {
	return context.WithValue(ctx, ctxKey{}, cache)
}

// FromContext extracts the cache from the context, if one was installed
func FromContext(ctx context.Context) (*Cache, bool) {
	cache, ok := ctx.Value(ctxKey{}).(*Cache)
	return cache, ok
}
