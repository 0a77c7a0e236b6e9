package cache

import (
	"sync"

	"github.com/clearsight-video/inspect-api/log"
)

// Cache is a generic concurrency-safe key/value map. It guards the map
// structure itself with a single mutex; callers needing finer-grained
// per-key locking (e.g. independent concurrent writers per key) should
// store a pointer-to-mutex-guarded value as T and take that inner lock
// themselves.
type Cache[T interface{}] struct {
	cache map[string]T
	mutex sync.Mutex
}

func New[T interface{}]() *Cache[T] {
	return &Cache[T]{
		cache: make(map[string]T),
	}
}

func (c *Cache[T]) Remove(requestID, key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.cache, key)
	log.Log(requestID, "deleting from cache", "key", key)
}

func (c *Cache[T]) Get(key string) T {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	info, ok := c.cache[key]
	if ok {
		return info
	}
	var zero T
	return zero
}

// GetOK is Get plus the presence bool, for callers that need to
// distinguish "absent" from "present with the zero value".
func (c *Cache[T]) GetOK(key string) (T, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	v, ok := c.cache[key]
	return v, ok
}

func (c *Cache[T]) Store(key string, value T) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.cache[key] = value
}

// StoreIfAbsent stores value under key only if key is not already present,
// returning whether the store happened.
func (c *Cache[T]) StoreIfAbsent(key string, value T) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, exists := c.cache[key]; exists {
		return false
	}
	c.cache[key] = value
	return true
}

func (c *Cache[T]) UnittestIntrospection() *map[string]T {
	return &c.cache
}
