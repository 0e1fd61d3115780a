package oracle

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the default bound on the number of cached preimages,
// matching the zkVM guest's ORACLE_LRU_SIZE constant.
const DefaultCacheSize = 1024

// Cache is a bounded LRU of validated preimages, keyed by Key. Every
// (key, value) pair it holds satisfies Validate(key, value): entries are
// only ever inserted after a successful Validate call (I4).
type Cache struct {
	inner *lru.Cache[Key, []byte]
}

// NewCache creates a Cache bounded to size entries. size <= 0 uses
// DefaultCacheSize.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[Key, []byte](size)
	if err != nil {
		// lru.New only errors for a non-positive size, which is excluded above.
		panic(err)
	}
	return &Cache{inner: c}
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key Key) ([]byte, bool) {
	return c.inner.Get(key)
}

// Put validates value against key and, on success, inserts it into the
// cache. It is the only insertion path, so the cache invariant I4 holds at
// every observable instant.
func (c *Cache) Put(key Key, value []byte) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	c.inner.Add(key, append([]byte(nil), value...))
	return nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.inner.Len() }
