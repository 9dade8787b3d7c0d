package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Cache is a bounded in-memory cache in front of a slower source. Concurrent
// misses for the same key share one fetch.
type Cache[T any] struct {
	entries *lru.Cache[string, T]
	sfg     singleflight.Group
}

func New[T any](size int) (*Cache[T], error) {
	entries, err := lru.New[string, T](size)
	if err != nil {
		return nil, err
	}
	return &Cache[T]{entries: entries}, nil
}

func (c *Cache[T]) Add(key string, value T) {
	c.entries.Add(key, value)
}

func (c *Cache[T]) Peek(key string) (T, bool) {
	return c.entries.Peek(key)
}

func (c *Cache[T]) Remove(key string) {
	c.entries.Remove(key)
}

func (c *Cache[T]) Len() int {
	return c.entries.Len()
}

// Get returns the cached value for key, calling fetch on a miss. A
// successful fetch is cached; errors are not.
func (c *Cache[T]) Get(key string, fetch func() (T, error)) (T, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		res, err := fetch()
		if err != nil {
			return nil, err
		}
		c.entries.Add(key, res)
		return res, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
