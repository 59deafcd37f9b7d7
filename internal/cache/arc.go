package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// NewLRU returns an adaptive replacement cache holding up to size sessions.
func NewLRU[V any](size int) (*LRU[V], error) {
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, fmt.Errorf("lru new instance of lru arc cache: %w", err)
	}

	return &LRU[V]{arc: c}, nil
}

type LRU[V any] struct {
	arc *lru.ARCCache
}

func (c *LRU[V]) Get(code string) (V, bool) {
	v, ok := c.arc.Get(code)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

func (c *LRU[V]) Add(code string, value V) {
	c.arc.Add(code, value)
}

// Keys returns the cached session codes, least recently used first.
func (c *LRU[V]) Keys() []string {
	raw := c.arc.Keys()
	codes := make([]string, 0, len(raw))
	for _, k := range raw {
		codes = append(codes, k.(string))
	}
	return codes
}

func (c *LRU[V]) Delete(code string) {
	c.arc.Remove(code)
}

func (c *LRU[V]) Len() int {
	return c.arc.Len()
}
