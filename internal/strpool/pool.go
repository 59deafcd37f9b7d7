// Package strpool recycles the builders used to render result banners.
package strpool

import (
	"strings"
	"sync"
)

// banners rarely pass a few hundred bytes
const maxPooled = 4 << 10

var pool = sync.Pool{
	New: func() interface{} {
		return &strings.Builder{}
	},
}

// Get returns an empty builder.
func Get() *strings.Builder {
	b := pool.Get().(*strings.Builder)
	b.Reset()
	return b
}

// Put returns b to the pool unless it grew past maxPooled.
func Put(b *strings.Builder) {
	if b.Cap() > maxPooled {
		return
	}
	b.Reset()
	pool.Put(b)
}
