// Package bytespool recycles the buffers used to encode outbound frames.
package bytespool

import (
	"bytes"
	"sync"
)

var pool = sync.Pool{
	New: func() interface{} {
		return &bytes.Buffer{}
	},
}

// Get returns an empty buffer.
func Get() (b *bytes.Buffer) {
	ifc := pool.Get()
	if ifc != nil {
		b = ifc.(*bytes.Buffer)
	}
	b.Reset()
	return
}

// Put returns b to the pool. Oversized buffers are dropped.
func Put(b *bytes.Buffer) {
	if b.Cap() > maxPooled {
		return
	}
	pool.Put(b)
}

const maxPooled = 1 << 20
