// Package cache defines the in-memory cache placed in front of bbolt stores.
// Entries are keyed by session code.
package cache

type Cache[V any] interface {
	Get(code string) (V, bool)
	Add(code string, value V)
	Keys() []string
	Delete(code string)
	Len() int
}
