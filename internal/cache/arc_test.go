package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type target struct {
	Kind    string
	Version int64
}

var _ Cache[target] = (*LRU[target])(nil)

func TestLRU(t *testing.T) {
	t.Parallel()

	c, err := NewLRU[target](2)
	require.NoError(t, err)

	c.Add("ABCD", target{Kind: "HOST", Version: 1})
	c.Add("EFGH", target{Kind: "DISPLAY", Version: 3})

	v, ok := c.Get("ABCD")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Version)
	assert.Equal(t, 2, c.Len())

	c.Delete("ABCD")
	v, ok = c.Get("ABCD")
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, []string{"EFGH"}, c.Keys())
}

func TestLRUEvicts(t *testing.T) {
	t.Parallel()

	c, err := NewLRU[int](2)
	require.NoError(t, err)

	c.Add("A", 1)
	c.Add("B", 2)
	c.Add("C", 3)

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("C")
	assert.True(t, ok)
}

func TestNewLRUInvalidSize(t *testing.T) {
	t.Parallel()

	_, err := NewLRU[int](0)
	assert.Error(t, err)
}
