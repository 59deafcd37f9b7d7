package strpool

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIsEmpty(t *testing.T) {
	b := Get()
	b.WriteString("swans win")
	Put(b)

	assert.Zero(t, Get().Len())
}

func TestPutDropsLargeBuilders(t *testing.T) {
	b := Get()
	b.WriteString(strings.Repeat("x", maxPooled+1))
	Put(b)

	// dropped builders are left untouched
	assert.Equal(t, maxPooled+1, b.Len())
}
