package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5.0, Distance(Pt(0, 0), Pt(3, 4)))
	assert.Equal(t, 0.0, Distance(Pt(2, 2), Pt(2, 2)))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	n := Pt(3, 4).Normalize()
	assert.InDelta(t, 1.0, n.Len(), 1e-9)
	assert.InDelta(t, 0.6, n.X, 1e-9)
	assert.Equal(t, Point{}, Point{}.Normalize())
}

func TestClamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		v, lo, hi, want float64
	}{
		{v: -1, lo: 0, hi: 10, want: 0},
		{v: 11, lo: 0, hi: 10, want: 10},
		{v: 5, lo: 0, hi: 10, want: 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clamp(tt.v, tt.lo, tt.hi))
	}

	assert.Equal(t, Pt(0, 10), ClampPoint(Pt(-5, 50), Pt(0, 0), Pt(10, 10)))
}

func TestAngle(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Pi/2, Pt(0, 1).Angle(), 1e-9)
	assert.Equal(t, Pt(4, 6), Pt(1, 2).Add(Pt(1, 1)).Scale(2))
	assert.Equal(t, Pt(0, 1), Pt(1, 2).Sub(Pt(1, 1)))
	assert.True(t, Point{}.IsZero())
}
