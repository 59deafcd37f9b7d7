// Package geom holds the 2D primitives used by the simulation.
package geom

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

func (p Point) IsZero() bool {
	return p.X == 0 && p.Y == 0
}

// Normalize returns the unit vector of p; the zero vector stays zero.
func (p Point) Normalize() Point {
	l := p.Len()
	if l == 0 {
		return Point{}
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Angle is the heading of p in radians.
func (p Point) Angle() float64 {
	return math.Atan2(p.Y, p.X)
}

func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampPoint keeps p inside [min, max] on both axes.
func ClampPoint(p, min, max Point) Point {
	return Point{X: Clamp(p.X, min.X, max.X), Y: Clamp(p.Y, min.Y, max.Y)}
}
