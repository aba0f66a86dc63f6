package agent

import "math"

// Vec2 is a world-space point or direction. +Y points up.
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2       { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2       { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(k float64) Vec2  { return Vec2{a.X * k, a.Y * k} }
func (a Vec2) Dot(b Vec2) float64    { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Len() float64          { return math.Hypot(a.X, a.Y) }
func (a Vec2) LenSq() float64        { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Dist(b Vec2) float64   { return a.Sub(b).Len() }
func (a Vec2) DistSq(b Vec2) float64 { return a.Sub(b).LenSq() }

// Norm returns the unit vector of a, or the zero vector when a is (nearly) zero.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Rotate turns a counter-clockwise by deg degrees.
func (a Vec2) Rotate(deg float64) Vec2 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Vec2{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// AngleDeg is the direction of a in degrees, measured from +X, in (-180, 180].
func (a Vec2) AngleDeg() float64 {
	return math.Atan2(a.Y, a.X) * 180 / math.Pi
}

// FromAngleDeg returns the unit vector pointing deg degrees from +X.
func FromAngleDeg(deg float64) Vec2 {
	s, c := math.Sincos(deg * math.Pi / 180)
	return Vec2{c, s}
}

// Rect is an axis-aligned box.
type Rect struct {
	Min, Max Vec2
}

// Center returns the midpoint of the box.
func (r Rect) Center() Vec2 {
	return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Contains reports whether p lies inside or on the box.
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// signOf returns -1 for negative x and +1 otherwise.
func signOf(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }
