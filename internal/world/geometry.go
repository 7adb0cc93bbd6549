package world

import "math"

// Vec is a 2D vector in world units.
type Vec struct {
	X float64
	Y float64
}

// Len returns the euclidean length of the vector.
func (v Vec) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Scale multiplies both components by s.
func (v Vec) Scale(s float64) Vec {
	return Vec{X: v.X * s, Y: v.Y * s}
}

// Normalized returns the unit vector pointing in the same direction, or the
// zero vector when v has no length.
func (v Vec) Normalized() Vec {
	l := v.Len()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec{}
	}
	return Vec{X: v.X / l, Y: v.Y / l}
}

// IsZero reports whether both components are zero.
func (v Vec) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

// Distance returns the euclidean distance between two points.
func Distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

// Overlaps reports whether two blobs touch using the diameter convention:
// centre distance strictly below the sum of radii.
func Overlaps(a, b *Blob) bool {
	if a == nil || b == nil {
		return false
	}
	return Distance(a.X, a.Y, b.X, b.Y) < a.Size/2+b.Size/2
}

// Bounds is the playable rectangle [0, Width] x [0, Height].
type Bounds struct {
	Width  float64
	Height float64
}

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() Vec {
	return Vec{X: b.Width / 2, Y: b.Height / 2}
}

// Clamp keeps a blob of the given diameter fully inside the bounds.
func (b Bounds) Clamp(x, y, size float64) (float64, float64) {
	r := size / 2
	return clampAxis(x, r, b.Width), clampAxis(y, r, b.Height)
}

// Contains reports whether the full extent of a blob lies inside the bounds.
func (b Bounds) Contains(x, y, size float64) bool {
	r := size / 2
	return x-r >= 0 && x+r <= b.Width && y-r >= 0 && y+r <= b.Height
}

func clampAxis(v, r, limit float64) float64 {
	lo, hi := r, limit-r
	if hi < lo {
		// Blob wider than the world on this axis: pin to the middle.
		return limit / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
