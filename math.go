package main

import "math"

// Vec2 represents a 2D vector
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add adds two vectors
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub subtracts two vectors
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul multiplies a vector by a scalar
func (v Vec2) Mul(scalar float64) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

// Length returns the magnitude of the vector
func (v Vec2) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Normalize returns a unit vector in the same direction
func (v Vec2) Normalize() Vec2 {
	length := v.Length()
	if length == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / length, Y: v.Y / length}
}

// Distance returns the distance between two points
func Distance(a, b Vec2) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Lerp performs linear interpolation between two vectors
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
	}
}

// Rect represents an axis-aligned rectangle
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rectangle
func (r Rect) Contains(point Vec2) bool {
	return point.X >= r.X && point.X <= r.X+r.Width &&
		point.Y >= r.Y && point.Y <= r.Y+r.Height
}

// Intersects checks if two rectangles overlap, with optional padding
func (r Rect) Intersects(other Rect, padding float64) bool {
	return r.X-padding < other.X+other.Width+padding &&
		r.X+r.Width+padding > other.X-padding &&
		r.Y-padding < other.Y+other.Height+padding &&
		r.Y+r.Height+padding > other.Y-padding
}

// CircleIntersectsRect checks if a circle intersects a rectangle using the
// clamped closest-point distance test
func CircleIntersectsRect(center Vec2, radius float64, rect Rect) bool {
	closestX := Clamp(center.X, rect.X, rect.X+rect.Width)
	closestY := Clamp(center.Y, rect.Y, rect.Y+rect.Height)

	dx := center.X - closestX
	dy := center.Y - closestY
	return dx*dx+dy*dy < radius*radius
}

// CirclesOverlap checks if two circles overlap
func CirclesOverlap(pos1 Vec2, radius1 float64, pos2 Vec2, radius2 float64) bool {
	return Distance(pos1, pos2) < radius1+radius2
}

// CircleInBounds checks if a circle lies fully inside the arena
func CircleInBounds(center Vec2, radius, width, height float64) bool {
	return center.X-radius >= 0 && center.X+radius <= width &&
		center.Y-radius >= 0 && center.Y+radius <= height
}
