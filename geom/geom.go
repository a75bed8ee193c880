// Package geom provides the integer geometry value types shared by the
// document engine: positions and offsets (Vec2), sizes (Extent) and
// axis-aligned rectangles (Rect).
//
// All types are small immutable values. Methods never modify the receiver.
package geom

import "fmt"

// Vec2 represents an integer 2D position or offset in pixels.
type Vec2 struct {
	X, Y int
}

// V2 is a convenience function to create a Vec2.
func V2(x, y int) Vec2 {
	return Vec2{X: x, Y: y}
}

// Add returns the sum of two vectors.
func (v Vec2) Add(w Vec2) Vec2 {
	return Vec2{X: v.X + w.X, Y: v.Y + w.Y}
}

// Sub returns the difference of two vectors.
func (v Vec2) Sub(w Vec2) Vec2 {
	return Vec2{X: v.X - w.X, Y: v.Y - w.Y}
}

// Neg returns the negation of the vector.
func (v Vec2) Neg() Vec2 {
	return Vec2{X: -v.X, Y: -v.Y}
}

// String returns a string representation of the vector.
func (v Vec2) String() string {
	return fmt.Sprintf("(%d,%d)", v.X, v.Y)
}

// Extent represents an integer size in pixels.
// A valid extent has non-negative width and height; zero area is allowed.
type Extent struct {
	W, H int
}

// Ext is a convenience function to create an Extent.
func Ext(w, h int) Extent {
	return Extent{W: w, H: h}
}

// Area returns W*H.
func (e Extent) Area() int {
	return e.W * e.H
}

// IsValid reports whether both dimensions are non-negative.
func (e Extent) IsValid() bool {
	return e.W >= 0 && e.H >= 0
}

// IsEmpty reports whether the extent covers no pixels.
func (e Extent) IsEmpty() bool {
	return e.W <= 0 || e.H <= 0
}

// String returns a string representation of the extent.
func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.W, e.H)
}

// Rect is an axis-aligned rectangle covering [Min, Min+Size).
type Rect struct {
	Min  Vec2
	Size Extent
}

// R creates a rectangle from its origin and size.
func R(x, y, w, h int) Rect {
	return Rect{Min: Vec2{X: x, Y: y}, Size: Extent{W: w, H: h}}
}

// Max returns the exclusive lower-right corner.
func (r Rect) Max() Vec2 {
	return Vec2{X: r.Min.X + r.Size.W, Y: r.Min.Y + r.Size.H}
}

// Center returns the center of the rectangle, rounded toward Min.
func (r Rect) Center() Vec2 {
	return Vec2{X: r.Min.X + r.Size.W/2, Y: r.Min.Y + r.Size.H/2}
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Size.IsEmpty()
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(p Vec2) bool {
	m := r.Max()
	return p.X >= r.Min.X && p.X < m.X && p.Y >= r.Min.Y && p.Y < m.Y
}

// Translate returns the rectangle moved by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{Min: r.Min.Add(d), Size: r.Size}
}

// Intersect returns the largest rectangle contained in both r and s.
// If the rectangles do not overlap the result is empty with Min at r.Min.
func (r Rect) Intersect(s Rect) Rect {
	rmax, smax := r.Max(), s.Max()
	x0 := max(r.Min.X, s.Min.X)
	y0 := max(r.Min.Y, s.Min.Y)
	x1 := min(rmax.X, smax.X)
	y1 := min(rmax.Y, smax.Y)
	if x1 <= x0 || y1 <= y0 {
		return Rect{Min: r.Min}
	}
	return Rect{Min: Vec2{X: x0, Y: y0}, Size: Extent{W: x1 - x0, H: y1 - y0}}
}

// Union returns the smallest rectangle containing both r and s.
// Empty rectangles are ignored.
func (r Rect) Union(s Rect) Rect {
	if r.Empty() {
		return s
	}
	if s.Empty() {
		return r
	}
	rmax, smax := r.Max(), s.Max()
	x0 := min(r.Min.X, s.Min.X)
	y0 := min(r.Min.Y, s.Min.Y)
	x1 := max(rmax.X, smax.X)
	y1 := max(rmax.Y, smax.Y)
	return Rect{Min: Vec2{X: x0, Y: y0}, Size: Extent{W: x1 - x0, H: y1 - y0}}
}

// String returns a string representation of the rectangle.
func (r Rect) String() string {
	return fmt.Sprintf("%v+%v", r.Min, r.Size)
}
