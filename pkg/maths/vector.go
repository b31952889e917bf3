// Package maths provides the spatial value types shared by the serialization
// and transform layers: vectors, quaternions, a column-major 4x4 matrix and
// RGBA colors. All components are float32 so the wire layout is unambiguous.
package maths

import "math"

// Vector2 is a 2-component float32 vector.
type Vector2 struct {
	X, Y float32
}

// Vector3 is a 3-component float32 vector.
type Vector3 struct {
	X, Y, Z float32
}

// Vector4 is a 4-component float32 vector.
type Vector4 struct {
	X, Y, Z, W float32
}

// One3 returns (1, 1, 1), the neutral scale.
func One3() Vector3 { return Vector3{1, 1, 1} }

// Add returns v + o componentwise.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o componentwise.
func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Mul returns the componentwise product of v and o.
func (v Vector3) Mul(o Vector3) Vector3 {
	return Vector3{v.X * o.X, v.Y * o.Y, v.Z * o.Z}
}

// Div returns the componentwise quotient of v and o.
func (v Vector3) Div(o Vector3) Vector3 {
	return Vector3{v.X / o.X, v.Y / o.Y, v.Z / o.Z}
}

// Scale returns v scaled by s.
func (v Vector3) Scale(s float32) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// Dot returns the dot product of v and o.
func (v Vector3) Dot(o Vector3) float32 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns the cross product of v and o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return Vector3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean length of v.
func (v Vector3) Length() float32 {
	return sqrt32(v.Dot(v))
}

// Distance returns the Euclidean distance between v and o.
func (v Vector3) Distance(o Vector3) float32 {
	return v.Sub(o).Length()
}

// ApproxEqual reports whether every component of v is within tol of o.
func (v Vector3) ApproxEqual(o Vector3, tol float32) bool {
	return approx(v.X, o.X, tol) && approx(v.Y, o.Y, tol) && approx(v.Z, o.Z, tol)
}

// ApproxEqual reports whether every component of v is within tol of o.
func (v Vector2) ApproxEqual(o Vector2, tol float32) bool {
	return approx(v.X, o.X, tol) && approx(v.Y, o.Y, tol)
}

// ApproxEqual reports whether every component of v is within tol of o.
func (v Vector4) ApproxEqual(o Vector4, tol float32) bool {
	return approx(v.X, o.X, tol) && approx(v.Y, o.Y, tol) &&
		approx(v.Z, o.Z, tol) && approx(v.W, o.W, tol)
}

func sqrt32(f float32) float32 {
	return float32(math.Sqrt(float64(f)))
}

func approx(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
