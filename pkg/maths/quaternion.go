package maths

import "math"

// Quaternion is a rotation stored as x, y, z, w float32 components.
type Quaternion struct {
	X, Y, Z, W float32
}

// QuaternionIdentity returns the identity rotation.
func QuaternionIdentity() Quaternion { return Quaternion{W: 1} }

// AxisAngle returns the rotation of radians around axis. A zero axis yields
// the identity.
func AxisAngle(axis Vector3, radians float32) Quaternion {
	l := axis.Length()
	if l == 0 {
		return QuaternionIdentity()
	}
	s := float32(math.Sin(float64(radians) / 2))
	c := float32(math.Cos(float64(radians) / 2))
	n := axis.Scale(1 / l)
	return Quaternion{n.X * s, n.Y * s, n.Z * s, c}
}

// Mul returns the composed rotation q*o, which applies o first and then q.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Conjugate returns the conjugate of q. For unit quaternions this is the
// inverse rotation.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{-q.X, -q.Y, -q.Z, q.W}
}

// Rotate applies the rotation to v.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	qv := Vector3{q.X, q.Y, q.Z}
	t := qv.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(qv.Cross(t))
}

// Dot returns the quaternion dot product.
func (q Quaternion) Dot(o Quaternion) float32 {
	return q.X*o.X + q.Y*o.Y + q.Z*o.Z + q.W*o.W
}

// Normalize returns q scaled to unit length. The zero quaternion normalizes
// to the identity.
func (q Quaternion) Normalize() Quaternion {
	l := sqrt32(q.Dot(q))
	if l == 0 {
		return QuaternionIdentity()
	}
	return Quaternion{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// ApproxEqual reports whether q and o represent nearly the same rotation.
// q and -q describe the same rotation and compare equal.
func (q Quaternion) ApproxEqual(o Quaternion, tol float32) bool {
	d := q.Dot(o)
	if d < 0 {
		d = -d
	}
	return 1-d <= tol
}
