package maths

// Matrix4x4 is a column-major 4x4 float32 matrix. The element at (row, col)
// lives at index col*4+row, which is also its serialized order.
type Matrix4x4 [16]float32

// MatrixIdentity returns the identity matrix.
func MatrixIdentity() Matrix4x4 {
	var m Matrix4x4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// TRS builds the matrix that scales by s, rotates by r and then translates
// by t.
func TRS(t Vector3, r Quaternion, s Vector3) Matrix4x4 {
	x := r.Rotate(Vector3{X: s.X})
	y := r.Rotate(Vector3{Y: s.Y})
	z := r.Rotate(Vector3{Z: s.Z})
	return Matrix4x4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		t.X, t.Y, t.Z, 1,
	}
}

// At returns the element at (row, col).
func (m Matrix4x4) At(row, col int) float32 {
	return m[col*4+row]
}

// Set assigns the element at (row, col).
func (m *Matrix4x4) Set(row, col int, v float32) {
	m[col*4+row] = v
}

// Mul returns the matrix product m*o.
func (m Matrix4x4) Mul(o Matrix4x4) Matrix4x4 {
	var r Matrix4x4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m.At(row, k) * o.At(k, col)
			}
			r[col*4+row] = sum
		}
	}
	return r
}

// MulPoint transforms p as a position, with an implicit w of 1.
func (m Matrix4x4) MulPoint(p Vector3) Vector3 {
	return Vector3{
		m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// MulVector transforms v as a direction, ignoring translation.
func (m Matrix4x4) MulVector(v Vector3) Vector3 {
	return Vector3{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z,
	}
}
