package maths

import (
	"math"
	"testing"
)

const tol = 1e-5

func TestVector3Ops(t *testing.T) {
	a := Vector3{1, 2, 3}
	b := Vector3{4, 5, 6}

	if got := a.Add(b); !got.ApproxEqual(Vector3{5, 7, 9}, tol) {
		t.Fatalf("Add = %v", got)
	}
	if got := b.Sub(a); !got.ApproxEqual(Vector3{3, 3, 3}, tol) {
		t.Fatalf("Sub = %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Fatalf("Dot = %v", got)
	}
	if got := a.Cross(b); !got.ApproxEqual(Vector3{-3, 6, -3}, tol) {
		t.Fatalf("Cross = %v", got)
	}
	if got := (Vector3{3, 4, 0}).Length(); !approx(got, 5, tol) {
		t.Fatalf("Length = %v", got)
	}
	if got := a.Mul(b).Div(b); !got.ApproxEqual(a, tol) {
		t.Fatalf("Mul/Div = %v", got)
	}
}

func TestQuaternionRotate(t *testing.T) {
	tests := []struct {
		name string
		q    Quaternion
		in   Vector3
		want Vector3
	}{
		{"identity", QuaternionIdentity(), Vector3{1, 2, 3}, Vector3{1, 2, 3}},
		{"quarter turn around Y", AxisAngle(Vector3{Y: 1}, math.Pi/2), Vector3{1, 0, 0}, Vector3{0, 0, -1}},
		{"half turn around Z", AxisAngle(Vector3{Z: 1}, math.Pi), Vector3{1, 1, 0}, Vector3{-1, -1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Rotate(tt.in); !got.ApproxEqual(tt.want, tol) {
				t.Fatalf("Rotate(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestQuaternionComposeAndInvert(t *testing.T) {
	a := AxisAngle(Vector3{Y: 1}, 0.7)
	b := AxisAngle(Vector3{X: 1}, -1.3)
	v := Vector3{2, -1, 4}

	composed := a.Mul(b).Rotate(v)
	stepped := a.Rotate(b.Rotate(v))
	if !composed.ApproxEqual(stepped, tol) {
		t.Fatalf("composition mismatch: %v vs %v", composed, stepped)
	}

	back := a.Conjugate().Rotate(a.Rotate(v))
	if !back.ApproxEqual(v, tol) {
		t.Fatalf("conjugate did not invert: %v", back)
	}

	if !a.ApproxEqual(Quaternion{-a.X, -a.Y, -a.Z, -a.W}, tol) {
		t.Fatal("q and -q should compare equal as rotations")
	}
}

func TestTRSMatchesComposedOps(t *testing.T) {
	pos := Vector3{1, 2, 3}
	rot := AxisAngle(Vector3{1, 1, 0}, 0.9)
	scl := Vector3{2, 0.5, 1.5}
	p := Vector3{-1, 4, 2}

	m := TRS(pos, rot, scl)
	want := pos.Add(rot.Rotate(p.Mul(scl)))
	if got := m.MulPoint(p); !got.ApproxEqual(want, tol) {
		t.Fatalf("MulPoint = %v, want %v", got, want)
	}

	id := MatrixIdentity()
	if got := id.Mul(m); got != m {
		t.Fatalf("identity product changed matrix")
	}
	if got := m.MulVector(Vector3{}); !got.ApproxEqual(Vector3{}, tol) {
		t.Fatalf("MulVector(0) = %v", got)
	}
}

func TestColorRoundTrip(t *testing.T) {
	c := Color{0.25, 0.5, 1, 0}
	c32 := c.ToColor32()
	if c32 != (Color32{64, 128, 255, 0}) {
		t.Fatalf("ToColor32 = %v", c32)
	}
	back := c32.ToColor()
	if !approx(back.G, c.G, 1.0/255) || !approx(back.R, c.R, 1.0/255) {
		t.Fatalf("ToColor = %v", back)
	}

	if got := (Color{R: -2, G: 7, B: 1, A: 0.999}).ToColor32(); got.R != 0 || got.G != 255 {
		t.Fatalf("clamp = %v", got)
	}
}
