package serialize

import (
	"bytes"
	"testing"

	"github.com/snapsync/snapsync/pkg/maths"
)

// Direct ops.

func BenchmarkSerializer_WriteScalars(b *testing.B) {
	alive := true
	health := int32(87)
	score := int64(1_240_500)
	heat := float32(0.42)
	mass := 12.75
	name := "crate-07"

	var buf bytes.Buffer
	buf.Grow(64)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		s := NewWriter(&buf)
		_ = s.Bool(&alive)
		_ = s.Int32(&health)
		_ = s.Int64(&score)
		_ = s.Float32(&heat)
		_ = s.Float64(&mass)
		_ = s.String(&name)
		if err := s.Err(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSerializer_ReadScalars(b *testing.B) {
	alive := true
	health := int32(87)
	score := int64(1_240_500)
	heat := float32(0.42)
	mass := 12.75
	name := "crate-07"

	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.Bool(&alive)
	_ = w.Int32(&health)
	_ = w.Int64(&score)
	_ = w.Float32(&heat)
	_ = w.Float64(&mass)
	_ = w.String(&name)
	if err := w.Err(); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s, err := NewReader(bytes.NewReader(data), Version)
		if err != nil {
			b.Fatal(err)
		}
		_ = s.Bool(&alive)
		_ = s.Int32(&health)
		_ = s.Int64(&score)
		_ = s.Float32(&heat)
		_ = s.Float64(&mass)
		_ = s.String(&name)
		if err := s.Err(); err != nil {
			b.Fatal(err)
		}
	}
}

// Pose payload, the shape the transform codec moves per node per frame.

func BenchmarkSerializer_WriteTransform(b *testing.B) {
	pos := maths.Vector3{X: 1.5, Y: -2.25, Z: 8}
	rot := maths.Quaternion{X: 0, Y: 0.7071, Z: 0, W: 0.7071}
	scale := maths.Vector3{X: 1, Y: 1, Z: 1}

	var buf bytes.Buffer
	buf.Grow(64)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		s := NewWriter(&buf)
		_ = s.Vector3(&pos)
		_ = s.Quaternion(&rot)
		_ = s.Vector3(&scale)
		if err := s.Err(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSerializer_ReadTransform(b *testing.B) {
	pos := maths.Vector3{X: 1.5, Y: -2.25, Z: 8}
	rot := maths.Quaternion{X: 0, Y: 0.7071, Z: 0, W: 0.7071}
	scale := maths.Vector3{X: 1, Y: 1, Z: 1}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	_ = w.Vector3(&pos)
	_ = w.Quaternion(&rot)
	_ = w.Vector3(&scale)
	if err := w.Err(); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s, err := NewReader(bytes.NewReader(data), Version)
		if err != nil {
			b.Fatal(err)
		}
		_ = s.Vector3(&pos)
		_ = s.Quaternion(&rot)
		_ = s.Vector3(&scale)
		if err := s.Err(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSerializer_WriteFloat32Slice(b *testing.B) {
	samples := make([]float32, 64)
	for i := range samples {
		samples[i] = float32(i) * 0.5
	}

	var buf bytes.Buffer
	buf.Grow(512)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		s := NewWriter(&buf)
		if err := Slice(s, &samples); err != nil {
			b.Fatal(err)
		}
	}
}

// Tagged path: one reflect dispatch plus a tag byte per value.

func BenchmarkTagged_WriteVector3(b *testing.B) {
	v := maths.Vector3{X: 1.5, Y: -2.25, Z: 8}

	var buf bytes.Buffer
	buf.Grow(32)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		s := NewWriter(&buf)
		if err := Tagged(s, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTagged_ReadVector3(b *testing.B) {
	v := maths.Vector3{X: 1.5, Y: -2.25, Z: 8}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := Tagged(w, &v); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s, err := NewReader(bytes.NewReader(data), Version)
		if err != nil {
			b.Fatal(err)
		}
		if err := Tagged(s, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTagged_WriteEnum(b *testing.B) {
	reg := NewTypeRegistry()
	reg.MustRegister("healthState", healthState(0))
	v := healthAlive

	var buf bytes.Buffer
	buf.Grow(32)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		s := NewWriter(&buf, WithTypes(reg))
		if err := Tagged(s, &v); err != nil {
			b.Fatal(err)
		}
	}
}
