package serialize

import "github.com/snapsync/snapsync/pkg/maths"

// Vector2 serializes a 2-component vector.
func (s *Serializer) Vector2(v *maths.Vector2) error {
	if err := s.Float32(&v.X); err != nil {
		return err
	}
	return s.Float32(&v.Y)
}

// Vector3 serializes a 3-component vector.
func (s *Serializer) Vector3(v *maths.Vector3) error {
	if err := s.Float32(&v.X); err != nil {
		return err
	}
	if err := s.Float32(&v.Y); err != nil {
		return err
	}
	return s.Float32(&v.Z)
}

// Vector4 serializes a 4-component vector.
func (s *Serializer) Vector4(v *maths.Vector4) error {
	if err := s.Float32(&v.X); err != nil {
		return err
	}
	if err := s.Float32(&v.Y); err != nil {
		return err
	}
	if err := s.Float32(&v.Z); err != nil {
		return err
	}
	return s.Float32(&v.W)
}

// Quaternion serializes a rotation as four float32 components.
func (s *Serializer) Quaternion(v *maths.Quaternion) error {
	if err := s.Float32(&v.X); err != nil {
		return err
	}
	if err := s.Float32(&v.Y); err != nil {
		return err
	}
	if err := s.Float32(&v.Z); err != nil {
		return err
	}
	return s.Float32(&v.W)
}

// Matrix4x4 serializes a matrix in its column-major element order.
func (s *Serializer) Matrix4x4(v *maths.Matrix4x4) error {
	for i := range v {
		if err := s.Float32(&v[i]); err != nil {
			return err
		}
	}
	return nil
}

// Color serializes an RGBA color with float32 channels.
func (s *Serializer) Color(v *maths.Color) error {
	if err := s.Float32(&v.R); err != nil {
		return err
	}
	if err := s.Float32(&v.G); err != nil {
		return err
	}
	if err := s.Float32(&v.B); err != nil {
		return err
	}
	return s.Float32(&v.A)
}

// Color32 serializes an RGBA color with one byte per channel.
func (s *Serializer) Color32(v *maths.Color32) error {
	if err := s.Uint8(&v.R); err != nil {
		return err
	}
	if err := s.Uint8(&v.G); err != nil {
		return err
	}
	if err := s.Uint8(&v.B); err != nil {
		return err
	}
	return s.Uint8(&v.A)
}
