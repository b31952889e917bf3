package maths

// Color is an RGBA color with float32 channels, nominally in [0, 1].
type Color struct {
	R, G, B, A float32
}

// Color32 is an RGBA color with one byte per channel.
type Color32 struct {
	R, G, B, A uint8
}

// ToColor32 converts c to the byte representation, clamping each channel
// to [0, 1] first.
func (c Color) ToColor32() Color32 {
	return Color32{clampByte(c.R), clampByte(c.G), clampByte(c.B), clampByte(c.A)}
}

// ToColor converts c to the float representation.
func (c Color32) ToColor() Color {
	return Color{
		float32(c.R) / 255,
		float32(c.G) / 255,
		float32(c.B) / 255,
		float32(c.A) / 255,
	}
}

func clampByte(f float32) uint8 {
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(f*255 + 0.5)
}
