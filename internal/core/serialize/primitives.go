package serialize

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Bool serializes a boolean as a strict 0/1 byte.
func (s *Serializer) Bool(v *bool) error {
	return s.boolByte("bool", v)
}

// Int8 serializes a signed 8-bit integer.
func (s *Serializer) Int8(v *int8) error {
	const op = "int8"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		s.scratch[0] = byte(*v)
		return s.writeAll(op, s.scratch[:1])
	}
	b, err := s.readByte(op)
	if err != nil {
		return err
	}
	*v = int8(b)
	return nil
}

// Uint8 serializes an unsigned 8-bit integer.
func (s *Serializer) Uint8(v *uint8) error {
	const op = "uint8"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		s.scratch[0] = *v
		return s.writeAll(op, s.scratch[:1])
	}
	b, err := s.readByte(op)
	if err != nil {
		return err
	}
	*v = b
	return nil
}

// Int16 serializes a signed 16-bit integer.
func (s *Serializer) Int16(v *int16) error {
	u := uint16(*v)
	if err := s.Uint16(&u); err != nil {
		return err
	}
	*v = int16(u)
	return nil
}

// Uint16 serializes an unsigned 16-bit integer.
func (s *Serializer) Uint16(v *uint16) error {
	const op = "uint16"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		binary.LittleEndian.PutUint16(s.scratch[:2], *v)
		return s.writeAll(op, s.scratch[:2])
	}
	if err := s.readFull(op, s.scratch[:2]); err != nil {
		return err
	}
	*v = binary.LittleEndian.Uint16(s.scratch[:2])
	return nil
}

// Int32 serializes a signed 32-bit integer.
func (s *Serializer) Int32(v *int32) error {
	u := uint32(*v)
	if err := s.Uint32(&u); err != nil {
		return err
	}
	*v = int32(u)
	return nil
}

// Uint32 serializes an unsigned 32-bit integer.
func (s *Serializer) Uint32(v *uint32) error {
	const op = "uint32"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		binary.LittleEndian.PutUint32(s.scratch[:4], *v)
		return s.writeAll(op, s.scratch[:4])
	}
	if err := s.readFull(op, s.scratch[:4]); err != nil {
		return err
	}
	*v = binary.LittleEndian.Uint32(s.scratch[:4])
	return nil
}

// Int64 serializes a signed 64-bit integer.
func (s *Serializer) Int64(v *int64) error {
	u := uint64(*v)
	if err := s.Uint64(&u); err != nil {
		return err
	}
	*v = int64(u)
	return nil
}

// Uint64 serializes an unsigned 64-bit integer.
func (s *Serializer) Uint64(v *uint64) error {
	const op = "uint64"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		binary.LittleEndian.PutUint64(s.scratch[:8], *v)
		return s.writeAll(op, s.scratch[:8])
	}
	if err := s.readFull(op, s.scratch[:8]); err != nil {
		return err
	}
	*v = binary.LittleEndian.Uint64(s.scratch[:8])
	return nil
}

// Float32 serializes a float as its raw IEEE-754 bits, so NaN payloads and
// signed zeros survive round trips untouched.
func (s *Serializer) Float32(v *float32) error {
	u := math.Float32bits(*v)
	if err := s.Uint32(&u); err != nil {
		return err
	}
	*v = math.Float32frombits(u)
	return nil
}

// Float64 serializes a double as its raw IEEE-754 bits.
func (s *Serializer) Float64(v *float64) error {
	u := math.Float64bits(*v)
	if err := s.Uint64(&u); err != nil {
		return err
	}
	*v = math.Float64frombits(u)
	return nil
}

// Decimal serializes an arbitrary-precision decimal through its binary
// representation (scale plus integer mantissa), which is exact by
// construction.
func (s *Serializer) Decimal(v *decimal.Decimal) error {
	const op = "decimal"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		raw, err := v.MarshalBinary()
		if err != nil {
			return s.fail(op, err)
		}
		n := len(raw)
		if err := s.length(op, &n); err != nil {
			return err
		}
		return s.writeAll(op, raw)
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	raw := make([]byte, n)
	if err := s.readFull(op, raw); err != nil {
		return err
	}
	if err := v.UnmarshalBinary(raw); err != nil {
		return s.fail(op, err)
	}
	return nil
}

// String serializes a string that is always present. Empty stays empty; a
// null on the wire (producible only by a StringPtr writer) fails because a
// plain string cannot hold it.
func (s *Serializer) String(v *string) error {
	const op = "string"
	if s.err != nil {
		return s.err
	}
	present := true
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return s.fail(op, ErrNullValue)
	}
	return s.rawString(op, v)
}

// StringPtr serializes an optional string. A nil pointer round-trips as nil,
// distinct from a pointer to the empty string.
func (s *Serializer) StringPtr(v **string) error {
	const op = "string"
	if s.err != nil {
		return s.err
	}
	present := *v != nil
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		if s.mode == ModeRead {
			*v = nil
		}
		return nil
	}
	if s.mode == ModeRead && *v == nil {
		*v = new(string)
	}
	return s.rawString(op, *v)
}

// Bytes serializes a raw byte block. A nil slice round-trips as nil.
func (s *Serializer) Bytes(v *[]byte) error {
	const op = "bytes"
	if s.err != nil {
		return s.err
	}
	present := *v != nil
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		if s.mode == ModeRead {
			*v = nil
		}
		return nil
	}
	if s.mode == ModeWrite {
		n := len(*v)
		if err := s.length(op, &n); err != nil {
			return err
		}
		return s.writeAll(op, *v)
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	*v = make([]byte, n)
	return s.readFull(op, *v)
}

// Time serializes an instant as unix seconds plus nanoseconds. Wall time is
// exact; the monotonic reading and the location are not carried, and decoded
// values are UTC.
func (s *Serializer) Time(v *time.Time) error {
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		sec := v.Unix()
		nsec := int32(v.Nanosecond())
		if err := s.Int64(&sec); err != nil {
			return err
		}
		return s.Int32(&nsec)
	}
	var sec int64
	var nsec int32
	if err := s.Int64(&sec); err != nil {
		return err
	}
	if err := s.Int32(&nsec); err != nil {
		return err
	}
	*v = time.Unix(sec, int64(nsec)).UTC()
	return nil
}

// Duration serializes a duration as int64 nanoseconds.
func (s *Serializer) Duration(v *time.Duration) error {
	n := int64(*v)
	if err := s.Int64(&n); err != nil {
		return err
	}
	*v = time.Duration(n)
	return nil
}

// UUID serializes an identifier as 16 raw bytes.
func (s *Serializer) UUID(v *uuid.UUID) error {
	const op = "uuid"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		return s.writeAll(op, v[:])
	}
	return s.readFull(op, v[:])
}
