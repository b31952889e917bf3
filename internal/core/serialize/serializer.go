// Package serialize implements the versioned binary codec underneath state
// saving and replay. A Serializer is a single-direction session over a
// stream: the same operation call writes a value or reads it back depending
// on the session mode, so encoder and decoder logic cannot drift apart.
//
// All scalars are little-endian and floats travel as raw IEEE-754 bits, so
// every round trip is bit-exact. Counts and lengths are unsigned varints.
// Nullable values carry a presence byte; nil strings, slices, maps and
// objects survive a round trip as nil.
package serialize

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Version is the current wire protocol version. Readers accept every version
// from 1 up to and including this one; writers always produce it.
const Version = 1

// maxLen caps declared string, byte-block and collection sizes so a corrupt
// length prefix cannot trigger an absurd allocation.
const maxLen = 1 << 28

// Mode is the direction of a session.
type Mode uint8

const (
	// ModeWrite encodes values into the underlying writer.
	ModeWrite Mode = iota
	// ModeRead decodes values from the underlying reader.
	ModeRead
)

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeWrite {
		return "write"
	}
	return "read"
}

// Serializable is implemented by types that encode themselves through a
// Serializer. The same method runs in both modes; implementations check
// s.Version() when a field joined in a later protocol revision.
type Serializable interface {
	Serialize(s *Serializer) error
}

// Option configures a Serializer at construction time.
type Option func(*Serializer)

// WithTypes attaches the registry used by TypeRef and by tagged enum and
// object payloads.
func WithTypes(reg *TypeRegistry) Option {
	return func(s *Serializer) { s.types = reg }
}

// Serializer is one read or one write session. Mode and version are fixed
// for its lifetime. Operations become no-ops after the first failure and
// keep returning it; Err exposes it for callers that batch their checks.
type Serializer struct {
	mode    Mode
	version int
	w       io.Writer
	r       io.Reader
	types   *TypeRegistry
	off     int64
	err     error
	scratch [binary.MaxVarintLen64]byte
}

// NewWriter returns a write-mode session producing the current Version.
func NewWriter(w io.Writer, opts ...Option) *Serializer {
	s := &Serializer{mode: ModeWrite, version: Version, w: w}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewReader returns a read-mode session for data produced at version. The
// version travels outside the payload, in a file or frame header, and must
// lie within [1, Version].
func NewReader(r io.Reader, version int, opts ...Option) (*Serializer, error) {
	if version < 1 || version > Version {
		return nil, fmt.Errorf("serialize: version %d outside [1, %d]: %w", version, Version, ErrVersion)
	}
	s := &Serializer{mode: ModeRead, version: version, r: r}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mode returns the session direction.
func (s *Serializer) Mode() Mode { return s.mode }

// IsReading reports whether operations decode from the stream.
func (s *Serializer) IsReading() bool { return s.mode == ModeRead }

// IsWriting reports whether operations encode into the stream.
func (s *Serializer) IsWriting() bool { return s.mode == ModeWrite }

// Version returns the protocol version of this session.
func (s *Serializer) Version() int { return s.version }

// Offset returns the number of payload bytes consumed or produced so far.
func (s *Serializer) Offset() int64 { return s.off }

// Types returns the attached type registry, or nil.
func (s *Serializer) Types() *TypeRegistry { return s.types }

// Err returns the first error any operation hit, or nil.
func (s *Serializer) Err() error { return s.err }

// Close releases the underlying stream when it is an io.Closer.
func (s *Serializer) Close() error {
	var target any = s.w
	if s.mode == ModeRead {
		target = s.r
	}
	if c, ok := target.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// fail records the first error with operation and offset context and returns
// the poisoned session error.
func (s *Serializer) fail(op string, err error) error {
	if s.err == nil {
		s.err = fmt.Errorf("serialize: %s at offset %d: %w", op, s.off, err)
	}
	return s.err
}

func (s *Serializer) writeAll(op string, p []byte) error {
	if s.err != nil {
		return s.err
	}
	n, err := s.w.Write(p)
	s.off += int64(n)
	if err != nil {
		return s.fail(op, err)
	}
	return nil
}

func (s *Serializer) readFull(op string, p []byte) error {
	if s.err != nil {
		return s.err
	}
	n, err := io.ReadFull(s.r, p)
	s.off += int64(n)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return s.fail(op, ErrTruncated)
	}
	if err != nil {
		return s.fail(op, err)
	}
	return nil
}

func (s *Serializer) readByte(op string) (byte, error) {
	if err := s.readFull(op, s.scratch[:1]); err != nil {
		return 0, err
	}
	return s.scratch[0], nil
}

// boolByte moves a strict 0/1 byte. Both the Bool operation and every
// presence flag go through here.
func (s *Serializer) boolByte(op string, v *bool) error {
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		s.scratch[0] = 0
		if *v {
			s.scratch[0] = 1
		}
		return s.writeAll(op, s.scratch[:1])
	}
	b, err := s.readByte(op)
	if err != nil {
		return err
	}
	if b > 1 {
		return s.fail(op, fmt.Errorf("%w: 0x%02x", ErrInvalidBool, b))
	}
	*v = b == 1
	return nil
}

// uvarint moves an unsigned varint.
func (s *Serializer) uvarint(op string, v *uint64) error {
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		n := binary.PutUvarint(s.scratch[:], *v)
		return s.writeAll(op, s.scratch[:n])
	}
	var x uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := s.readByte(op)
		if err != nil {
			return err
		}
		if b < 0x80 {
			if i == binary.MaxVarintLen64-1 && b > 1 {
				return s.fail(op, fmt.Errorf("varint overflow: %w", ErrTooLarge))
			}
			x |= uint64(b) << shift
			break
		}
		if i == binary.MaxVarintLen64-1 {
			return s.fail(op, fmt.Errorf("varint overflow: %w", ErrTooLarge))
		}
		x |= uint64(b&0x7f) << shift
		shift += 7
	}
	*v = x
	return nil
}

// length moves a count bounded by maxLen.
func (s *Serializer) length(op string, n *int) error {
	if s.mode == ModeWrite {
		v := uint64(*n)
		return s.uvarint(op, &v)
	}
	var v uint64
	if err := s.uvarint(op, &v); err != nil {
		return err
	}
	if v > maxLen {
		return s.fail(op, fmt.Errorf("%w: %d", ErrTooLarge, v))
	}
	*n = int(v)
	return nil
}

// rawString moves a varint-length-prefixed string without a presence flag.
func (s *Serializer) rawString(op string, v *string) error {
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		n := len(*v)
		if err := s.length(op, &n); err != nil {
			return err
		}
		return s.writeAll(op, []byte(*v))
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	if n == 0 {
		*v = ""
		return nil
	}
	buf := make([]byte, n)
	if err := s.readFull(op, buf); err != nil {
		return err
	}
	*v = string(buf)
	return nil
}
