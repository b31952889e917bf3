package serialize

import "github.com/google/uuid"

// refNamespace scopes name-derived handles to this wire format.
var refNamespace = uuid.MustParse("f9c1d8a2-74f2-40cb-a1be-3fa4ce48ea21")

// Ref is a stable 16-byte handle identifying an entity across sessions,
// processes and recorded frames. The zero value NilRef means "no entity";
// it is how an absent reference travels on the wire.
type Ref uuid.UUID

// NilRef is the absent reference.
var NilRef Ref

// NewRef returns a fresh random handle.
func NewRef() Ref {
	return Ref(uuid.New())
}

// RefFromName returns the deterministic handle for a stable name. The same
// name always yields the same handle, which keeps a scene object addressable
// across runs without persisting an identifier map.
func RefFromName(name string) Ref {
	return Ref(uuid.NewSHA1(refNamespace, []byte(name)))
}

// IsNil reports whether r identifies nothing.
func (r Ref) IsNil() bool {
	return r == NilRef
}

// String returns the canonical UUID form of the handle.
func (r Ref) String() string {
	return uuid.UUID(r).String()
}

// Ref serializes a handle as 16 raw bytes. NilRef encodes absence; there is
// no separate presence flag.
func (s *Serializer) Ref(v *Ref) error {
	const op = "ref"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		return s.writeAll(op, v[:])
	}
	return s.readFull(op, v[:])
}
