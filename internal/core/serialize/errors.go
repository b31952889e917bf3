package serialize

import "errors"

// Format errors mean the wire data is malformed or contradicts the target
// type. They poison the session: once one occurs every later operation
// returns it, so a misaligned stream can never be decoded past the fault.
var (
	// ErrTruncated indicates the stream ended inside a value.
	ErrTruncated = errors.New("truncated stream")
	// ErrInvalidBool indicates a boolean byte that was neither 0 nor 1.
	ErrInvalidBool = errors.New("invalid boolean byte")
	// ErrUnknownTag indicates a type tag this version does not recognize.
	ErrUnknownTag = errors.New("unknown type tag")
	// ErrTagMismatch indicates a wire tag that contradicts the target type.
	ErrTagMismatch = errors.New("type tag mismatch")
	// ErrVersion indicates a protocol version outside the supported range.
	ErrVersion = errors.New("unsupported version")
	// ErrLengthMismatch indicates a fixed-size collection whose element
	// count on the wire differs from the target's.
	ErrLengthMismatch = errors.New("length mismatch")
	// ErrTooLarge indicates a declared length beyond the sanity limit.
	ErrTooLarge = errors.New("declared length too large")
	// ErrNullValue indicates a null on the wire for a target that cannot
	// hold one.
	ErrNullValue = errors.New("null value for non-null target")
)

// Usage errors mean the caller misconfigured the session rather than fed it
// bad data.
var (
	// ErrUnsupportedType indicates a value outside the serializable type set.
	ErrUnsupportedType = errors.New("unsupported type")
	// ErrTypeNotRegistered indicates a type or name absent from the registry.
	ErrTypeNotRegistered = errors.New("type not registered")
	// ErrTypeRegistered indicates a duplicate type registration.
	ErrTypeRegistered = errors.New("type already registered")
	// ErrNoRegistry indicates a type-carrying operation on a session built
	// without a type registry.
	ErrNoRegistry = errors.New("no type registry configured")
)
