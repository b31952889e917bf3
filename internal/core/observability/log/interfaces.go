// Package log wraps zap behind a small structured logging interface so the
// rest of the module never imports zap directly. Libraries default to the
// no-op logger; binaries construct a real one and hand it down.
package log

import "time"

// Log is the logging surface handed to components.
type Log interface {
	// Log writes a message at an explicit level.
	Log(level Level, msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	// With returns a logger that attaches fields to every message.
	With(fields ...Field) Log
	SetLevel(level Level)
	GetLevel() Level
}

// Level is the message severity.
type Level uint8

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	// LevelNone disables all output.
	LevelNone Level = 0xFF
)

// FieldType discriminates the Field value union.
type FieldType uint8

const (
	AnyType FieldType = iota
	BoolType
	DurationType
	ErrorType
	Float32Type
	Float64Type
	Int32Type
	Int64Type
	StringType
	Uint64Type
)

// Field is one structured key/value attached to a message.
type Field struct {
	Key   string
	Type  FieldType
	Value any
}

// Any wraps a value of any type.
func Any(key string, value any) Field {
	return Field{Key: key, Type: AnyType, Value: value}
}

// Bool wraps a boolean.
func Bool(key string, value bool) Field {
	return Field{Key: key, Type: BoolType, Value: value}
}

// Duration wraps a duration.
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Type: DurationType, Value: value}
}

// Float32 wraps a float32.
func Float32(key string, value float32) Field {
	return Field{Key: key, Type: Float32Type, Value: value}
}

// Float64 wraps a float64.
func Float64(key string, value float64) Field {
	return Field{Key: key, Type: Float64Type, Value: value}
}

// Int wraps an int.
func Int(key string, value int) Field {
	return Field{Key: key, Type: Int64Type, Value: int64(value)}
}

// Int32 wraps an int32.
func Int32(key string, value int32) Field {
	return Field{Key: key, Type: Int32Type, Value: value}
}

// Int64 wraps an int64.
func Int64(key string, value int64) Field {
	return Field{Key: key, Type: Int64Type, Value: value}
}

// String wraps a string.
func String(key string, value string) Field {
	return Field{Key: key, Type: StringType, Value: value}
}

// Stringer wraps a fmt.Stringer-ish value lazily via Any.
func Stringer(key string, value interface{ String() string }) Field {
	return Field{Key: key, Type: AnyType, Value: value}
}

// Uint64 wraps a uint64.
func Uint64(key string, value uint64) Field {
	return Field{Key: key, Type: Uint64Type, Value: value}
}

// Error wraps an error under the standard "error" key.
func Error(err error) Field {
	return Field{Key: "error", Type: ErrorType, Value: err}
}

// ErrorWithKey wraps an error under a custom key.
func ErrorWithKey(key string, err error) Field {
	return Field{Key: key, Type: ErrorType, Value: err}
}
