package serialize

import (
	"fmt"
	"reflect"
)

// Pair is a two-field tuple for the PairOf helper.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Integer is the element constraint for Enum: any fixed-width integer type,
// named or not.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Enum serializes a named integer compactly as a zigzag varint. This is the
// statically-typed form; the tagged form used by Tagged and Any additionally
// carries the registered type name.
func Enum[E Integer](s *Serializer, v *E) error {
	const op = "enum"
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		u := zigzag(int64(*v))
		return s.uvarint(op, &u)
	}
	var u uint64
	if err := s.uvarint(op, &u); err != nil {
		return err
	}
	*v = E(unzigzag(u))
	return nil
}

func zigzag(v int64) uint64 {
	return uint64(v<<1) ^ uint64(v>>63)
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

// Slice serializes *v with element handling derived from T. A nil slice
// round-trips as nil. []any gets per-element tags; every other element type
// is encoded raw behind a single element tag.
func Slice[T any](s *Serializer, v *[]T) error {
	return containerOp(s, v, VarTypeSlice, VarTypeAnySlice)
}

// Map serializes *v. A nil map round-trips as nil. map[string]any values are
// tagged per entry; other maps carry one key tag and one value tag up front.
// Entry order on the wire is whatever map iteration yields.
func Map[K comparable, V any](s *Serializer, v *map[K]V) error {
	return containerOp(s, v, VarTypeMap, VarTypeAnyMap)
}

// Set serializes *v, a struct{}-valued map. A nil set round-trips as nil.
func Set[T comparable](s *Serializer, v *map[T]struct{}) error {
	return containerOp(s, v, VarTypeSet, VarTypeAnySet)
}

// PairOf serializes a two-field tuple with both element tags up front.
func PairOf[A, B any](s *Serializer, v *Pair[A, B]) error {
	return containerOp(s, v, VarTypePair, VarTypePair)
}

// containerOp routes a typed container pointer through the shared payload
// codecs after checking T classifies at all.
func containerOp[T any](s *Serializer, v *T, want, altWant VarType) error {
	if s.err != nil {
		return s.err
	}
	rv := reflect.ValueOf(v).Elem()
	tag := s.types.typeOf(rv.Type())
	if tag != want && tag != altWant {
		return s.fail(want.String(), fmt.Errorf("%v: %w", rv.Type(), ErrUnsupportedType))
	}
	if s.mode == ModeWrite {
		return s.writeValue(rv, tag)
	}
	return s.readValue(rv, tag)
}

// FixedArray serializes exactly len(v) elements in place, with the count on
// the wire; a differing wire count fails with ErrLengthMismatch.
func FixedArray[T any](s *Serializer, v []T) error {
	if s.err != nil {
		return s.err
	}
	rv := reflect.ValueOf(v)
	if s.types.typeOf(rv.Type().Elem()) == VarTypeUnknown {
		return s.fail("array", fmt.Errorf("%v: %w", rv.Type(), ErrUnsupportedType))
	}
	if s.mode == ModeWrite {
		return s.writeArrayValue(rv)
	}
	return s.readArrayValue(rv)
}

// Object serializes an optional user object. Writing follows *v's presence;
// reading allocates or nils the target. The payload carries no type name
// because the type is static at both ends, unlike the tagged object form.
func Object[T any, PT interface {
	*T
	Serializable
}](s *Serializer, v **T) error {
	const op = "object"
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
		*v = new(T)
	}
	return PT(*v).Serialize(s)
}

// Collection payload codecs. Layouts, after the outer tag when one exists:
//
//	slice:    elemTag, presence, count, raw elements
//	array:    elemTag, count (must match target), raw elements
//	anyslice: presence, count, tagged elements
//	map:      keyTag, valTag, presence, count, raw pairs
//	anymap:   presence, count, (raw string key, tagged value) pairs
//	set:      elemTag, presence, count, raw elements
//	anyset:   presence, count, tagged elements
//	pair:     firstTag, secondTag, raw first, raw second

func (s *Serializer) writeSliceValue(rv reflect.Value) error {
	const op = "slice"
	elemTag := s.types.typeOf(rv.Type().Elem())
	if err := s.tagByte(op, &elemTag); err != nil {
		return err
	}
	present := !rv.IsNil()
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	if elemTag == VarTypeUint8 && rv.Type().Elem() == byteType {
		return s.writeAll(op, rv.Bytes())
	}
	for i := 0; i < n; i++ {
		if err := s.writeValue(rv.Index(i), elemTag); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readSliceValue(rv reflect.Value) error {
	const op = "slice"
	expected := s.types.typeOf(rv.Type().Elem())
	var elemTag VarType
	if err := s.tagByte(op, &elemTag); err != nil {
		return err
	}
	if elemTag != expected {
		return s.fail(op, fmt.Errorf("wire element %v, target %v: %w", elemTag, rv.Type().Elem(), ErrTagMismatch))
	}
	return s.readSliceBody(rv, elemTag)
}

// readSliceBody reads presence, count and elements into rv, which must be a
// settable slice value.
func (s *Serializer) readSliceBody(rv reflect.Value, elemTag VarType) error {
	const op = "slice"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		rv.SetZero()
		return nil
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	out := reflect.MakeSlice(rv.Type(), n, n)
	if elemTag == VarTypeUint8 && rv.Type().Elem() == byteType {
		if err := s.readFull(op, out.Bytes()); err != nil {
			return err
		}
		rv.Set(out)
		return nil
	}
	for i := 0; i < n; i++ {
		if err := s.readValue(out.Index(i), elemTag); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (s *Serializer) writeArrayValue(rv reflect.Value) error {
	const op = "array"
	elemTag := s.types.typeOf(rv.Type().Elem())
	if err := s.tagByte(op, &elemTag); err != nil {
		return err
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.writeValue(rv.Index(i), elemTag); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readArrayValue(rv reflect.Value) error {
	const op = "array"
	expected := s.types.typeOf(rv.Type().Elem())
	var elemTag VarType
	if err := s.tagByte(op, &elemTag); err != nil {
		return err
	}
	if elemTag != expected {
		return s.fail(op, fmt.Errorf("wire element %v, target %v: %w", elemTag, rv.Type().Elem(), ErrTagMismatch))
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	if n != rv.Len() {
		return s.fail(op, fmt.Errorf("wire count %d, target %d: %w", n, rv.Len(), ErrLengthMismatch))
	}
	for i := 0; i < n; i++ {
		if err := s.readValue(rv.Index(i), elemTag); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) writeAnySliceValue(rv reflect.Value) error {
	const op = "anyslice"
	present := !rv.IsNil()
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := s.writeTagged(rv.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readAnySliceValue(rv reflect.Value) error {
	const op = "anyslice"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		rv.SetZero()
		return nil
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	out := reflect.MakeSlice(rv.Type(), n, n)
	for i := 0; i < n; i++ {
		if err := s.readTagged(out.Index(i)); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (s *Serializer) writeMapValue(rv reflect.Value) error {
	const op = "map"
	keyTag := s.types.typeOf(rv.Type().Key())
	valTag := s.types.typeOf(rv.Type().Elem())
	if err := s.tagByte(op, &keyTag); err != nil {
		return err
	}
	if err := s.tagByte(op, &valTag); err != nil {
		return err
	}
	present := !rv.IsNil()
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	for it := rv.MapRange(); it.Next(); {
		if err := s.writeValue(it.Key(), keyTag); err != nil {
			return err
		}
		if err := s.writeValue(it.Value(), valTag); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readMapValue(rv reflect.Value) error {
	const op = "map"
	expectedKey := s.types.typeOf(rv.Type().Key())
	expectedVal := s.types.typeOf(rv.Type().Elem())
	var keyTag, valTag VarType
	if err := s.tagByte(op, &keyTag); err != nil {
		return err
	}
	if err := s.tagByte(op, &valTag); err != nil {
		return err
	}
	if keyTag != expectedKey || valTag != expectedVal {
		return s.fail(op, fmt.Errorf("wire %v->%v, target %v: %w", keyTag, valTag, rv.Type(), ErrTagMismatch))
	}
	return s.readMapBody(rv, keyTag, valTag)
}

func (s *Serializer) readMapBody(rv reflect.Value, keyTag, valTag VarType) error {
	const op = "map"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		rv.SetZero()
		return nil
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(rv.Type(), n)
	for i := 0; i < n; i++ {
		key := reflect.New(rv.Type().Key()).Elem()
		val := reflect.New(rv.Type().Elem()).Elem()
		if err := s.readValue(key, keyTag); err != nil {
			return err
		}
		if err := s.readValue(val, valTag); err != nil {
			return err
		}
		out.SetMapIndex(key, val)
	}
	rv.Set(out)
	return nil
}

func (s *Serializer) writeAnyMapValue(rv reflect.Value) error {
	const op = "anymap"
	present := !rv.IsNil()
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	for it := rv.MapRange(); it.Next(); {
		key := it.Key().String()
		if err := s.rawString(op, &key); err != nil {
			return err
		}
		if err := s.writeTagged(it.Value()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readAnyMapValue(rv reflect.Value) error {
	const op = "anymap"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		rv.SetZero()
		return nil
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(rv.Type(), n)
	for i := 0; i < n; i++ {
		var key string
		if err := s.rawString(op, &key); err != nil {
			return err
		}
		val := reflect.New(rv.Type().Elem()).Elem()
		if err := s.readTagged(val); err != nil {
			return err
		}
		out.SetMapIndex(reflect.ValueOf(key), val)
	}
	rv.Set(out)
	return nil
}

func (s *Serializer) writeSetValue(rv reflect.Value) error {
	const op = "set"
	elemTag := s.types.typeOf(rv.Type().Key())
	if err := s.tagByte(op, &elemTag); err != nil {
		return err
	}
	present := !rv.IsNil()
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	for it := rv.MapRange(); it.Next(); {
		if err := s.writeValue(it.Key(), elemTag); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readSetValue(rv reflect.Value) error {
	const op = "set"
	expected := s.types.typeOf(rv.Type().Key())
	var elemTag VarType
	if err := s.tagByte(op, &elemTag); err != nil {
		return err
	}
	if elemTag != expected {
		return s.fail(op, fmt.Errorf("wire element %v, target %v: %w", elemTag, rv.Type().Key(), ErrTagMismatch))
	}
	return s.readSetBody(rv, elemTag)
}

func (s *Serializer) readSetBody(rv reflect.Value, elemTag VarType) error {
	const op = "set"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		rv.SetZero()
		return nil
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(rv.Type(), n)
	empty := reflect.ValueOf(struct{}{})
	for i := 0; i < n; i++ {
		key := reflect.New(rv.Type().Key()).Elem()
		if err := s.readValue(key, elemTag); err != nil {
			return err
		}
		out.SetMapIndex(key, empty)
	}
	rv.Set(out)
	return nil
}

func (s *Serializer) writeAnySetValue(rv reflect.Value) error {
	const op = "anyset"
	present := !rv.IsNil()
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	n := rv.Len()
	if err := s.length(op, &n); err != nil {
		return err
	}
	for it := rv.MapRange(); it.Next(); {
		if err := s.writeTagged(it.Key()); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) readAnySetValue(rv reflect.Value) error {
	const op = "anyset"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		rv.SetZero()
		return nil
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return err
	}
	out := reflect.MakeMapWithSize(rv.Type(), n)
	empty := reflect.ValueOf(struct{}{})
	for i := 0; i < n; i++ {
		key := reflect.New(rv.Type().Key()).Elem()
		if err := s.readTagged(key); err != nil {
			return err
		}
		out.SetMapIndex(key, empty)
	}
	rv.Set(out)
	return nil
}

func (s *Serializer) writePairValue(rv reflect.Value) error {
	const op = "pair"
	firstTag := s.types.typeOf(rv.Type().Field(0).Type)
	secondTag := s.types.typeOf(rv.Type().Field(1).Type)
	if err := s.tagByte(op, &firstTag); err != nil {
		return err
	}
	if err := s.tagByte(op, &secondTag); err != nil {
		return err
	}
	if err := s.writeValue(rv.Field(0), firstTag); err != nil {
		return err
	}
	return s.writeValue(rv.Field(1), secondTag)
}

func (s *Serializer) readPairValue(rv reflect.Value) error {
	const op = "pair"
	expectedFirst := s.types.typeOf(rv.Type().Field(0).Type)
	expectedSecond := s.types.typeOf(rv.Type().Field(1).Type)
	var firstTag, secondTag VarType
	if err := s.tagByte(op, &firstTag); err != nil {
		return err
	}
	if err := s.tagByte(op, &secondTag); err != nil {
		return err
	}
	if firstTag != expectedFirst || secondTag != expectedSecond {
		return s.fail(op, fmt.Errorf("wire (%v, %v), target %v: %w", firstTag, secondTag, rv.Type(), ErrTagMismatch))
	}
	if err := s.readValue(rv.Field(0), firstTag); err != nil {
		return err
	}
	return s.readValue(rv.Field(1), secondTag)
}
