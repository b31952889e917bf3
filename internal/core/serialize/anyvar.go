package serialize

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snapsync/snapsync/pkg/maths"
)

// Tagged serializes a statically-typed value behind its VarType tag. The tag
// costs one byte and buys drift detection: a reader whose target type no
// longer matches the recorded field fails loudly instead of consuming the
// wrong bytes. Enums and objects must be registered in the session's type
// registry at both ends.
func Tagged[T any](s *Serializer, v *T) error {
	if s.err != nil {
		return s.err
	}
	rv := reflect.ValueOf(v).Elem()
	if s.mode == ModeWrite {
		return s.writeTagged(rv)
	}
	return s.readTagged(rv)
}

// Any serializes a heterogeneous value. Writing nil emits VarTypeNil;
// reading an unknown or future tag fails before any payload bytes are
// consumed, and the session stays poisoned so nothing can misalign after it.
func (s *Serializer) Any(v *any) error {
	return Tagged(s, v)
}

// tagByte moves one VarType byte. Writing an unclassifiable tag and reading
// an unknown one both fail.
func (s *Serializer) tagByte(op string, tag *VarType) error {
	if s.err != nil {
		return s.err
	}
	if s.mode == ModeWrite {
		if !tag.Valid() {
			return s.fail(op, fmt.Errorf("tag %v: %w", *tag, ErrUnsupportedType))
		}
		s.scratch[0] = byte(*tag)
		return s.writeAll(op, s.scratch[:1])
	}
	b, err := s.readByte(op)
	if err != nil {
		return err
	}
	t := VarType(b)
	if !t.Valid() {
		return s.fail(op, fmt.Errorf("%w: 0x%02x", ErrUnknownTag, b))
	}
	*tag = t
	return nil
}

func (s *Serializer) writeTagged(rv reflect.Value) error {
	const op = "any"
	for rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	tag := VarTypeNil
	if rv.IsValid() && rv.Kind() != reflect.Interface {
		tag = s.types.typeOf(rv.Type())
		if tag == VarTypeUnknown {
			return s.fail(op, fmt.Errorf("%v: %w", rv.Type(), ErrUnsupportedType))
		}
	}
	if err := s.tagByte(op, &tag); err != nil {
		return err
	}
	if tag == VarTypeNil {
		return nil
	}
	return s.writeValue(rv, tag)
}

func (s *Serializer) readTagged(rv reflect.Value) error {
	const op = "any"
	var tag VarType
	if err := s.tagByte(op, &tag); err != nil {
		return err
	}
	if tag == VarTypeNil {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
			rv.SetZero()
			return nil
		}
		return s.fail(op, fmt.Errorf("%v: %w", rv.Type(), ErrNullValue))
	}
	if rv.Kind() == reflect.Interface {
		out, err := s.readAnyValue(tag)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(out))
		return nil
	}
	expected := s.types.typeOf(rv.Type())
	if expected == VarTypeUnknown {
		return s.fail(op, fmt.Errorf("%v: %w", rv.Type(), ErrUnsupportedType))
	}
	if tag != expected {
		return s.fail(op, fmt.Errorf("wire %v into %v: %w", tag, rv.Type(), ErrTagMismatch))
	}
	return s.readValue(rv, tag)
}

// writeValue emits the payload for rv, whose classification is tag. The tag
// itself is the caller's business.
func (s *Serializer) writeValue(rv reflect.Value, tag VarType) error {
	switch tag {
	case VarTypeBool:
		b := rv.Bool()
		return s.Bool(&b)
	case VarTypeInt8:
		n := int8(rv.Int())
		return s.Int8(&n)
	case VarTypeInt16:
		n := int16(rv.Int())
		return s.Int16(&n)
	case VarTypeInt32:
		n := int32(rv.Int())
		return s.Int32(&n)
	case VarTypeInt64:
		n := rv.Int()
		return s.Int64(&n)
	case VarTypeUint8:
		n := uint8(rv.Uint())
		return s.Uint8(&n)
	case VarTypeUint16:
		n := uint16(rv.Uint())
		return s.Uint16(&n)
	case VarTypeUint32:
		n := uint32(rv.Uint())
		return s.Uint32(&n)
	case VarTypeUint64:
		n := rv.Uint()
		return s.Uint64(&n)
	case VarTypeFloat32:
		f := float32(rv.Float())
		return s.Float32(&f)
	case VarTypeFloat64:
		f := rv.Float()
		return s.Float64(&f)
	case VarTypeDecimal:
		d := rv.Interface().(decimal.Decimal)
		return s.Decimal(&d)
	case VarTypeString:
		str := rv.String()
		return s.String(&str)
	case VarTypeEnum:
		return s.writeEnumValue(rv)
	case VarTypeTypeRef:
		t := rv.Interface().(reflect.Type)
		return s.TypeRef(&t)
	case VarTypeUUID:
		u := rv.Interface().(uuid.UUID)
		return s.UUID(&u)
	case VarTypeRef:
		ref := rv.Interface().(Ref)
		return s.Ref(&ref)
	case VarTypeTime:
		ts := rv.Interface().(time.Time)
		return s.Time(&ts)
	case VarTypeDuration:
		d := rv.Interface().(time.Duration)
		return s.Duration(&d)
	case VarTypeVector2:
		vec := rv.Interface().(maths.Vector2)
		return s.Vector2(&vec)
	case VarTypeVector3:
		vec := rv.Interface().(maths.Vector3)
		return s.Vector3(&vec)
	case VarTypeVector4:
		vec := rv.Interface().(maths.Vector4)
		return s.Vector4(&vec)
	case VarTypeQuaternion:
		q := rv.Interface().(maths.Quaternion)
		return s.Quaternion(&q)
	case VarTypeMatrix4x4:
		m := rv.Interface().(maths.Matrix4x4)
		return s.Matrix4x4(&m)
	case VarTypeColor:
		c := rv.Interface().(maths.Color)
		return s.Color(&c)
	case VarTypeColor32:
		c := rv.Interface().(maths.Color32)
		return s.Color32(&c)
	case VarTypeArray:
		return s.writeArrayValue(rv)
	case VarTypeSlice:
		return s.writeSliceValue(rv)
	case VarTypeAnySlice:
		return s.writeAnySliceValue(rv)
	case VarTypeMap:
		return s.writeMapValue(rv)
	case VarTypeAnyMap:
		return s.writeAnyMapValue(rv)
	case VarTypeSet:
		return s.writeSetValue(rv)
	case VarTypeAnySet:
		return s.writeAnySetValue(rv)
	case VarTypePair:
		return s.writePairValue(rv)
	case VarTypeObject:
		return s.writeObjectValue(rv)
	}
	return s.fail("any", fmt.Errorf("tag %v: %w", tag, ErrUnsupportedType))
}

// readValue fills rv, which must be settable and already validated against
// tag, from the payload bytes.
func (s *Serializer) readValue(rv reflect.Value, tag VarType) error {
	switch tag {
	case VarTypeBool:
		var b bool
		if err := s.Bool(&b); err != nil {
			return err
		}
		rv.SetBool(b)
	case VarTypeInt8, VarTypeInt16, VarTypeInt32, VarTypeInt64:
		if err := s.readIntInto(rv, tag); err != nil {
			return err
		}
	case VarTypeUint8, VarTypeUint16, VarTypeUint32, VarTypeUint64:
		if err := s.readUintInto(rv, tag); err != nil {
			return err
		}
	case VarTypeFloat32:
		var f float32
		if err := s.Float32(&f); err != nil {
			return err
		}
		rv.SetFloat(float64(f))
	case VarTypeFloat64:
		var f float64
		if err := s.Float64(&f); err != nil {
			return err
		}
		rv.SetFloat(f)
	case VarTypeDecimal:
		var d decimal.Decimal
		if err := s.Decimal(&d); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(d))
	case VarTypeString:
		var str string
		if err := s.String(&str); err != nil {
			return err
		}
		rv.SetString(str)
	case VarTypeEnum:
		return s.readEnumValue(rv)
	case VarTypeTypeRef:
		var t reflect.Type
		if err := s.TypeRef(&t); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(t))
	case VarTypeUUID:
		var u uuid.UUID
		if err := s.UUID(&u); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(u))
	case VarTypeRef:
		var ref Ref
		if err := s.Ref(&ref); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(ref))
	case VarTypeTime:
		var ts time.Time
		if err := s.Time(&ts); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(ts))
	case VarTypeDuration:
		var d time.Duration
		if err := s.Duration(&d); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(d))
	case VarTypeVector2:
		var vec maths.Vector2
		if err := s.Vector2(&vec); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(vec))
	case VarTypeVector3:
		var vec maths.Vector3
		if err := s.Vector3(&vec); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(vec))
	case VarTypeVector4:
		var vec maths.Vector4
		if err := s.Vector4(&vec); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(vec))
	case VarTypeQuaternion:
		var q maths.Quaternion
		if err := s.Quaternion(&q); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(q))
	case VarTypeMatrix4x4:
		var m maths.Matrix4x4
		if err := s.Matrix4x4(&m); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(m))
	case VarTypeColor:
		var c maths.Color
		if err := s.Color(&c); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(c))
	case VarTypeColor32:
		var c maths.Color32
		if err := s.Color32(&c); err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(c))
	case VarTypeArray:
		return s.readArrayValue(rv)
	case VarTypeSlice:
		return s.readSliceValue(rv)
	case VarTypeAnySlice:
		return s.readAnySliceValue(rv)
	case VarTypeMap:
		return s.readMapValue(rv)
	case VarTypeAnyMap:
		return s.readAnyMapValue(rv)
	case VarTypeSet:
		return s.readSetValue(rv)
	case VarTypeAnySet:
		return s.readAnySetValue(rv)
	case VarTypePair:
		return s.readPairValue(rv)
	case VarTypeObject:
		return s.readObjectValue(rv)
	default:
		return s.fail("any", fmt.Errorf("tag %v: %w", tag, ErrUnsupportedType))
	}
	return nil
}

func (s *Serializer) readIntInto(rv reflect.Value, tag VarType) error {
	var n int64
	switch tag {
	case VarTypeInt8:
		var v int8
		if err := s.Int8(&v); err != nil {
			return err
		}
		n = int64(v)
	case VarTypeInt16:
		var v int16
		if err := s.Int16(&v); err != nil {
			return err
		}
		n = int64(v)
	case VarTypeInt32:
		var v int32
		if err := s.Int32(&v); err != nil {
			return err
		}
		n = int64(v)
	default:
		if err := s.Int64(&n); err != nil {
			return err
		}
	}
	rv.SetInt(n)
	return nil
}

func (s *Serializer) readUintInto(rv reflect.Value, tag VarType) error {
	var n uint64
	switch tag {
	case VarTypeUint8:
		var v uint8
		if err := s.Uint8(&v); err != nil {
			return err
		}
		n = uint64(v)
	case VarTypeUint16:
		var v uint16
		if err := s.Uint16(&v); err != nil {
			return err
		}
		n = uint64(v)
	case VarTypeUint32:
		var v uint32
		if err := s.Uint32(&v); err != nil {
			return err
		}
		n = uint64(v)
	default:
		if err := s.Uint64(&n); err != nil {
			return err
		}
	}
	rv.SetUint(n)
	return nil
}

// Tagged enum payload: registered type name, then the zigzag varint value.
func (s *Serializer) writeEnumValue(rv reflect.Value) error {
	const op = "enum"
	if s.types == nil {
		return s.fail(op, ErrNoRegistry)
	}
	name, ok := s.types.NameByType(rv.Type())
	if !ok {
		return s.fail(op, fmt.Errorf("%v: %w", rv.Type(), ErrTypeNotRegistered))
	}
	if err := s.rawString(op, &name); err != nil {
		return err
	}
	var n int64
	if isUintKind(rv.Kind()) {
		n = int64(rv.Uint())
	} else {
		n = rv.Int()
	}
	u := zigzag(n)
	return s.uvarint(op, &u)
}

func (s *Serializer) readEnumValue(rv reflect.Value) error {
	const op = "enum"
	if s.types == nil {
		return s.fail(op, ErrNoRegistry)
	}
	var name string
	if err := s.rawString(op, &name); err != nil {
		return err
	}
	t, ok := s.types.TypeByName(name)
	if !ok {
		return s.fail(op, fmt.Errorf("%q: %w", name, ErrTypeNotRegistered))
	}
	if t != rv.Type() {
		return s.fail(op, fmt.Errorf("wire enum %q is %v, target %v: %w", name, t, rv.Type(), ErrTagMismatch))
	}
	var u uint64
	if err := s.uvarint(op, &u); err != nil {
		return err
	}
	n := unzigzag(u)
	if isUintKind(rv.Kind()) {
		if rv.OverflowUint(uint64(n)) {
			return s.fail(op, fmt.Errorf("enum %q value %d overflows %v: %w", name, n, rv.Type(), ErrTagMismatch))
		}
		rv.SetUint(uint64(n))
		return nil
	}
	if rv.OverflowInt(n) {
		return s.fail(op, fmt.Errorf("enum %q value %d overflows %v: %w", name, n, rv.Type(), ErrTagMismatch))
	}
	rv.SetInt(n)
	return nil
}

func isUintKind(k reflect.Kind) bool {
	switch k {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// Tagged object payload: presence, registered type name, then the object's
// own Serialize bytes.
func (s *Serializer) writeObjectValue(rv reflect.Value) error {
	const op = "object"
	present := !(rv.Kind() == reflect.Pointer && rv.IsNil())
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		return nil
	}
	if s.types == nil {
		return s.fail(op, ErrNoRegistry)
	}
	t := rv.Type()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name, ok := s.types.NameByType(t)
	if !ok {
		return s.fail(op, fmt.Errorf("%v: %w", t, ErrTypeNotRegistered))
	}
	if err := s.rawString(op, &name); err != nil {
		return err
	}
	obj, ok := rv.Interface().(Serializable)
	if !ok {
		if !rv.CanAddr() {
			tmp := reflect.New(rv.Type())
			tmp.Elem().Set(rv)
			rv = tmp.Elem()
		}
		obj = rv.Addr().Interface().(Serializable)
	}
	return obj.Serialize(s)
}

func (s *Serializer) readObjectValue(rv reflect.Value) error {
	const op = "object"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	isPtr := rv.Kind() == reflect.Pointer
	if !present {
		if !isPtr {
			return s.fail(op, fmt.Errorf("%v: %w", rv.Type(), ErrNullValue))
		}
		rv.SetZero()
		return nil
	}
	if s.types == nil {
		return s.fail(op, ErrNoRegistry)
	}
	var name string
	if err := s.rawString(op, &name); err != nil {
		return err
	}
	elem := rv.Type()
	if isPtr {
		elem = elem.Elem()
	}
	t, ok := s.types.TypeByName(name)
	if !ok {
		return s.fail(op, fmt.Errorf("%q: %w", name, ErrTypeNotRegistered))
	}
	if t != elem {
		return s.fail(op, fmt.Errorf("wire object %q is %v, target %v: %w", name, t, elem, ErrTagMismatch))
	}
	if isPtr {
		if rv.IsNil() {
			rv.Set(reflect.New(elem))
		}
		return rv.Interface().(Serializable).Serialize(s)
	}
	return rv.Addr().Interface().(Serializable).Serialize(s)
}

// readAnyValue reconstructs a value of the tagged type into an interface.
// Self-contained tags and self-describing containers come back with their
// concrete types; a homogeneous container of enum, object or nested
// container elements cannot be rebuilt without a typed target and fails
// with ErrUnsupportedType.
func (s *Serializer) readAnyValue(tag VarType) (any, error) {
	const op = "any"
	if t, ok := leafType(tag); ok {
		out := reflect.New(t).Elem()
		if err := s.readValue(out, tag); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	}
	switch tag {
	case VarTypeTypeRef:
		var t reflect.Type
		if err := s.TypeRef(&t); err != nil {
			return nil, err
		}
		return t, nil
	case VarTypeEnum:
		return s.readAnyEnum()
	case VarTypeObject:
		return s.readAnyObject()
	case VarTypeSlice:
		var elemTag VarType
		if err := s.tagByte(op, &elemTag); err != nil {
			return nil, err
		}
		et, ok := leafType(elemTag)
		if !ok {
			return nil, s.fail(op, fmt.Errorf("slice of %v needs a typed target: %w", elemTag, ErrUnsupportedType))
		}
		out := reflect.New(reflect.SliceOf(et)).Elem()
		if err := s.readSliceBody(out, elemTag); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case VarTypeArray:
		return s.readAnyArray()
	case VarTypeMap:
		var keyTag, valTag VarType
		if err := s.tagByte(op, &keyTag); err != nil {
			return nil, err
		}
		if err := s.tagByte(op, &valTag); err != nil {
			return nil, err
		}
		kt, okKey := leafType(keyTag)
		vt, okVal := leafType(valTag)
		if !okKey || !okVal || !kt.Comparable() {
			return nil, s.fail(op, fmt.Errorf("map of %v->%v needs a typed target: %w", keyTag, valTag, ErrUnsupportedType))
		}
		out := reflect.New(reflect.MapOf(kt, vt)).Elem()
		if err := s.readMapBody(out, keyTag, valTag); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case VarTypeSet:
		var elemTag VarType
		if err := s.tagByte(op, &elemTag); err != nil {
			return nil, err
		}
		et, ok := leafType(elemTag)
		if !ok || !et.Comparable() {
			return nil, s.fail(op, fmt.Errorf("set of %v needs a typed target: %w", elemTag, ErrUnsupportedType))
		}
		out := reflect.New(reflect.MapOf(et, emptyStructType)).Elem()
		if err := s.readSetBody(out, elemTag); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case VarTypeAnySlice:
		out := reflect.New(reflect.TypeOf((*[]any)(nil)).Elem()).Elem()
		if err := s.readAnySliceValue(out); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case VarTypeAnyMap:
		out := reflect.New(reflect.TypeOf((*map[string]any)(nil)).Elem()).Elem()
		if err := s.readAnyMapValue(out); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case VarTypeAnySet:
		out := reflect.New(reflect.TypeOf((*map[any]struct{})(nil)).Elem()).Elem()
		if err := s.readAnySetValue(out); err != nil {
			return nil, err
		}
		return out.Interface(), nil
	case VarTypePair:
		return nil, s.fail(op, fmt.Errorf("pair needs a typed target: %w", ErrUnsupportedType))
	}
	return nil, s.fail(op, fmt.Errorf("tag %v: %w", tag, ErrUnsupportedType))
}

func (s *Serializer) readAnyEnum() (any, error) {
	const op = "enum"
	if s.types == nil {
		return nil, s.fail(op, ErrNoRegistry)
	}
	var name string
	if err := s.rawString(op, &name); err != nil {
		return nil, err
	}
	t, ok := s.types.TypeByName(name)
	if !ok {
		return nil, s.fail(op, fmt.Errorf("%q: %w", name, ErrTypeNotRegistered))
	}
	var u uint64
	if err := s.uvarint(op, &u); err != nil {
		return nil, err
	}
	n := unzigzag(u)
	out := reflect.New(t).Elem()
	if isUintKind(out.Kind()) {
		out.SetUint(uint64(n))
	} else {
		out.SetInt(n)
	}
	return out.Interface(), nil
}

func (s *Serializer) readAnyObject() (any, error) {
	const op = "object"
	var present bool
	if err := s.boolByte(op, &present); err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	if s.types == nil {
		return nil, s.fail(op, ErrNoRegistry)
	}
	var name string
	if err := s.rawString(op, &name); err != nil {
		return nil, err
	}
	t, ok := s.types.TypeByName(name)
	if !ok {
		return nil, s.fail(op, fmt.Errorf("%q: %w", name, ErrTypeNotRegistered))
	}
	ptr := reflect.New(t)
	obj, ok := ptr.Interface().(Serializable)
	if !ok {
		return nil, s.fail(op, fmt.Errorf("%q is not serializable: %w", name, ErrUnsupportedType))
	}
	if err := obj.Serialize(s); err != nil {
		return nil, err
	}
	return obj, nil
}

func (s *Serializer) readAnyArray() (any, error) {
	const op = "array"
	var elemTag VarType
	if err := s.tagByte(op, &elemTag); err != nil {
		return nil, err
	}
	et, ok := leafType(elemTag)
	if !ok {
		return nil, s.fail(op, fmt.Errorf("array of %v needs a typed target: %w", elemTag, ErrUnsupportedType))
	}
	var n int
	if err := s.length(op, &n); err != nil {
		return nil, err
	}
	out := reflect.New(reflect.ArrayOf(n, et)).Elem()
	for i := 0; i < n; i++ {
		if err := s.readValue(out.Index(i), elemTag); err != nil {
			return nil, err
		}
	}
	return out.Interface(), nil
}
