package serialize

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/snapsync/snapsync/pkg/maths"
)

// VarType is the wire tag that lets a value describe its own type. Tagged
// payloads (Tagged, Any and the heterogeneous collections) carry it as a
// single byte in front of the value bytes.
//
// The tag space is closed and append-only: new tags go at the end, existing
// values never change meaning or number, and removed types keep their slot
// reserved. Renumbering would silently corrupt every recorded stream.
type VarType uint8

const (
	// VarTypeUnknown marks an unclassifiable value. It is never valid on
	// the wire.
	VarTypeUnknown VarType = iota
	// VarTypeNil is a null of any nullable type. It has no payload.
	VarTypeNil
	VarTypeBool
	VarTypeInt8
	VarTypeInt16
	VarTypeInt32
	VarTypeInt64
	VarTypeUint8
	VarTypeUint16
	VarTypeUint32
	VarTypeUint64
	VarTypeFloat32
	VarTypeFloat64
	VarTypeDecimal
	VarTypeString
	// VarTypeEnum is a registered named integer type. Its tagged payload
	// carries the registered type name before the value.
	VarTypeEnum
	VarTypeTypeRef
	VarTypeUUID
	VarTypeRef
	VarTypeTime
	VarTypeDuration
	VarTypeVector2
	VarTypeVector3
	VarTypeVector4
	VarTypeQuaternion
	VarTypeMatrix4x4
	VarTypeColor
	VarTypeColor32
	// VarTypeArray is a fixed-length homogeneous sequence; the wire count
	// must match the target's length.
	VarTypeArray
	VarTypeSlice
	// VarTypeAnySlice is a heterogeneous sequence; every element carries
	// its own tag.
	VarTypeAnySlice
	VarTypeMap
	// VarTypeAnyMap is a string-keyed map with tagged values.
	VarTypeAnyMap
	VarTypeSet
	// VarTypeAnySet is a set of tagged elements.
	VarTypeAnySet
	VarTypePair
	// VarTypeObject is a user type implementing Serializable. Its tagged
	// payload carries the registered type name before the object bytes.
	VarTypeObject

	varTypeCount
)

var varTypeNames = [...]string{
	VarTypeUnknown:    "unknown",
	VarTypeNil:        "nil",
	VarTypeBool:       "bool",
	VarTypeInt8:       "int8",
	VarTypeInt16:      "int16",
	VarTypeInt32:      "int32",
	VarTypeInt64:      "int64",
	VarTypeUint8:      "uint8",
	VarTypeUint16:     "uint16",
	VarTypeUint32:     "uint32",
	VarTypeUint64:     "uint64",
	VarTypeFloat32:    "float32",
	VarTypeFloat64:    "float64",
	VarTypeDecimal:    "decimal",
	VarTypeString:     "string",
	VarTypeEnum:       "enum",
	VarTypeTypeRef:    "typeref",
	VarTypeUUID:       "uuid",
	VarTypeRef:        "ref",
	VarTypeTime:       "time",
	VarTypeDuration:   "duration",
	VarTypeVector2:    "vector2",
	VarTypeVector3:    "vector3",
	VarTypeVector4:    "vector4",
	VarTypeQuaternion: "quaternion",
	VarTypeMatrix4x4:  "matrix4x4",
	VarTypeColor:      "color",
	VarTypeColor32:    "color32",
	VarTypeArray:      "array",
	VarTypeSlice:      "slice",
	VarTypeAnySlice:   "anyslice",
	VarTypeMap:        "map",
	VarTypeAnyMap:     "anymap",
	VarTypeSet:        "set",
	VarTypeAnySet:     "anyset",
	VarTypePair:       "pair",
	VarTypeObject:     "object",
}

// String returns the tag name.
func (t VarType) String() string {
	if int(t) < len(varTypeNames) {
		return varTypeNames[t]
	}
	return fmt.Sprintf("vartype(%d)", uint8(t))
}

// Valid reports whether t is a tag this version can decode.
func (t VarType) Valid() bool {
	return t > VarTypeUnknown && t < varTypeCount
}

var (
	boolType         = reflect.TypeOf((*bool)(nil)).Elem()
	stringType       = reflect.TypeOf((*string)(nil)).Elem()
	timeType         = reflect.TypeOf((*time.Time)(nil)).Elem()
	durationType     = reflect.TypeOf((*time.Duration)(nil)).Elem()
	uuidType         = reflect.TypeOf((*uuid.UUID)(nil)).Elem()
	refType          = reflect.TypeOf((*Ref)(nil)).Elem()
	decimalType      = reflect.TypeOf((*decimal.Decimal)(nil)).Elem()
	vector2Type      = reflect.TypeOf((*maths.Vector2)(nil)).Elem()
	vector3Type      = reflect.TypeOf((*maths.Vector3)(nil)).Elem()
	vector4Type      = reflect.TypeOf((*maths.Vector4)(nil)).Elem()
	quaternionType   = reflect.TypeOf((*maths.Quaternion)(nil)).Elem()
	matrixType       = reflect.TypeOf((*maths.Matrix4x4)(nil)).Elem()
	colorType        = reflect.TypeOf((*maths.Color)(nil)).Elem()
	color32Type      = reflect.TypeOf((*maths.Color32)(nil)).Elem()
	byteType         = reflect.TypeOf((*byte)(nil)).Elem()
	anyType          = reflect.TypeOf((*any)(nil)).Elem()
	emptyStructType  = reflect.TypeOf((*struct{})(nil)).Elem()
	reflectTypeType  = reflect.TypeOf((*reflect.Type)(nil)).Elem()
	serializableType = reflect.TypeOf((*Serializable)(nil)).Elem()
	pairPkgPath      = reflect.TypeOf((*Pair[bool, bool])(nil)).Elem().PkgPath()
)

// TypeOf classifies a live value. A nil interface is VarTypeNil; anything
// outside the supported set is VarTypeUnknown, never a panic.
func (r *TypeRegistry) TypeOf(v any) VarType {
	if v == nil {
		return VarTypeNil
	}
	if _, ok := v.(reflect.Type); ok {
		return VarTypeTypeRef
	}
	return r.typeOf(reflect.TypeOf(v))
}

// typeOf classifies a static type. It works on a possibly-nil registry so
// sessions without one still classify everything except enums.
func (r *TypeRegistry) typeOf(t reflect.Type) VarType {
	if t == nil {
		return VarTypeNil
	}
	switch t {
	case timeType:
		return VarTypeTime
	case durationType:
		return VarTypeDuration
	case uuidType:
		return VarTypeUUID
	case refType:
		return VarTypeRef
	case decimalType:
		return VarTypeDecimal
	case vector2Type:
		return VarTypeVector2
	case vector3Type:
		return VarTypeVector3
	case vector4Type:
		return VarTypeVector4
	case quaternionType:
		return VarTypeQuaternion
	case matrixType:
		return VarTypeMatrix4x4
	case colorType:
		return VarTypeColor
	case color32Type:
		return VarTypeColor32
	}
	if t.Implements(reflectTypeType) {
		return VarTypeTypeRef
	}
	if isPairType(t) {
		return VarTypePair
	}

	switch t.Kind() {
	case reflect.Bool:
		return VarTypeBool
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		// A registered named integer is an enum; an unregistered one
		// degrades to its underlying width.
		if t.PkgPath() != "" && r != nil {
			if _, ok := r.NameByType(t); ok {
				return VarTypeEnum
			}
		}
		return integerTag(t.Kind())
	case reflect.Float32:
		return VarTypeFloat32
	case reflect.Float64:
		return VarTypeFloat64
	case reflect.String:
		return VarTypeString
	case reflect.Struct:
		if reflect.PointerTo(t).Implements(serializableType) {
			return VarTypeObject
		}
		return VarTypeUnknown
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Struct && t.Implements(serializableType) {
			return VarTypeObject
		}
		return VarTypeUnknown
	case reflect.Slice:
		// Only the empty interface is heterogeneous; a []error cannot
		// hold an arbitrary reconstructed value.
		if t.Elem() == anyType {
			return VarTypeAnySlice
		}
		if r.typeOf(t.Elem()) == VarTypeUnknown {
			return VarTypeUnknown
		}
		return VarTypeSlice
	case reflect.Array:
		if r.typeOf(t.Elem()) == VarTypeUnknown {
			return VarTypeUnknown
		}
		return VarTypeArray
	case reflect.Map:
		return r.mapTag(t)
	default:
		return VarTypeUnknown
	}
}

func (r *TypeRegistry) mapTag(t reflect.Type) VarType {
	key, val := t.Key(), t.Elem()
	if val == emptyStructType {
		if key == anyType {
			return VarTypeAnySet
		}
		if key.Kind() == reflect.Interface || r.typeOf(key) == VarTypeUnknown {
			return VarTypeUnknown
		}
		return VarTypeSet
	}
	if val == anyType {
		if key == stringType {
			return VarTypeAnyMap
		}
		return VarTypeUnknown
	}
	if key.Kind() == reflect.Interface || val.Kind() == reflect.Interface {
		return VarTypeUnknown
	}
	if r.typeOf(key) == VarTypeUnknown || r.typeOf(val) == VarTypeUnknown {
		return VarTypeUnknown
	}
	return VarTypeMap
}

func integerTag(k reflect.Kind) VarType {
	switch k {
	case reflect.Int8:
		return VarTypeInt8
	case reflect.Int16:
		return VarTypeInt16
	case reflect.Int32:
		return VarTypeInt32
	case reflect.Int64:
		return VarTypeInt64
	case reflect.Uint8:
		return VarTypeUint8
	case reflect.Uint16:
		return VarTypeUint16
	case reflect.Uint32:
		return VarTypeUint32
	default:
		return VarTypeUint64
	}
}

func isPairType(t reflect.Type) bool {
	return t.Kind() == reflect.Struct &&
		t.PkgPath() == pairPkgPath &&
		strings.HasPrefix(t.Name(), "Pair[")
}

// leafTypes maps self-contained tags back to the Go type a heterogeneous
// payload reconstructs. Collection, enum, pair and object tags are absent:
// those need a typed target or carry their own description.
var leafTypes = [...]reflect.Type{
	VarTypeBool:       boolType,
	VarTypeInt8:       reflect.TypeOf((*int8)(nil)).Elem(),
	VarTypeInt16:      reflect.TypeOf((*int16)(nil)).Elem(),
	VarTypeInt32:      reflect.TypeOf((*int32)(nil)).Elem(),
	VarTypeInt64:      reflect.TypeOf((*int64)(nil)).Elem(),
	VarTypeUint8:      byteType,
	VarTypeUint16:     reflect.TypeOf((*uint16)(nil)).Elem(),
	VarTypeUint32:     reflect.TypeOf((*uint32)(nil)).Elem(),
	VarTypeUint64:     reflect.TypeOf((*uint64)(nil)).Elem(),
	VarTypeFloat32:    reflect.TypeOf((*float32)(nil)).Elem(),
	VarTypeFloat64:    reflect.TypeOf((*float64)(nil)).Elem(),
	VarTypeDecimal:    decimalType,
	VarTypeString:     stringType,
	VarTypeUUID:       uuidType,
	VarTypeRef:        refType,
	VarTypeTime:       timeType,
	VarTypeDuration:   durationType,
	VarTypeVector2:    vector2Type,
	VarTypeVector3:    vector3Type,
	VarTypeVector4:    vector4Type,
	VarTypeQuaternion: quaternionType,
	VarTypeMatrix4x4:  matrixType,
	VarTypeColor:      colorType,
	VarTypeColor32:    color32Type,
}

func leafType(tag VarType) (reflect.Type, bool) {
	if int(tag) < len(leafTypes) && leafTypes[tag] != nil {
		return leafTypes[tag], true
	}
	return nil, false
}
