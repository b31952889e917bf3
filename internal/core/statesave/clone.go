package statesave

import (
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
)

// equalWithTolerance reports whether the current value matches the cached
// snapshot closely enough to skip the transfer. Floats compare within tol
// at any nesting depth, so spatial types get per-component slack.
func equalWithTolerance(cur, cached any, tol float64) bool {
	a := reflect.ValueOf(cur)
	b := reflect.ValueOf(cached)
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}
	return equalValues(a, b, tol)
}

func equalValues(a, b reflect.Value, tol float64) bool {
	if a.Type() != b.Type() {
		return false
	}
	if a.CanInterface() {
		switch a.Type() {
		case timeType:
			return a.Interface().(time.Time).Equal(b.Interface().(time.Time))
		case decimalType:
			return a.Interface().(decimal.Decimal).Equal(b.Interface().(decimal.Decimal))
		}
	}
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return math.Abs(a.Float()-b.Float()) <= tol
	case reflect.String:
		return a.String() == b.String()
	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return equalValues(a.Elem(), b.Elem(), tol)
	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return equalValues(a.Elem(), b.Elem(), tol)
	case reflect.Slice:
		// A nil slice and an empty one serialize differently, so they
		// must not compare equal.
		if a.IsNil() != b.IsNil() {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		for i := 0; i < a.Len(); i++ {
			if !equalValues(a.Index(i), b.Index(i), tol) {
				return false
			}
		}
		return true
	case reflect.Array:
		for i := 0; i < a.Len(); i++ {
			if !equalValues(a.Index(i), b.Index(i), tol) {
				return false
			}
		}
		return true
	case reflect.Map:
		if a.IsNil() != b.IsNil() {
			return false
		}
		if a.Len() != b.Len() {
			return false
		}
		iter := a.MapRange()
		for iter.Next() {
			bv := b.MapIndex(iter.Key())
			if !bv.IsValid() || !equalValues(iter.Value(), bv, tol) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < a.NumField(); i++ {
			if !equalValues(a.Field(i), b.Field(i), tol) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// cloneForCache snapshots a value so later mutation of the live object
// cannot alias the cache. Value types copy directly; slices, maps and
// pointers are duplicated at every depth.
func cloneForCache(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	return cloneValue(rv).Interface()
}

func cloneValue(rv reflect.Value) reflect.Value {
	t := rv.Type()
	switch t {
	case timeType, decimalType:
		return rv
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(t, rv.Len(), rv.Len())
		if !needsDeepClone(t.Elem()) {
			reflect.Copy(out, rv)
			return out
		}
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneValue(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(t, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(cloneValue(iter.Key()), cloneValue(iter.Value()))
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return rv
		}
		out := reflect.New(t.Elem())
		out.Elem().Set(cloneValue(rv.Elem()))
		return out
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		out := reflect.New(t).Elem()
		out.Set(cloneValue(rv.Elem()))
		return out
	case reflect.Array:
		if !needsDeepClone(t.Elem()) {
			return rv
		}
		out := reflect.New(t).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneValue(rv.Index(i)))
		}
		return out
	case reflect.Struct:
		if !needsDeepClone(t) {
			return rv
		}
		out := reflect.New(t).Elem()
		for i := 0; i < rv.NumField(); i++ {
			f := out.Field(i)
			if !f.CanSet() {
				// Unexported fields cannot be rebuilt; fall back to the
				// shallow struct copy.
				return rv
			}
			f.Set(cloneValue(rv.Field(i)))
		}
		return out
	default:
		return rv
	}
}

func needsDeepClone(t reflect.Type) bool {
	switch t {
	case timeType, decimalType:
		return false
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return true
	case reflect.Array:
		return needsDeepClone(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if needsDeepClone(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
