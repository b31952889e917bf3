package serialize

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/snapsync/snapsync/pkg/maths"
)

func testRegistry(t *testing.T) *TypeRegistry {
	t.Helper()
	reg := NewTypeRegistry()
	reg.MustRegister("healthState", healthState(0))
	reg.MustRegister("loadout", &loadout{})
	return reg
}

func anyRoundTrip(t *testing.T, reg *TypeRegistry, in any) any {
	t.Helper()
	var buf bytes.Buffer
	var opts []Option
	if reg != nil {
		opts = append(opts, WithTypes(reg))
	}
	w := NewWriter(&buf, opts...)
	require.NoError(t, w.Any(&in))

	r, err := NewReader(&buf, Version, opts...)
	require.NoError(t, err)
	var got any
	require.NoError(t, r.Any(&got))
	require.Zero(t, buf.Len(), "trailing bytes after read")
	return got
}

func TestAnyRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	ts := time.Unix(1730000000, 987654321).UTC()

	tests := []struct {
		name string
		in   any
	}{
		{"nil", nil},
		{"bool", true},
		{"int8", int8(-3)},
		{"int16", int16(-300)},
		{"int32", int32(-70000)},
		{"int64", int64(1) << 60},
		{"uint8", uint8(9)},
		{"uint16", uint16(900)},
		{"uint32", uint32(90000)},
		{"uint64", uint64(1) << 63},
		{"float32", float32(3.5)},
		{"float64", -12.125},
		{"string", "payload"},
		{"empty string", ""},
		{"decimal", decimal.RequireFromString("42.000001")},
		{"uuid", uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")},
		{"ref", RefFromName("entity/7")},
		{"time", ts},
		{"duration", 3 * time.Second},
		{"vector2", maths.Vector2{X: 1, Y: 2}},
		{"vector3", maths.Vector3{X: 1, Y: 2, Z: 3}},
		{"vector4", maths.Vector4{X: 1, Y: 2, Z: 3, W: 4}},
		{"quaternion", maths.QuaternionIdentity()},
		{"matrix", maths.MatrixIdentity()},
		{"color", maths.Color{R: 1, A: 1}},
		{"color32", maths.Color32{R: 255, A: 128}},
		{"int slice", []int32{1, 2, 3}},
		{"nil int slice", []int32(nil)},
		{"string slice", []string{"a", "b"}},
		{"map", map[string]float64{"x": 1.5}},
		{"set", map[int64]struct{}{4: {}}},
		{"any slice", []any{int32(1), "two", 3.5, nil}},
		{"any map", map[string]any{"n": int64(1), "s": "v"}},
		{"any set", map[any]struct{}{int32(1): {}, "k": {}}},
		{"enum", healthDead},
		{"array", [3]float32{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := anyRoundTrip(t, reg, tt.in)
			require.Equal(t, tt.in, got)
		})
	}
}

func TestAnyObjectRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	got := anyRoundTrip(t, reg, &loadout{Weapon: "pike", Ammo: 1})
	obj, ok := got.(*loadout)
	require.True(t, ok, "object must come back with its concrete type, got %T", got)
	require.Equal(t, loadout{Weapon: "pike", Ammo: 1}, *obj)
}

func TestAnyTypeRefRoundTrip(t *testing.T) {
	reg := testRegistry(t)
	got := anyRoundTrip(t, reg, reflect.TypeOf((*loadout)(nil)).Elem())
	typ, ok := got.(reflect.Type)
	require.True(t, ok, "got %T", got)
	require.Equal(t, reflect.TypeOf((*loadout)(nil)).Elem(), typ)
}

func TestAnyPreservesTypedNil(t *testing.T) {
	got := anyRoundTrip(t, nil, []int32(nil))
	slice, ok := got.([]int32)
	require.True(t, ok, "typed nil must keep its slice type, got %T", got)
	require.Nil(t, slice)
}

func TestAnyUnknownTagRejected(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte{0xEE, 0x01, 0x02, 0x03}), Version)
	require.NoError(t, err)

	var got any
	readErr := r.Any(&got)
	require.ErrorIs(t, readErr, ErrUnknownTag)
	require.Nil(t, got)

	// The session is poisoned: nothing after the bad tag can be decoded,
	// so a stream cannot continue misaligned.
	var n int32
	require.Equal(t, readErr, r.Int32(&n))
	require.Equal(t, int64(1), r.Offset(), "only the tag byte may be consumed")
}

func TestTaggedDetectsTargetDrift(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	n := int32(7)
	require.NoError(t, Tagged(w, &n))

	r, err := NewReader(&buf, Version)
	require.NoError(t, err)
	var s string
	require.ErrorIs(t, Tagged(r, &s), ErrTagMismatch)
}

func TestTaggedRoundTripTypedTargets(t *testing.T) {
	reg := testRegistry(t)

	t.Run("scalar", func(t *testing.T) {
		in := int64(-9)
		var got int64
		roundTrip(t, reg,
			func(s *Serializer) error { return Tagged(s, &in) },
			func(s *Serializer) error { return Tagged(s, &got) },
		)
		require.Equal(t, in, got)
	})

	t.Run("enum carries its name", func(t *testing.T) {
		in := healthDowned
		var got healthState
		roundTrip(t, reg,
			func(s *Serializer) error { return Tagged(s, &in) },
			func(s *Serializer) error { return Tagged(s, &got) },
		)
		require.Equal(t, in, got)
	})

	t.Run("nested slice needs typed target", func(t *testing.T) {
		in := [][]int32{{1}, {2, 3}}
		var got [][]int32
		roundTrip(t, reg,
			func(s *Serializer) error { return Tagged(s, &in) },
			func(s *Serializer) error { return Tagged(s, &got) },
		)
		require.Equal(t, in, got)
	})

	t.Run("pair", func(t *testing.T) {
		in := Pair[int32, string]{First: 1, Second: "one"}
		var got Pair[int32, string]
		roundTrip(t, reg,
			func(s *Serializer) error { return Tagged(s, &in) },
			func(s *Serializer) error { return Tagged(s, &got) },
		)
		require.Equal(t, in, got)
	})
}

func TestAnyNestedCollectionNeedsTypedTarget(t *testing.T) {
	reg := testRegistry(t)
	var buf bytes.Buffer
	w := NewWriter(&buf, WithTypes(reg))
	in := any([][]int32{{1}})
	require.NoError(t, w.Any(&in))

	r, err := NewReader(&buf, Version, WithTypes(reg))
	require.NoError(t, err)
	var got any
	require.ErrorIs(t, r.Any(&got), ErrUnsupportedType)
}

func TestAnyUnregisteredEnumDegradesToInteger(t *testing.T) {
	// Without a registry entry a named integer travels as its width, so it
	// comes back as the plain integer type.
	got := anyRoundTrip(t, nil, healthDead)
	require.Equal(t, uint8(healthDead), got)
}

func TestAnyUnsupportedValueFailsEarly(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	in := any(make(chan int))
	require.ErrorIs(t, w.Any(&in), ErrUnsupportedType)
	require.Zero(t, buf.Len(), "nothing may hit the wire for an unsupported value")
}
