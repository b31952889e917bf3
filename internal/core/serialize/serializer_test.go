package serialize

import (
	"bytes"
	"io"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/snapsync/snapsync/pkg/maths"
)

func TestRoundTripScalars(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	b := true
	i8 := int8(-100)
	i16 := int16(-30000)
	i32 := int32(-2000000000)
	i64 := int64(-9000000000000000000)
	u8 := uint8(200)
	u16 := uint16(60000)
	u32 := uint32(4000000000)
	u64 := uint64(18000000000000000000)
	f32 := float32(1.5e-39) // denormal
	f64 := -0.0
	nan := math.Float64frombits(0x7ff8000000000dea) // NaN with payload

	require.NoError(t, w.Bool(&b))
	require.NoError(t, w.Int8(&i8))
	require.NoError(t, w.Int16(&i16))
	require.NoError(t, w.Int32(&i32))
	require.NoError(t, w.Int64(&i64))
	require.NoError(t, w.Uint8(&u8))
	require.NoError(t, w.Uint16(&u16))
	require.NoError(t, w.Uint32(&u32))
	require.NoError(t, w.Uint64(&u64))
	require.NoError(t, w.Float32(&f32))
	require.NoError(t, w.Float64(&f64))
	require.NoError(t, w.Float64(&nan))
	require.NoError(t, w.Err())

	r, err := NewReader(&buf, Version)
	require.NoError(t, err)

	var gb bool
	var gi8 int8
	var gi16 int16
	var gi32 int32
	var gi64 int64
	var gu8 uint8
	var gu16 uint16
	var gu32 uint32
	var gu64 uint64
	var gf32 float32
	var gf64, gnan float64
	require.NoError(t, r.Bool(&gb))
	require.NoError(t, r.Int8(&gi8))
	require.NoError(t, r.Int16(&gi16))
	require.NoError(t, r.Int32(&gi32))
	require.NoError(t, r.Int64(&gi64))
	require.NoError(t, r.Uint8(&gu8))
	require.NoError(t, r.Uint16(&gu16))
	require.NoError(t, r.Uint32(&gu32))
	require.NoError(t, r.Uint64(&gu64))
	require.NoError(t, r.Float32(&gf32))
	require.NoError(t, r.Float64(&gf64))
	require.NoError(t, r.Float64(&gnan))

	require.Equal(t, b, gb)
	require.Equal(t, i8, gi8)
	require.Equal(t, i16, gi16)
	require.Equal(t, i32, gi32)
	require.Equal(t, i64, gi64)
	require.Equal(t, u8, gu8)
	require.Equal(t, u16, gu16)
	require.Equal(t, u32, gu32)
	require.Equal(t, u64, gu64)
	require.Equal(t, math.Float32bits(f32), math.Float32bits(gf32), "float32 bits must survive")
	require.Equal(t, math.Float64bits(f64), math.Float64bits(gf64), "negative zero bits must survive")
	require.Equal(t, math.Float64bits(nan), math.Float64bits(gnan), "NaN payload bits must survive")
	require.Zero(t, buf.Len(), "reader must consume exactly what the writer produced")
}

func TestRoundTripStringsAndBytes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	full := "héllo wörld \x00 binary ok"
	empty := ""
	present := "present"
	presentPtr := &present
	var nilPtr *string
	blob := []byte{0, 1, 2, 254, 255}
	var nilBlob []byte
	emptyBlob := []byte{}

	require.NoError(t, w.String(&full))
	require.NoError(t, w.String(&empty))
	require.NoError(t, w.StringPtr(&presentPtr))
	require.NoError(t, w.StringPtr(&nilPtr))
	require.NoError(t, w.Bytes(&blob))
	require.NoError(t, w.Bytes(&nilBlob))
	require.NoError(t, w.Bytes(&emptyBlob))

	r, err := NewReader(&buf, Version)
	require.NoError(t, err)

	var gFull, gEmpty string
	gPtr := new(string)
	gNilPtr := new(string)
	var gBlob, gNilBlob, gEmptyBlob []byte

	require.NoError(t, r.String(&gFull))
	require.NoError(t, r.String(&gEmpty))
	require.NoError(t, r.StringPtr(&gPtr))
	require.NoError(t, r.StringPtr(&gNilPtr))
	require.NoError(t, r.Bytes(&gBlob))
	require.NoError(t, r.Bytes(&gNilBlob))
	require.NoError(t, r.Bytes(&gEmptyBlob))

	require.Equal(t, full, gFull)
	require.Equal(t, empty, gEmpty)
	require.Equal(t, present, *gPtr)
	require.Nil(t, gNilPtr, "nil string pointer must stay nil, not become empty")
	require.Equal(t, blob, gBlob)
	require.Nil(t, gNilBlob)
	require.NotNil(t, gEmptyBlob)
	require.Len(t, gEmptyBlob, 0)
}

func TestRoundTripTimeAndIDs(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	ts := time.Date(2024, 11, 3, 17, 4, 5, 123456789, time.FixedZone("CET", 3600))
	dur := 90*time.Minute + 250*time.Nanosecond
	id := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
	ref := RefFromName("avatar/left-hand")
	nilRef := NilRef
	dec := decimal.RequireFromString("-1234567890.000000012345")

	require.NoError(t, w.Time(&ts))
	require.NoError(t, w.Duration(&dur))
	require.NoError(t, w.UUID(&id))
	require.NoError(t, w.Ref(&ref))
	require.NoError(t, w.Ref(&nilRef))
	require.NoError(t, w.Decimal(&dec))

	r, err := NewReader(&buf, Version)
	require.NoError(t, err)

	var gTS time.Time
	var gDur time.Duration
	var gID uuid.UUID
	var gRef, gNilRef Ref
	var gDec decimal.Decimal

	require.NoError(t, r.Time(&gTS))
	require.NoError(t, r.Duration(&gDur))
	require.NoError(t, r.UUID(&gID))
	require.NoError(t, r.Ref(&gRef))
	require.NoError(t, r.Ref(&gNilRef))
	require.NoError(t, r.Decimal(&gDec))

	require.True(t, ts.Equal(gTS), "wall time must survive: %v vs %v", ts, gTS)
	require.Equal(t, time.UTC, gTS.Location())
	require.Equal(t, dur, gDur)
	require.Equal(t, id, gID)
	require.Equal(t, ref, gRef)
	require.True(t, gNilRef.IsNil())
	require.True(t, dec.Equal(gDec), "decimal must survive exactly: %v vs %v", dec, gDec)
}

func TestRoundTripSpatial(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	v2 := maths.Vector2{X: 1.25, Y: -2.5}
	v3 := maths.Vector3{X: 1, Y: 2, Z: 3}
	v4 := maths.Vector4{X: -0, Y: 1, Z: 2, W: 3}
	q := maths.AxisAngle(maths.Vector3{Y: 1}, 1.25)
	m := maths.TRS(v3, q, maths.One3())
	c := maths.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}
	c32 := maths.Color32{R: 10, G: 20, B: 30, A: 255}

	require.NoError(t, w.Vector2(&v2))
	require.NoError(t, w.Vector3(&v3))
	require.NoError(t, w.Vector4(&v4))
	require.NoError(t, w.Quaternion(&q))
	require.NoError(t, w.Matrix4x4(&m))
	require.NoError(t, w.Color(&c))
	require.NoError(t, w.Color32(&c32))

	r, err := NewReader(&buf, Version)
	require.NoError(t, err)

	var gv2 maths.Vector2
	var gv3 maths.Vector3
	var gv4 maths.Vector4
	var gq maths.Quaternion
	var gm maths.Matrix4x4
	var gc maths.Color
	var gc32 maths.Color32

	require.NoError(t, r.Vector2(&gv2))
	require.NoError(t, r.Vector3(&gv3))
	require.NoError(t, r.Vector4(&gv4))
	require.NoError(t, r.Quaternion(&gq))
	require.NoError(t, r.Matrix4x4(&gm))
	require.NoError(t, r.Color(&gc))
	require.NoError(t, r.Color32(&gc32))

	require.Equal(t, v2, gv2)
	require.Equal(t, v3, gv3)
	require.Equal(t, v4, gv4)
	require.Equal(t, q, gq)
	require.Equal(t, m, gm)
	require.Equal(t, c, gc)
	require.Equal(t, c32, gc32)
}

func TestRefFromNameIsDeterministic(t *testing.T) {
	a := RefFromName("scene/door-1")
	b := RefFromName("scene/door-1")
	c := RefFromName("scene/door-2")
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.False(t, a.IsNil())
}

func TestReaderVersionRange(t *testing.T) {
	for _, v := range []int{0, -1, Version + 1} {
		_, err := NewReader(bytes.NewReader(nil), v)
		require.ErrorIs(t, err, ErrVersion, "version %d", v)
	}
	r, err := NewReader(bytes.NewReader(nil), Version)
	require.NoError(t, err)
	require.Equal(t, Version, r.Version())
	require.True(t, r.IsReading())
	require.False(t, r.IsWriting())
}

func TestTruncatedStream(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	n := int64(1234567)
	require.NoError(t, w.Int64(&n))

	r, err := NewReader(bytes.NewReader(buf.Bytes()[:3]), Version)
	require.NoError(t, err)
	var got int64
	require.ErrorIs(t, r.Int64(&got), ErrTruncated)
}

func TestBoolByteIsStrict(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte{2}), Version)
	require.NoError(t, err)
	var b bool
	require.ErrorIs(t, r.Bool(&b), ErrInvalidBool)
}

func TestSessionStaysPoisonedAfterError(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte{7}), Version)
	require.NoError(t, err)

	var b bool
	first := r.Bool(&b)
	require.ErrorIs(t, first, ErrInvalidBool)

	var n int32
	require.Equal(t, first, r.Int32(&n), "every later operation must return the first failure")
	require.Equal(t, first, r.Err())
}

func TestNullIntoPlainStringFails(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	var nilStr *string
	require.NoError(t, w.StringPtr(&nilStr))

	r, err := NewReader(&buf, Version)
	require.NoError(t, err)
	var s string
	require.ErrorIs(t, r.String(&s), ErrNullValue)
}

func TestOffsetCountsBytes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	n := uint32(9)
	require.NoError(t, w.Uint32(&n))
	require.Equal(t, int64(4), w.Offset())
	require.Equal(t, int64(buf.Len()), w.Offset())
}

type closeSpy struct {
	io.Reader
	closed bool
}

func (c *closeSpy) Close() error {
	c.closed = true
	return nil
}

func TestCloseReleasesStream(t *testing.T) {
	spy := &closeSpy{Reader: bytes.NewReader(nil)}
	r, err := NewReader(spy, Version)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.True(t, spy.closed)

	w := NewWriter(&bytes.Buffer{})
	require.NoError(t, w.Close(), "plain buffers close as a no-op")
}
