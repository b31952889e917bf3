package statesave

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/snapsync/snapsync/internal/core/serialize"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	at := time.Unix(1700000000, 0)
	c.now = func() time.Time { return at }

	c.FieldSerialized(FieldEvent{Name: "health", Changed: true, Bytes: 4})
	c.FieldSerialized(FieldEvent{Name: "health", Changed: false})
	c.FieldSerialized(FieldEvent{Name: "health", Changed: true, Bytes: 2})
	c.FieldSerialized(FieldEvent{Name: "health", Err: errors.New("boom")})

	st, ok := c.Stats("health")
	require.True(t, ok)
	require.Equal(t, uint64(2), st.Transfers)
	require.Equal(t, uint64(1), st.Skips)
	require.Equal(t, uint64(6), st.Bytes)
	require.Equal(t, uint64(1), st.Errors)
	require.Equal(t, at, st.LastChange)

	_, ok = c.Stats("missing")
	require.False(t, ok)

	var seen int
	c.ForEach(func(name string, st FieldStats) {
		seen++
		require.Equal(t, "health", name)
	})
	require.Equal(t, 1, seen)

	c.Reset()
	_, ok = c.Stats("health")
	require.False(t, ok)
}

func TestTrackerReportsToMonitor(t *testing.T) {
	c := NewCollector()
	tr := NewTracker(WithMonitor(c))
	v := int32(10)

	var buf bytes.Buffer
	p := tr.Begin(serialize.NewWriter(&buf), LevelComplete)
	_, err := Value(p, "v", &v)
	require.NoError(t, err)

	// A second, unchanged delta records a skip.
	p = tr.Begin(serialize.NewWriter(&bytes.Buffer{}), LevelSincePrevious)
	_, err = Value(p, "v", &v)
	require.NoError(t, err)

	st, ok := c.Stats("v")
	require.True(t, ok)
	require.Equal(t, uint64(1), st.Transfers)
	require.Equal(t, uint64(1), st.Skips)
	// flag byte + tag byte + zigzag varint
	require.Equal(t, uint64(3), st.Bytes)
}
