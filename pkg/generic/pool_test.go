package generic

import "testing"

func TestPoolReusesValues(t *testing.T) {
	allocs := 0
	p := NewPool(func() *int {
		allocs++
		v := new(int)
		return v
	})

	v := p.Get()
	*v = 42
	p.Put(v)
	got := p.Get()
	if allocs != 1 {
		t.Fatalf("allocs = %d, want 1", allocs)
	}
	if *got != 42 {
		t.Fatalf("pooled value = %d", *got)
	}
}

func TestBufferPoolResetsOnPut(t *testing.T) {
	p := NewBufferPool()

	b := p.Get()
	b.WriteString("stale")
	p.Put(b)

	if got := p.Get(); got.Len() != 0 {
		t.Fatalf("buffer not reset, %d bytes remain", got.Len())
	}
}

func TestHotPoolPreseeds(t *testing.T) {
	allocs := 0
	p := NewHotPool(func() int {
		allocs++
		return allocs
	}, 3)
	if allocs != 3 {
		t.Fatalf("preseed allocs = %d, want 3", allocs)
	}
	p.Get()
}
