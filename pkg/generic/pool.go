package generic

import (
	"bytes"
	"sync"
)

// Pool is a typed wrapper around sync.Pool. An optional reset hook runs on
// every Put so pooled values never leak previous contents.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

// NewPool returns a pool that allocates values with generate.
func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

// NewResetPool returns a pool whose values are passed through reset before
// being made available again.
func NewResetPool[T any](generate func() T, reset func(T)) *Pool[T] {
	p := NewPool(generate)
	p.reset = reset
	return p
}

// NewHotPool returns a pool pre-seeded with hotSize values.
func NewHotPool[T any](generate func() T, hotSize int) *Pool[T] {
	p := NewPool(generate)
	for i := 0; i < hotSize; i++ {
		p.pool.Put(generate())
	}
	return p
}

// NewBufferPool returns a pool of scratch byte buffers reset on Put.
func NewBufferPool() *Pool[*bytes.Buffer] {
	return NewResetPool(
		func() *bytes.Buffer { return new(bytes.Buffer) },
		func(b *bytes.Buffer) { b.Reset() },
	)
}

// Get takes a value from the pool, allocating when empty.
func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

// Put returns a value to the pool after resetting it.
func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		p.reset(value)
	}
	p.pool.Put(value)
}
