// Package registry tracks live entities by their stable serialize.Ref
// handles. Recorded state never stores pointers, only handles; this registry
// is the lookup seam that turns a handle from the wire back into the live
// object it names.
package registry

import (
	"errors"
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/snapsync/snapsync/internal/core/serialize"
)

var (
	// ErrAlreadyRegistered indicates a second registration for a handle.
	ErrAlreadyRegistered = errors.New("registry: ref already registered")
	// ErrNilRef indicates an attempt to register the nil handle.
	ErrNilRef = errors.New("registry: nil ref")
)

// Resolver is the read side of a registry. The transform codec and the
// replay player depend on this single method, not on the full registry.
type Resolver interface {
	// Resolve returns the live object a handle names.
	Resolve(ref serialize.Ref) (any, bool)
}

// Registry is a concurrent handle-to-object map. Host engines register and
// unregister entities from loader goroutines while a record or playback pass
// resolves on another, so every method is safe for concurrent use.
type Registry struct {
	entries *xsync.MapOf[serialize.Ref, any]
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: xsync.NewMapOf[serialize.Ref, any]()}
}

// Register binds ref to obj. Rebinding a live handle is always a bug, so a
// duplicate fails rather than silently replacing the object.
func (r *Registry) Register(ref serialize.Ref, obj any) error {
	if ref.IsNil() {
		return ErrNilRef
	}
	if _, loaded := r.entries.LoadOrStore(ref, obj); loaded {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, ref)
	}
	return nil
}

// Unregister removes a handle and reports whether it was present.
func (r *Registry) Unregister(ref serialize.Ref) bool {
	_, present := r.entries.LoadAndDelete(ref)
	return present
}

// Resolve returns the object bound to ref.
func (r *Registry) Resolve(ref serialize.Ref) (any, bool) {
	if ref.IsNil() {
		return nil, false
	}
	return r.entries.Load(ref)
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return r.entries.Size()
}

// ForEach visits every binding until fn returns false.
func (r *Registry) ForEach(fn func(ref serialize.Ref, obj any) bool) {
	r.entries.Range(fn)
}
