package serialize

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeRegistry maps stable wire names to concrete Go types, so payload
// self-description survives package moves and renames. Registries are
// injected into sessions through WithTypes; there is no package-level
// default.
//
// Pointer prototypes are reduced to their element type, so registering
// (*Enemy)(nil) and Enemy{} name the same type.
type TypeRegistry struct {
	mu     sync.RWMutex
	byName map[string]reflect.Type
	byType map[reflect.Type]string
}

// NewTypeRegistry returns an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		byName: make(map[string]reflect.Type),
		byType: make(map[reflect.Type]string),
	}
}

// Register binds name to the prototype's dynamic type. Duplicate names and
// duplicate types both fail.
func (r *TypeRegistry) Register(name string, prototype any) error {
	t := normalizeType(reflect.TypeOf(prototype))
	if t == nil {
		return fmt.Errorf("serialize: register %q: nil prototype: %w", name, ErrUnsupportedType)
	}
	if name == "" {
		return fmt.Errorf("serialize: register %v: empty name: %w", t, ErrUnsupportedType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byName[name]; ok {
		return fmt.Errorf("serialize: register %q: already bound to %v: %w", name, prev, ErrTypeRegistered)
	}
	if prev, ok := r.byType[t]; ok {
		return fmt.Errorf("serialize: register %q: type %v already bound to %q: %w", name, t, prev, ErrTypeRegistered)
	}
	r.byName[name] = t
	r.byType[t] = name
	return nil
}

// MustRegister is Register for init-time tables; it panics on error.
func (r *TypeRegistry) MustRegister(name string, prototype any) {
	if err := r.Register(name, prototype); err != nil {
		panic(err)
	}
}

// TypeByName returns the type bound to name.
func (r *TypeRegistry) TypeByName(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byName[name]
	return t, ok
}

// NameByType returns the name bound to t, reducing pointer types first.
func (r *TypeRegistry) NameByType(t reflect.Type) (string, bool) {
	t = normalizeType(t)
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byType[t]
	return name, ok
}

// NameOf returns the registered name of v's dynamic type.
func (r *TypeRegistry) NameOf(v any) (string, bool) {
	return r.NameByType(reflect.TypeOf(v))
}

// Len returns the number of registered types.
func (r *TypeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

func normalizeType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeRef serializes a reference to a registered type by its stable name.
// A nil target encodes absence. Both directions need a registry: writing
// resolves the name, reading resolves it back.
func (s *Serializer) TypeRef(t *reflect.Type) error {
	const op = "typeref"
	if s.err != nil {
		return s.err
	}
	if s.types == nil {
		return s.fail(op, ErrNoRegistry)
	}
	present := *t != nil
	if err := s.boolByte(op, &present); err != nil {
		return err
	}
	if !present {
		if s.mode == ModeRead {
			*t = nil
		}
		return nil
	}
	if s.mode == ModeWrite {
		name, ok := s.types.NameByType(*t)
		if !ok {
			return s.fail(op, fmt.Errorf("%v: %w", *t, ErrTypeNotRegistered))
		}
		return s.rawString(op, &name)
	}
	var name string
	if err := s.rawString(op, &name); err != nil {
		return err
	}
	typ, ok := s.types.TypeByName(name)
	if !ok {
		return s.fail(op, fmt.Errorf("%q: %w", name, ErrTypeNotRegistered))
	}
	*t = typ
	return nil
}
