package binschema

import "github.com/puzpuzpuz/xsync/v4"

// Registry maps dispatch tags to element types for fields whose type is
// selected by an earlier field's value. A lookup that misses falls back to
// the catch-all type supplied at construction, so every resolver built
// from a Registry has an explicit unknown-tag policy. Registration and
// lookup are safe for concurrent use.
type Registry struct {
	types    *xsync.Map[string, Type]
	fallback Type
}

// NewRegistry creates a Registry with the given catch-all type. It panics
// on a nil fallback: a registry without an unknown-tag policy is always a
// programming error.
func NewRegistry(fallback Type) *Registry {
	if fallback == nil {
		panic("binschema: NewRegistry called with a nil fallback Type")
	}
	return &Registry{types: xsync.NewMap[string, Type](), fallback: fallback}
}

// Register binds tag to t. Registering the same tag again overwrites the
// earlier binding.
func (r *Registry) Register(tag string, t Type) {
	r.types.Store(tag, t)
}

// Lookup returns the type registered for tag, or the fallback.
func (r *Registry) Lookup(tag string) Type {
	if t, ok := r.types.Load(tag); ok {
		return t
	}
	return r.fallback
}

// Resolver builds a TypeResolver dispatching on the tag produced by tagOf,
// typically the string form of an earlier field.
func (r *Registry) Resolver(tagOf func(*Composite) (string, error)) TypeResolver {
	return func(c *Composite) (Type, error) {
		tag, err := tagOf(c)
		if err != nil {
			return nil, err
		}
		return r.Lookup(tag), nil
	}
}
