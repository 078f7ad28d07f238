package binschema

import "fmt"

// CountResolver yields a field's element count from the composite built so
// far.
type CountResolver func(*Composite) (int, error)

// DefaultResolver yields a field's default value from the composite built
// so far.
type DefaultResolver func(*Composite) (any, error)

// TypeResolver yields a field's concrete element type from the composite
// built so far, for fields whose type is only known once earlier fields
// are (tagged unions). A resolver may only reference fields declared
// earlier in the schema: during unpack, later fields do not exist yet.
type TypeResolver func(*Composite) (Type, error)

// Field is the declarative specification of one record field.
type Field struct {
	// Name is the field's lookup key. Names must be unique within a
	// schema.
	Name string

	// Type is the element type. Exactly one of Type and Resolve must be
	// set.
	Type Type

	// Resolve selects the element type at pack/unpack time.
	Resolve TypeResolver

	// Count is the element count. The zero value means a single element.
	Count CountSpec

	// Default is applied when reading or packing a field with no stored
	// value. The zero value means the field is required.
	Default DefaultSpec
}

// elemType resolves the field's concrete element type against c.
func (f *Field) elemType(c *Composite) (Type, error) {
	if f.Type != nil {
		return f.Type, nil
	}
	t, err := f.Resolve(c)
	if err != nil {
		return nil, fmt.Errorf("binschema: resolve type of field %q: %w", f.Name, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: type resolver for field %q returned no type", ErrSchema, f.Name)
	}
	return t, nil
}

// CountSpec is the repeat count of one field: a non-negative literal, or a
// resolver evaluated against the composite at pack/unpack time. The zero
// value is a literal 1.
type CountSpec struct {
	n       int
	fn      CountResolver
	literal bool
}

// Count declares a literal element count. A count of 0 makes the field
// structurally absent: it is never read or written and rejects assignment.
func Count(n int) CountSpec { return CountSpec{n: n, literal: true} }

// CountFunc declares a dynamic count computed by fn.
func CountFunc(fn CountResolver) CountSpec { return CountSpec{fn: fn} }

// CountedBy declares a dynamic count equal to the integer value of a
// previously declared field, the usual shape of a length-prefixed list.
func CountedBy(name string) CountSpec {
	return CountFunc(func(c *Composite) (int, error) {
		n, err := c.GetInt(name)
		if err != nil {
			return 0, err
		}
		return int(n), nil
	})
}

func (cs CountSpec) dynamic() bool { return cs.fn != nil }

// literalValue returns the declared literal count; 1 for the zero value.
func (cs CountSpec) literalValue() int {
	if !cs.literal {
		return 1
	}
	return cs.n
}

// value resolves the count against c. Literal counts do not consult c.
func (cs CountSpec) value(c *Composite) (int, error) {
	if cs.fn == nil {
		return cs.literalValue(), nil
	}
	n, err := cs.fn(c)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: count resolver returned %d", ErrSchema, n)
	}
	return n, nil
}

// DefaultSpec is a field's default value: a raw literal, a resolver, or no
// default at all (the zero value).
type DefaultSpec struct {
	raw any
	fn  DefaultResolver
	has bool
}

// Default declares a literal default value. For fields with a count above
// one the default is per element, not per list.
func Default(v any) DefaultSpec { return DefaultSpec{raw: v, has: true} }

// DefaultFunc declares a default computed against the composite at
// read/pack time.
func DefaultFunc(fn DefaultResolver) DefaultSpec { return DefaultSpec{fn: fn, has: true} }

// CountOf declares a default equal to the number of values currently held
// by another field, the usual shape of a length-prefix field.
func CountOf(name string) DefaultSpec {
	return DefaultFunc(func(c *Composite) (any, error) {
		n, err := c.Len(name)
		if err != nil {
			return nil, err
		}
		return n, nil
	})
}

// resolve produces the raw default value against c.
func (ds DefaultSpec) resolve(c *Composite) (any, error) {
	if ds.fn != nil {
		return ds.fn(c)
	}
	return ds.raw, nil
}
