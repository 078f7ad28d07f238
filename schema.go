package binschema

import "fmt"

// Schema is the compiled, immutable layout of a composite: the declaration
// order of its fields (authoritative for pack and unpack) and the lookup
// table from name to specification. A Schema is built once and shared
// read-only by every instance, which makes it safe for concurrent use.
type Schema struct {
	name   string
	order  []string
	fields map[string]*Field
}

var _ Type = (*Schema)(nil)

// New compiles an ordered list of field specifications into a Schema.
// Declaration order is both the wire order and the dependency order:
// resolvers may only reference fields that appear earlier.
func New(name string, fields ...Field) (*Schema, error) {
	s := &Schema{
		name:   name,
		order:  make([]string, 0, len(fields)),
		fields: make(map[string]*Field, len(fields)),
	}
	for i := range fields {
		f := fields[i]
		if f.Name == "" {
			return nil, fmt.Errorf("%w: schema %q: field %d has no name", ErrSchema, name, i)
		}
		if _, dup := s.fields[f.Name]; dup {
			return nil, fmt.Errorf("%w: schema %q: duplicate field %q", ErrSchema, name, f.Name)
		}
		if f.Type == nil && f.Resolve == nil {
			return nil, fmt.Errorf("%w: schema %q: field %q has neither a type nor a type resolver",
				ErrSchema, name, f.Name)
		}
		if !f.Count.dynamic() && f.Count.literalValue() < 0 {
			return nil, fmt.Errorf("%w: schema %q: field %q has negative count %d",
				ErrSchema, name, f.Name, f.Count.literalValue())
		}
		s.order = append(s.order, f.Name)
		s.fields[f.Name] = &f
	}
	return s, nil
}

// MustNew is New for package-level schema declarations; it panics on a
// compile error.
func MustNew(name string, fields ...Field) *Schema {
	s, err := New(name, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the schema's name, used in error messages.
func (s *Schema) Name() string { return s.name }

// NumFields returns the number of declared fields.
func (s *Schema) NumFields() int { return len(s.order) }

// Fields returns the field names in declaration order.
func (s *Schema) Fields() []string { return append([]string(nil), s.order...) }

// NewValue returns an empty composite of this schema.
func (s *Schema) NewValue() *Composite {
	return &Composite{schema: s, values: make(map[string]*slot)}
}

// New implements Type: it normalizes a raw value into a composite of this
// schema. Accepted raws: a *Composite of the same schema (passed through;
// its parent link is rebound by the caller) or a map[string]any of field
// values, applied in declaration order so dependent fields resolve.
func (s *Schema) New(raw any) (Value, error) {
	switch v := raw.(type) {
	case *Composite:
		if v.schema != s {
			return nil, fmt.Errorf("%w: composite of schema %q where %q is required",
				ErrWrongShape, v.schema.name, s.name)
		}
		return v, nil
	case map[string]any:
		for name := range v {
			if _, ok := s.fields[name]; !ok {
				return nil, fmt.Errorf("%w: %q is not a field of %s", ErrInvalidField, name, s.name)
			}
		}
		c := s.NewValue()
		for _, name := range s.order {
			fv, ok := v[name]
			if !ok {
				continue
			}
			if err := c.Set(name, fv); err != nil {
				return nil, err
			}
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: cannot use %T as composite %s", ErrWrongShape, raw, s.name)
}

// Read implements Type by decoding one nested composite.
func (s *Schema) Read(buf []byte, offset int, parent *Composite) (Value, int, error) {
	return s.UnpackFrom(buf, offset, parent)
}

// UnpackFrom decodes a composite embedded in buf at offset, returning it
// together with the number of bytes consumed. Trailing bytes after the
// value are permitted; use Unpack for whole-buffer decoding. parent is the
// enclosing composite, or nil at top level; it is only followed by
// resolvers during decoding.
//
// Fields are decoded in declaration order. Counts and element types that
// are dynamic resolve against the partially built composite, so they may
// only reference fields already decoded.
func (s *Schema) UnpackFrom(buf []byte, offset int, parent *Composite) (*Composite, int, error) {
	c := s.NewValue()
	c.parent = parent

	n := 0
	for _, name := range s.order {
		f := s.fields[name]

		count, err := f.Count.value(c)
		if err != nil {
			return nil, n, fmt.Errorf("binschema: count of field %q of %s: %w", name, s.name, err)
		}
		if !f.Count.dynamic() && count == 0 {
			// Structurally absent: no bytes, no stored value.
			continue
		}

		et, err := f.elemType(c)
		if err != nil {
			return nil, n, err
		}

		vals := make([]Value, 0, count)
		for i := 0; i < count; i++ {
			v, vn, err := et.Read(buf, offset+n, c)
			if err != nil {
				return nil, n, fmt.Errorf("binschema: field %q of %s: %w", name, s.name, err)
			}
			c.adopt(v)
			vals = append(vals, v)
			n += vn
		}

		// Dynamic-count fields always store a list, even of length 0 or 1.
		if !f.Count.dynamic() && count == 1 {
			c.values[name] = &slot{one: vals[0]}
		} else {
			c.values[name] = &slot{many: vals, list: true}
		}
	}
	return c, n, nil
}

// Unpack decodes a top-level composite from buf and requires the entire
// input to be consumed.
func (s *Schema) Unpack(buf []byte) (*Composite, error) {
	c, n, err := s.UnpackFrom(buf, 0, nil)
	if err != nil {
		return nil, err
	}
	if n < len(buf) {
		return nil, fmt.Errorf("%w: %s consumed %d of %d bytes", ErrTrailingBytes, s.name, n, len(buf))
	}
	return c, nil
}
