package binschema

import (
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"
)

// Composite is one instance of a schema: a mapping from field name to
// stored values, plus a non-owning link to the enclosing composite.
//
// A composite is created empty by Schema.NewValue, built field by field
// with Set, or reconstructed whole by Schema.Unpack/UnpackFrom. Pack and
// Size are read-only; they materialize defaults on the fly without storing
// them. Instances are not safe for concurrent mutation.
type Composite struct {
	schema *Schema
	values map[string]*slot
	parent *Composite
}

var _ Value = (*Composite)(nil)

// slot always holds resolved Values, never raw scalars: either a single
// value (literal count 1) or an ordered list (everything else).
type slot struct {
	one  Value
	many []Value
	list bool
}

// Schema returns the compiled schema this composite is an instance of.
func (c *Composite) Schema() *Schema { return c.schema }

// Parent returns the enclosing composite, or nil at top level. The link is
// read-only context for dependent-field resolution during pack and unpack;
// it never extends the parent's lifetime and points strictly toward an
// ancestor.
func (c *Composite) Parent() *Composite { return c.parent }

// Has reports whether a value is currently stored for the field, ignoring
// defaults.
func (c *Composite) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

func (c *Composite) Raw() any { return c }

func (c *Composite) field(name string) (*Field, error) {
	f, ok := c.schema.fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a field of %s", ErrInvalidField, name, c.schema.name)
	}
	return f, nil
}

// adopt claims sub-composites: the child's parent link is repointed at c.
// Last write wins; a composite never has two parents.
func (c *Composite) adopt(v Value) {
	if child, ok := v.(*Composite); ok {
		child.parent = c
	}
}

// Set assigns a field value, normalizing it against the field's resolved
// element type. List fields (literal count above one, or dynamic count)
// require a slice or array and reject anything else with ErrWrongShape;
// single-value fields reject sequences the same way. A literal-count list
// may be assigned fewer values only if a default exists to backfill them
// at read time, and never more than the count. Zero-count fields reject
// every assignment.
func (c *Composite) Set(name string, value any) error {
	f, err := c.field(name)
	if err != nil {
		return err
	}
	if !f.Count.dynamic() && f.Count.literalValue() == 0 {
		return fmt.Errorf("%w: cannot assign to zero-count field %q of %s",
			ErrInvalidField, name, c.schema.name)
	}

	et, err := f.elemType(c)
	if err != nil {
		return err
	}

	if f.Count.dynamic() || f.Count.literalValue() > 1 {
		vals, err := c.normalizeList(f, et, value)
		if err != nil {
			return err
		}
		if !f.Count.dynamic() {
			n := f.Count.literalValue()
			if len(vals) > n {
				return fmt.Errorf("%w: field %q of %s takes %d values, got %d",
					ErrTooManyValues, name, c.schema.name, n, len(vals))
			}
			if len(vals) < n && !f.Default.has {
				return fmt.Errorf("%w: field %q of %s takes %d values, got %d",
					ErrInsufficientValues, name, c.schema.name, n, len(vals))
			}
		}
		c.values[name] = &slot{many: vals, list: true}
		return nil
	}

	v, err := et.New(value)
	if err != nil {
		return fmt.Errorf("binschema: field %q of %s: %w", name, c.schema.name, err)
	}
	c.adopt(v)
	c.values[name] = &slot{one: v}
	return nil
}

// normalizeList converts an assigned sequence into resolved element
// values.
func (c *Composite) normalizeList(f *Field, et Type, value any) ([]Value, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: field %q of %s needs a sequence, got nil",
			ErrWrongShape, f.Name, c.schema.name)
	}
	rv := reflect.ValueOf(value)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, fmt.Errorf("%w: field %q of %s needs a sequence, got %T",
			ErrWrongShape, f.Name, c.schema.name, value)
	}
	vals := make([]Value, rv.Len())
	for i := range vals {
		v, err := et.New(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("binschema: field %q of %s: %w", f.Name, c.schema.name, err)
		}
		c.adopt(v)
		vals[i] = v
	}
	return vals, nil
}

// Get returns a field's current value: the raw scalar or sub-composite for
// single-value fields (materializing the default if unset), a []any of
// element raws for list fields. Dynamic-count fields return the stored
// list verbatim, possibly empty, never default-synthesized. Zero-count
// fields fail with ErrAbsentField.
func (c *Composite) Get(name string) (any, error) {
	f, err := c.field(name)
	if err != nil {
		return nil, err
	}
	if !f.Count.dynamic() && f.Count.literalValue() == 0 {
		return nil, fmt.Errorf("%w: field %q of %s", ErrAbsentField, name, c.schema.name)
	}
	vals, scalar, err := c.resolveField(f)
	if err != nil {
		return nil, err
	}
	if scalar {
		return vals[0].Raw(), nil
	}
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v.Raw()
	}
	return out, nil
}

// GetAs returns a single-value field's scalar converted to T.
func GetAs[T constraints.Integer | constraints.Float](c *Composite, name string) (T, error) {
	var zero T
	raw, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	target := reflect.TypeFor[T]()
	rv := reflect.ValueOf(raw)
	if k := rv.Kind(); k == reflect.Slice || k == reflect.Array || k == reflect.Ptr ||
		!rv.Type().ConvertibleTo(target) {
		return zero, fmt.Errorf("%w: field %q of %s holds %T, not %s",
			ErrWrongShape, name, c.schema.name, raw, target)
	}
	return rv.Convert(target).Interface().(T), nil
}

// GetInt returns a single-value integer field widened to int64.
func (c *Composite) GetInt(name string) (int64, error) { return GetAs[int64](c, name) }

// GetUint returns a single-value integer field widened to uint64.
func (c *Composite) GetUint(name string) (uint64, error) { return GetAs[uint64](c, name) }

// GetFloat returns a single-value float field widened to float64.
func (c *Composite) GetFloat(name string) (float64, error) { return GetAs[float64](c, name) }

// GetComposite returns a single-value field holding a nested composite.
func (c *Composite) GetComposite(name string) (*Composite, error) {
	raw, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	sub, ok := raw.(*Composite)
	if !ok {
		return nil, fmt.Errorf("%w: field %q of %s holds %T, not a composite",
			ErrWrongShape, name, c.schema.name, raw)
	}
	return sub, nil
}

// GetBytes returns a field whose elements are bytes as a []byte copy:
// either a list field of byte primitives, or a single byte-tuple field.
func (c *Composite) GetBytes(name string) ([]byte, error) {
	f, err := c.field(name)
	if err != nil {
		return nil, err
	}
	if !f.Count.dynamic() && f.Count.literalValue() == 0 {
		return nil, fmt.Errorf("%w: field %q of %s", ErrAbsentField, name, c.schema.name)
	}
	vals, scalar, err := c.resolveField(f)
	if err != nil {
		return nil, err
	}
	if scalar {
		if tv, ok := vals[0].(*TupleValue[uint8]); ok {
			return tv.Elements(), nil
		}
		return nil, fmt.Errorf("%w: field %q of %s holds %T, not bytes",
			ErrWrongShape, name, c.schema.name, vals[0].Raw())
	}
	out := make([]byte, len(vals))
	for i, v := range vals {
		b, ok := v.Raw().(uint8)
		if !ok {
			return nil, fmt.Errorf("%w: field %q of %s holds %T elements, not bytes",
				ErrWrongShape, name, c.schema.name, v.Raw())
		}
		out[i] = b
	}
	return out, nil
}

// Len reports how many values a list field currently resolves to.
// Single-value fields fail with ErrWrongShape; zero-count fields report 0.
func (c *Composite) Len(name string) (int, error) {
	f, err := c.field(name)
	if err != nil {
		return 0, err
	}
	if !f.Count.dynamic() {
		switch f.Count.literalValue() {
		case 0:
			return 0, nil
		case 1:
			return 0, fmt.Errorf("%w: field %q of %s is single-valued",
				ErrWrongShape, name, c.schema.name)
		}
	}
	vals, _, err := c.resolveField(f)
	if err != nil {
		return 0, err
	}
	return len(vals), nil
}

// resolveField resolves a field's contributing values, materializing
// defaults where declared but never storing them. The returned slice is
// detached from stored state whenever padding occurred. scalar reports a
// literal count of 1. Zero-count fields must be filtered by the caller.
func (c *Composite) resolveField(f *Field) (vals []Value, scalar bool, err error) {
	if f.Count.dynamic() {
		// Stored verbatim; dynamic-count fields never synthesize defaults.
		if s := c.values[f.Name]; s != nil {
			return s.many, false, nil
		}
		return nil, false, nil
	}

	n := f.Count.literalValue()
	if n == 1 {
		if s := c.values[f.Name]; s != nil {
			return []Value{s.one}, true, nil
		}
		if !f.Default.has {
			return nil, false, fmt.Errorf("%w: field %q of %s", ErrMissingField, f.Name, c.schema.name)
		}
		v, err := c.materializeDefault(f)
		if err != nil {
			return nil, false, err
		}
		return []Value{v}, true, nil
	}

	var stored []Value
	if s := c.values[f.Name]; s != nil {
		stored = s.many
	}
	switch {
	case len(stored) > n:
		return nil, false, fmt.Errorf("%w: field %q of %s takes %d values, holds %d",
			ErrTooManyValues, f.Name, c.schema.name, n, len(stored))
	case len(stored) == n:
		return stored, false, nil
	case !f.Default.has:
		return nil, false, fmt.Errorf("%w: field %q of %s takes %d values, holds %d",
			ErrInsufficientValues, f.Name, c.schema.name, n, len(stored))
	}
	vals = make([]Value, 0, n)
	vals = append(vals, stored...)
	for len(vals) < n {
		// The resolver runs once per missing element, like the stored
		// values it stands in for.
		v, err := c.materializeDefault(f)
		if err != nil {
			return nil, false, err
		}
		vals = append(vals, v)
	}
	return vals, false, nil
}

// materializeDefault produces one default element value for f.
func (c *Composite) materializeDefault(f *Field) (Value, error) {
	et, err := f.elemType(c)
	if err != nil {
		return nil, err
	}
	raw, err := f.Default.resolve(c)
	if err != nil {
		return nil, fmt.Errorf("binschema: default of field %q of %s: %w", f.Name, c.schema.name, err)
	}
	v, err := et.New(raw)
	if err != nil {
		return nil, fmt.Errorf("binschema: default of field %q of %s: %w", f.Name, c.schema.name, err)
	}
	c.adopt(v)
	return v, nil
}
