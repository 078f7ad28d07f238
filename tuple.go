package binschema

import (
	"encoding/binary"
	"fmt"
	"reflect"
)

// TupleType is the codec type for a fixed-arity run of one scalar kind,
// packed and unpacked as a single contiguous block rather than as
// independent elements.
type TupleType[T Scalar] struct {
	elem  *PrimType[T]
	arity int
}

var _ Type = (*TupleType[uint8])(nil)

// Tuple constructs a tuple type of the given arity using the current Order.
// It panics on a negative arity: tuple shapes are fixed at declaration time
// and a negative arity is always a programming error.
func Tuple[T Scalar](arity int) *TupleType[T] {
	if arity < 0 {
		panic(fmt.Sprintf("binschema: Tuple called with negative arity %d", arity))
	}
	return &TupleType[T]{elem: Prim[T](), arity: arity}
}

// WithOrder returns a copy of the type using the given byte order.
func (t *TupleType[T]) WithOrder(order binary.ByteOrder) *TupleType[T] {
	return &TupleType[T]{elem: t.elem.WithOrder(order), arity: t.arity}
}

// Arity returns the number of elements in the tuple.
func (t *TupleType[T]) Arity() int { return t.arity }

// Width returns the packed size of the whole tuple in bytes.
func (t *TupleType[T]) Width() int { return t.arity * t.elem.Width() }

// Value wraps a slice of exactly Arity() scalars in a Value of this type.
// The slice is copied.
func (t *TupleType[T]) Value(vs []T) (*TupleValue[T], error) {
	if len(vs) != t.arity {
		return nil, fmt.Errorf("%w: tuple of %s takes %d elements, got %d",
			ErrWrongShape, reflect.TypeFor[T](), t.arity, len(vs))
	}
	return &TupleValue[T]{vals: append([]T(nil), vs...), typ: t}, nil
}

// New normalizes a raw sequence into a tuple Value. Accepted raws: []T,
// any slice or array (including []any) with elements exactly representable
// as T, and for byte tuples a string. The element count must equal the
// arity exactly.
func (t *TupleType[T]) New(raw any) (Value, error) {
	elem := reflect.TypeFor[T]()
	switch v := raw.(type) {
	case []T:
		return t.Value(v)
	case *TupleValue[T]:
		return v, nil
	case string:
		// Strings are byte sequences; only byte tuples accept them.
		if elem.Kind() != reflect.Uint8 {
			return nil, fmt.Errorf("%w: cannot use string as tuple of %s", ErrWrongShape, elem)
		}
		return t.New([]byte(v))
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: cannot use nil as tuple of %s", ErrWrongShape, elem)
	}
	rv := reflect.ValueOf(raw)
	if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
		return nil, fmt.Errorf("%w: cannot use %T as tuple of %s", ErrWrongShape, raw, elem)
	}
	vs := make([]T, rv.Len())
	for i := range vs {
		ev := rv.Index(i)
		if ev.Kind() == reflect.Interface {
			ev = ev.Elem()
		}
		if !ev.IsValid() || !ev.Type().ConvertibleTo(elem) {
			return nil, fmt.Errorf("%w: cannot use element %d of %T as %s",
				ErrWrongShape, i, raw, elem)
		}
		cv, err := convertExact(ev, elem)
		if err != nil {
			return nil, err
		}
		vs[i] = cv.Interface().(T)
	}
	return t.Value(vs)
}

// Read decodes one whole tuple from buf at offset. The parent composite is
// ignored.
func (t *TupleType[T]) Read(buf []byte, offset int, _ *Composite) (Value, int, error) {
	w := t.Width()
	if offset < 0 || len(buf)-offset < w {
		return nil, 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, w, offset, remaining(buf, offset))
	}
	vs := make([]T, t.arity)
	if w > 0 {
		if _, err := binary.Decode(buf[offset:offset+w], t.elem.order, vs); err != nil {
			return nil, 0, fmt.Errorf("binschema: decode tuple of %s: %w", reflect.TypeFor[T](), err)
		}
	}
	return &TupleValue[T]{vals: vs, typ: t}, w, nil
}

// Unpack decodes a tuple from buf, which must be exactly Width() bytes.
func (t *TupleType[T]) Unpack(buf []byte) ([]T, error) {
	w := t.Width()
	switch {
	case len(buf) < w:
		return nil, fmt.Errorf("%w: need exactly %d bytes, got %d", ErrTruncated, w, len(buf))
	case len(buf) > w:
		return nil, fmt.Errorf("%w: need exactly %d bytes, got %d", ErrTrailingBytes, w, len(buf))
	}
	v, _, err := t.Read(buf, 0, nil)
	if err != nil {
		return nil, err
	}
	return v.(*TupleValue[T]).Elements(), nil
}

// TupleValue is a fixed-arity scalar sequence bound to its type's frozen
// byte layout.
type TupleValue[T Scalar] struct {
	vals []T
	typ  *TupleType[T]
}

var _ Value = (*TupleValue[uint8])(nil)

// Elements returns a copy of the tuple's scalars.
func (v *TupleValue[T]) Elements() []T { return append([]T(nil), v.vals...) }

func (v *TupleValue[T]) Raw() any { return v.Elements() }

func (v *TupleValue[T]) Size() (int, error) { return v.typ.Width(), nil }

// Pack allocates and returns the tuple's binary encoding.
func (v *TupleValue[T]) Pack() ([]byte, error) {
	buf := make([]byte, v.typ.Width())
	if _, err := v.PackInto(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// PackInto encodes the whole tuple into buf at offset as one block.
func (v *TupleValue[T]) PackInto(buf []byte, offset int) (int, error) {
	w := v.typ.Width()
	if offset < 0 || len(buf)-offset < w {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrInsufficientSpace, w, offset, remaining(buf, offset))
	}
	if w == 0 {
		return 0, nil
	}
	n, err := binary.Encode(buf[offset:offset+w], v.typ.elem.order, v.vals)
	if err != nil {
		return n, fmt.Errorf("binschema: encode tuple of %s: %w", reflect.TypeFor[T](), err)
	}
	return n, nil
}
