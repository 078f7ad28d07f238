package binschema

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/puzpuzpuz/xsync/v4"
)

// Scalar enumerates the fixed-width kinds a primitive or tuple codec can
// carry. Platform-sized int/uint are deliberately excluded: the wire width
// of every field is fixed at declaration time.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// widthCache avoids the reflection cost of binary.Size on every call.
// A global concurrent map keeps it safe to share across goroutines.
var widthCache = xsync.NewMap[reflect.Type, int]()

func widthOf[T Scalar]() int {
	var zero T
	t := reflect.TypeFor[T]()

	if w, ok := widthCache.Load(t); ok {
		return w
	}

	w := binary.Size(zero)
	widthCache.Store(t, w)
	return w
}

// PrimType is the codec type for one fixed-width scalar. The byte order is
// frozen when the type is constructed; later changes to Order do not affect
// it.
type PrimType[T Scalar] struct {
	order binary.ByteOrder
}

var _ Type = (*PrimType[uint8])(nil)

// Prim constructs a primitive type for T using the current Order.
func Prim[T Scalar]() *PrimType[T] { return &PrimType[T]{order: Order} }

func Int8() *PrimType[int8]       { return Prim[int8]() }
func UInt8() *PrimType[uint8]     { return Prim[uint8]() }
func Int16() *PrimType[int16]     { return Prim[int16]() }
func UInt16() *PrimType[uint16]   { return Prim[uint16]() }
func Int32() *PrimType[int32]     { return Prim[int32]() }
func UInt32() *PrimType[uint32]   { return Prim[uint32]() }
func Int64() *PrimType[int64]     { return Prim[int64]() }
func UInt64() *PrimType[uint64]   { return Prim[uint64]() }
func Float32() *PrimType[float32] { return Prim[float32]() }
func Float64() *PrimType[float64] { return Prim[float64]() }

// WithOrder returns a copy of the type using the given byte order,
// overriding whatever Order was when it was constructed.
func (t *PrimType[T]) WithOrder(order binary.ByteOrder) *PrimType[T] {
	return &PrimType[T]{order: order}
}

// Width returns the packed size of one scalar in bytes.
func (t *PrimType[T]) Width() int { return widthOf[T]() }

// Value wraps a scalar in a Value bound to this type's byte layout.
func (t *PrimType[T]) Value(v T) *PrimValue[T] {
	return &PrimValue[T]{val: v, typ: t}
}

// New normalizes a raw Go value into a primitive Value. Values of this
// exact type pass through; anything numerically convertible to T without
// losing the value is converted. A raw that T cannot represent exactly
// (out of range, or a fractional value into an integer) is rejected with
// ErrWrongShape rather than wrapped.
func (t *PrimType[T]) New(raw any) (Value, error) {
	switch v := raw.(type) {
	case T:
		return t.Value(v), nil
	case *PrimValue[T]:
		return v, nil
	}
	target := reflect.TypeFor[T]()
	if raw == nil {
		return nil, fmt.Errorf("%w: cannot use nil as %s", ErrWrongShape, target)
	}
	rv := reflect.ValueOf(raw)
	if k := rv.Kind(); k == reflect.Slice || k == reflect.Array || !rv.Type().ConvertibleTo(target) {
		return nil, fmt.Errorf("%w: cannot use %T as %s", ErrWrongShape, raw, target)
	}
	cv, err := convertExact(rv, target)
	if err != nil {
		return nil, err
	}
	return t.Value(cv.Interface().(T)), nil
}

// convertExact converts rv to target and verifies the value survived:
// converting back must reproduce the original, so wrapping, truncation
// and fraction loss all fail instead of silently packing wrong bytes.
func convertExact(rv reflect.Value, target reflect.Type) (reflect.Value, error) {
	cv := rv.Convert(target)
	if !cv.Convert(rv.Type()).Equal(rv) {
		return reflect.Value{}, fmt.Errorf("%w: %v does not fit in %s",
			ErrWrongShape, rv.Interface(), target)
	}
	return cv, nil
}

// Read decodes one scalar from buf at offset. The parent composite is
// ignored; primitives have no dependent sub-fields.
func (t *PrimType[T]) Read(buf []byte, offset int, _ *Composite) (Value, int, error) {
	w := t.Width()
	if offset < 0 || len(buf)-offset < w {
		return nil, 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrTruncated, w, offset, remaining(buf, offset))
	}
	var v T
	if _, err := binary.Decode(buf[offset:offset+w], t.order, &v); err != nil {
		return nil, 0, fmt.Errorf("binschema: decode %s: %w", reflect.TypeFor[T](), err)
	}
	return t.Value(v), w, nil
}

// Unpack decodes a scalar from buf, which must be exactly Width() bytes.
func (t *PrimType[T]) Unpack(buf []byte) (T, error) {
	var zero T
	w := t.Width()
	switch {
	case len(buf) < w:
		return zero, fmt.Errorf("%w: need exactly %d bytes, got %d", ErrTruncated, w, len(buf))
	case len(buf) > w:
		return zero, fmt.Errorf("%w: need exactly %d bytes, got %d", ErrTrailingBytes, w, len(buf))
	}
	v, _, err := t.Read(buf, 0, nil)
	if err != nil {
		return zero, err
	}
	return v.Raw().(T), nil
}

func remaining(buf []byte, offset int) int {
	if offset < 0 || offset > len(buf) {
		return 0
	}
	return len(buf) - offset
}

// PrimValue is a scalar bound to its type's frozen byte layout.
type PrimValue[T Scalar] struct {
	val T
	typ *PrimType[T]
}

var _ Value = (*PrimValue[uint8])(nil)

// Scalar returns the wrapped scalar.
func (v *PrimValue[T]) Scalar() T { return v.val }

func (v *PrimValue[T]) Raw() any { return v.val }

func (v *PrimValue[T]) Size() (int, error) { return v.typ.Width(), nil }

// Pack allocates and returns the scalar's binary encoding.
func (v *PrimValue[T]) Pack() ([]byte, error) {
	buf := make([]byte, v.typ.Width())
	if _, err := v.PackInto(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// PackInto encodes the scalar into buf at offset.
func (v *PrimValue[T]) PackInto(buf []byte, offset int) (int, error) {
	w := v.typ.Width()
	if offset < 0 || len(buf)-offset < w {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrInsufficientSpace, w, offset, remaining(buf, offset))
	}
	n, err := binary.Encode(buf[offset:offset+w], v.typ.order, v.val)
	if err != nil {
		return n, fmt.Errorf("binschema: encode %s: %w", reflect.TypeFor[T](), err)
	}
	return n, nil
}
