package binschema

import "errors"

var (
	// ErrSchema indicates an invalid schema declaration: a negative literal
	// field count, a field with neither an element type nor a type
	// resolver, or a duplicate/empty field name. It also reports a dynamic
	// count resolver returning a negative value at pack/unpack time.
	ErrSchema = errors.New("binschema: invalid schema")

	// ErrMissingField indicates a read or pack of a single-value field that
	// has no stored value and no default.
	ErrMissingField = errors.New("binschema: missing field value")

	// ErrWrongShape indicates a scalar assigned where a list is required,
	// a list assigned where a scalar is required, or a raw value that
	// cannot be converted to the field's element type.
	ErrWrongShape = errors.New("binschema: wrong value shape")

	// ErrTooManyValues indicates more values assigned or stored than the
	// field's literal count permits.
	ErrTooManyValues = errors.New("binschema: too many values")

	// ErrInsufficientValues indicates fewer values than the field's literal
	// count with no default available to backfill.
	ErrInsufficientValues = errors.New("binschema: insufficient values")

	// ErrInvalidField indicates an undeclared field name, or an assignment
	// to a field declared with count 0.
	ErrInvalidField = errors.New("binschema: invalid field")

	// ErrAbsentField is the read signal for a field declared with count 0:
	// the field is structurally absent and can never hold a value.
	ErrAbsentField = errors.New("binschema: field is structurally absent")

	// ErrInsufficientSpace indicates a PackInto target buffer with fewer
	// than Size() bytes remaining at the given offset.
	ErrInsufficientSpace = errors.New("binschema: insufficient buffer space")

	// ErrTrailingBytes is returned by top-level Unpack when input remains
	// after the value has been fully decoded. UnpackFrom permits trailing
	// bytes for values embedded in a larger stream.
	ErrTrailingBytes = errors.New("binschema: trailing bytes after value")

	// ErrTruncated indicates the input buffer ended before all expected
	// bytes were read.
	ErrTruncated = errors.New("binschema: truncated input")
)
