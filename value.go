// Package binschema is a schema-driven binary codec engine. A record's
// layout is declared once as an ordered list of fields (element type, repeat
// count, default value, any of which may be resolved at run time from
// already-decoded sibling or ancestor fields) and the engine derives
// byte-exact Pack, Unpack and Size for it, including nested records and
// tagged unions.
package binschema

import "encoding/binary"

var (
	BE = binary.BigEndian
	LE = binary.LittleEndian

	// Order is the byte order consumed when a primitive or tuple type is
	// constructed. Each constructed type freezes the order it saw; changing
	// Order afterwards does not affect already-built types. Set it before
	// declaring any schema.
	Order binary.ByteOrder = LE
)

// Value is one decoded element: a primitive scalar, a fixed tuple, or a
// composite. Values are immutable from the engine's point of view once
// stored in a composite slot; Pack and Size never mutate them.
type Value interface {
	// Size returns the packed size of the value in bytes.
	Size() (int, error)

	// Pack allocates and returns the value's binary encoding.
	Pack() ([]byte, error)

	// PackInto encodes the value into buf starting at offset and returns
	// the number of bytes written. It fails with ErrInsufficientSpace if
	// fewer than Size() bytes remain.
	PackInto(buf []byte, offset int) (int, error)

	// Raw returns the plain Go form of the value: the scalar for
	// primitives, the element slice for tuples, the *Composite itself for
	// composites.
	Raw() any
}

// Type describes how one element is encoded: it can normalize a raw Go
// value into a Value and decode a Value from bytes. The engine ships three
// implementations: *PrimType, *TupleType and *Schema.
type Type interface {
	// New normalizes a raw Go value (or an already-built Value of this
	// type) into a Value of this type.
	New(raw any) (Value, error)

	// Read decodes one element from buf at offset and returns it together
	// with the number of bytes consumed. parent is the enclosing composite
	// under construction, or nil at top level; only composite types
	// consult it.
	Read(buf []byte, offset int, parent *Composite) (Value, int, error)
}
