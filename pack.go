package binschema

import "fmt"

// walk visits every contributing value of the composite in declaration
// order, resolving counts, element types and defaults exactly as Pack and
// Unpack do. This shared traversal is what keeps Size, Pack and Unpack
// mutually consistent.
func (c *Composite) walk(visit func(Value) error) error {
	for _, name := range c.schema.order {
		f := c.schema.fields[name]
		if !f.Count.dynamic() && f.Count.literalValue() == 0 {
			continue
		}
		vals, _, err := c.resolveField(f)
		if err != nil {
			return err
		}
		for _, v := range vals {
			if err := visit(v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Size returns the packed byte size of the composite. It resolves current
// field values the same way Pack does, so a missing required field fails
// here too. Structurally absent fields contribute zero bytes.
func (c *Composite) Size() (int, error) {
	total := 0
	err := c.walk(func(v Value) error {
		n, err := v.Size()
		if err != nil {
			return err
		}
		total += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Pack allocates and returns the composite's binary encoding: every
// contributing value in declaration order, no padding, no alignment.
func (c *Composite) Pack() ([]byte, error) {
	size, err := c.Size()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	if _, err := c.packAt(buf, 0); err != nil {
		return nil, err
	}
	return buf, nil
}

// PackInto encodes the composite into buf at offset, returning the number
// of bytes written. It fails with ErrInsufficientSpace before writing
// anything if fewer than Size() bytes remain.
func (c *Composite) PackInto(buf []byte, offset int) (int, error) {
	size, err := c.Size()
	if err != nil {
		return 0, err
	}
	if offset < 0 || len(buf)-offset < size {
		return 0, fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d",
			ErrInsufficientSpace, c.schema.name, size, offset, remaining(buf, offset))
	}
	return c.packAt(buf, offset)
}

func (c *Composite) packAt(buf []byte, offset int) (int, error) {
	n := 0
	err := c.walk(func(v Value) error {
		vn, err := v.PackInto(buf, offset+n)
		if err != nil {
			return err
		}
		n += vn
		return nil
	})
	return n, err
}
