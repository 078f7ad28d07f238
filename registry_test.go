package binschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	blob := MustNew("Blob",
		Field{Name: "n", Type: UInt8(), Default: CountOf("data")},
		Field{Name: "data", Type: UInt8(), Count: CountedBy("n")},
	)
	ihdr := MustNew("IHDR", Field{Name: "width", Type: UInt32()})

	t.Run("NilFallbackPanics", func(t *testing.T) {
		assert.Panics(t, func() { NewRegistry(nil) })
	})

	t.Run("LookupFallsBack", func(t *testing.T) {
		r := NewRegistry(blob)
		r.Register("IHDR", ihdr)

		assert.Same(t, Type(ihdr), r.Lookup("IHDR"))
		assert.Same(t, Type(blob), r.Lookup("zzZz"))
	})

	t.Run("RegisterOverwrites", func(t *testing.T) {
		r := NewRegistry(blob)
		r.Register("IHDR", blob)
		r.Register("IHDR", ihdr)
		assert.Same(t, Type(ihdr), r.Lookup("IHDR"))
	})
}

func TestRegistryResolver(t *testing.T) {
	small := MustNew("Small", Field{Name: "v", Type: UInt8()})
	big := MustNew("Big", Field{Name: "v", Type: UInt32().WithOrder(LE)})

	reg := NewRegistry(small)
	reg.Register("big", big)

	env := MustNew("Envelope",
		Field{Name: "kind", Type: UInt8()},
		Field{Name: "body", Resolve: reg.Resolver(func(c *Composite) (string, error) {
			k, err := c.GetUint("kind")
			if err != nil {
				return "", err
			}
			if k == 2 {
				return "big", nil
			}
			return "small", nil
		})},
	)

	t.Run("RegisteredTag", func(t *testing.T) {
		c, err := env.Unpack([]byte{2, 0x78, 0x56, 0x34, 0x12})
		require.NoError(t, err)

		body, err := c.GetComposite("body")
		require.NoError(t, err)
		assert.Same(t, big, body.Schema())

		v, err := body.GetUint("v")
		require.NoError(t, err)
		assert.EqualValues(t, 0x12345678, v)
	})

	t.Run("FallbackTag", func(t *testing.T) {
		c, err := env.Unpack([]byte{0, 0x2A})
		require.NoError(t, err)

		body, err := c.GetComposite("body")
		require.NoError(t, err)
		assert.Same(t, small, body.Schema())
	})

	t.Run("TagErrorPropagates", func(t *testing.T) {
		c := env.NewValue()
		err := c.Set("body", map[string]any{"v": uint8(1)})
		assert.ErrorIs(t, err, ErrMissingField)
	})
}
