package binschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimWidths(t *testing.T) {
	assert.Equal(t, 1, Int8().Width())
	assert.Equal(t, 1, UInt8().Width())
	assert.Equal(t, 2, Int16().Width())
	assert.Equal(t, 2, UInt16().Width())
	assert.Equal(t, 4, Int32().Width())
	assert.Equal(t, 4, UInt32().Width())
	assert.Equal(t, 8, Int64().Width())
	assert.Equal(t, 8, UInt64().Width())
	assert.Equal(t, 4, Float32().Width())
	assert.Equal(t, 8, Float64().Width())
}

func TestPrimPackUnpack(t *testing.T) {
	i8 := Int8().WithOrder(LE)

	v := i8.Value(0x7f)
	b, err := v.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7f}, b)

	got, err := i8.Unpack(b)
	require.NoError(t, err)
	assert.Equal(t, int8(0x7f), got)

	t.Run("ByteOrder", func(t *testing.T) {
		be := UInt16().WithOrder(BE)
		le := UInt16().WithOrder(LE)

		b, err := be.Value(0xBBCC).Pack()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xBB, 0xCC}, b)

		b, err = le.Value(0xBBCC).Pack()
		require.NoError(t, err)
		assert.Equal(t, []byte{0xCC, 0xBB}, b)
	})

	t.Run("ExactLength", func(t *testing.T) {
		u32 := UInt32().WithOrder(LE)

		_, err := u32.Unpack([]byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrTruncated)

		_, err = u32.Unpack([]byte{1, 2, 3, 4, 5})
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("ReadAtOffset", func(t *testing.T) {
		i8 := Int8()
		buf := []byte{0x7e, 0x7f, 0x00, 0x00}

		v, n, err := i8.Read(buf, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, int8(0x7e), v.Raw())

		v, _, err = i8.Read(buf, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, int8(0x7f), v.Raw())

		_, _, err = i8.Read(buf, 4, nil)
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestPrimPackInto(t *testing.T) {
	i8 := Int8()
	buf := make([]byte, 4)

	n, err := i8.Value(0x7f).PackInto(buf, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []byte{0x00, 0x7f, 0x00, 0x00}, buf)

	_, err = i8.Value(1).PackInto(buf, 4)
	assert.ErrorIs(t, err, ErrInsufficientSpace)

	u32 := UInt32()
	_, err = u32.Value(1).PackInto(make([]byte, 3), 0)
	assert.ErrorIs(t, err, ErrInsufficientSpace)
}

func TestPrimNew(t *testing.T) {
	u32 := UInt32()

	t.Run("Exact", func(t *testing.T) {
		v, err := u32.New(uint32(7))
		require.NoError(t, err)
		assert.Equal(t, uint32(7), v.Raw())
	})

	t.Run("Converted", func(t *testing.T) {
		v, err := u32.New(7) // untyped int literal
		require.NoError(t, err)
		assert.Equal(t, uint32(7), v.Raw())
	})

	t.Run("PassThrough", func(t *testing.T) {
		pv := u32.Value(9)
		v, err := u32.New(pv)
		require.NoError(t, err)
		assert.Same(t, pv, v)
	})

	t.Run("ConvertedFloat", func(t *testing.T) {
		v, err := u32.New(float64(7))
		require.NoError(t, err)
		assert.Equal(t, uint32(7), v.Raw())
	})

	t.Run("RejectsSequences", func(t *testing.T) {
		_, err := u32.New([]byte{1, 2, 3, 4})
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("RejectsOutOfRange", func(t *testing.T) {
		u8 := UInt8()

		_, err := u8.New(300)
		assert.ErrorIs(t, err, ErrWrongShape)

		_, err = u8.New(-1)
		assert.ErrorIs(t, err, ErrWrongShape)

		_, err = Int16().New(uint64(1 << 40))
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("RejectsFractional", func(t *testing.T) {
		_, err := u32.New(1.5)
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("RejectsNil", func(t *testing.T) {
		_, err := u32.New(nil)
		assert.ErrorIs(t, err, ErrWrongShape)
	})
}

// Order is consumed when a type is constructed; changing it afterwards
// must not affect the layout of already-built types.
func TestOrderFrozenAtConstruction(t *testing.T) {
	saved := Order
	defer func() { Order = saved }()

	Order = BE
	beType := UInt16()
	Order = LE
	leType := UInt16()

	b, err := beType.Value(0x0102).Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, b)

	b, err = leType.Value(0x0102).Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01}, b)
}
