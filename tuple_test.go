package binschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuplePackUnpack(t *testing.T) {
	t4 := Tuple[uint8](4)
	assert.Equal(t, 4, t4.Arity())
	assert.Equal(t, 4, t4.Width())

	v, err := t4.New([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := v.Pack()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)

	got, err := t4.Unpack(b)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3, 4}, got)

	t.Run("MultiByteElements", func(t *testing.T) {
		t2 := Tuple[uint16](2).WithOrder(BE)
		assert.Equal(t, 4, t2.Width())

		v, err := t2.New([]uint16{0x0102, 0x0304})
		require.NoError(t, err)
		b, err := v.Pack()
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, b)

		got, err := t2.Unpack(b)
		require.NoError(t, err)
		assert.Equal(t, []uint16{0x0102, 0x0304}, got)
	})

	t.Run("ExactLength", func(t *testing.T) {
		_, err := t4.Unpack([]byte{1, 2, 3})
		assert.ErrorIs(t, err, ErrTruncated)

		_, err = t4.Unpack([]byte{1, 2, 3, 4, 5})
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("ZeroArity", func(t *testing.T) {
		t0 := Tuple[uint8](0)
		assert.Equal(t, 0, t0.Width())

		v, err := t0.New([]byte{})
		require.NoError(t, err)
		b, err := v.Pack()
		require.NoError(t, err)
		assert.Empty(t, b)

		_, n, err := t0.Read([]byte{9, 9}, 0, nil)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestTupleNew(t *testing.T) {
	t4 := Tuple[uint8](4)

	t.Run("FromString", func(t *testing.T) {
		v, err := t4.New("deAd")
		require.NoError(t, err)
		assert.Equal(t, []uint8("deAd"), v.Raw())
	})

	t.Run("ConvertedElements", func(t *testing.T) {
		v, err := t4.New([]int{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, []uint8{1, 2, 3, 4}, v.Raw())
	})

	t.Run("FromAnySlice", func(t *testing.T) {
		v, err := t4.New([]any{1, 2, 3, 4})
		require.NoError(t, err)
		assert.Equal(t, []uint8{1, 2, 3, 4}, v.Raw())
	})

	t.Run("OutOfRangeElement", func(t *testing.T) {
		_, err := t4.New([]int{1, 2, 3, 300})
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("NilElement", func(t *testing.T) {
		_, err := t4.New([]any{1, 2, 3, nil})
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("StringIntoNonByteTuple", func(t *testing.T) {
		_, err := Tuple[uint16](2).New("abcd")
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("ArityMismatch", func(t *testing.T) {
		_, err := t4.New([]byte{1, 2})
		assert.ErrorIs(t, err, ErrWrongShape)

		_, err = t4.New([]byte{1, 2, 3, 4, 5})
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("RejectsScalar", func(t *testing.T) {
		_, err := t4.New(uint32(7))
		assert.ErrorIs(t, err, ErrWrongShape)
	})

	t.Run("NegativeArityPanics", func(t *testing.T) {
		assert.Panics(t, func() { Tuple[uint8](-1) })
	})
}
