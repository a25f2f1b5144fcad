package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoderDecoderRoundTrip(t *testing.T) {
	e := NewEncoder(0)
	e.Uint8(7)
	e.Uint16(0xBEEF)
	e.Uint32(0xDEADBEEF)
	e.Uint64(0x0102030405060708)
	e.Varint(300)
	e.Discriminant(2)
	e.VarBytes([]byte("hello jam"))
	e.Sequence(3)
	for i := 0; i < 3; i++ {
		e.Uint8(byte(i))
	}

	d := NewDecoder(e.Bytes())
	u8, err := d.Uint8()
	require.NoError(t, err)
	require.Equal(t, uint8(7), u8)

	u16, err := d.Uint16()
	require.NoError(t, err)
	require.Equal(t, uint16(0xBEEF), u16)

	u32, err := d.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := d.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), u64)

	v, err := d.Varint()
	require.NoError(t, err)
	require.Equal(t, uint64(300), v)

	tag, err := d.Discriminant(4)
	require.NoError(t, err)
	require.Equal(t, byte(2), tag)

	vb, err := d.VarBytes()
	require.NoError(t, err)
	require.Equal(t, "hello jam", string(vb))

	n, err := d.Sequence()
	require.NoError(t, err)
	require.Equal(t, 3, n)
	for i := 0; i < n; i++ {
		b, err := d.Uint8()
		require.NoError(t, err)
		require.Equal(t, byte(i), b)
	}

	require.True(t, d.Done())
}

func TestDiscriminantOutOfRange(t *testing.T) {
	d := NewDecoder([]byte{5})
	_, err := d.Discriminant(3)
	require.ErrorIs(t, err, ErrDiscriminantOutOfRange)
}

func TestCheckSorted(t *testing.T) {
	require.NoError(t, CheckSorted([][]byte{{1}, {2}, {3}}))
	require.ErrorIs(t, CheckSorted([][]byte{{2}, {1}}), ErrKeysNotSorted)
	require.ErrorIs(t, CheckSorted([][]byte{{1}, {1}}), ErrKeysNotSorted)
}

func TestUnexpectedEndOnTruncatedInput(t *testing.T) {
	d := NewDecoder([]byte{1, 2})
	_, err := d.Raw(5)
	require.ErrorIs(t, err, ErrUnexpectedEnd)
}
