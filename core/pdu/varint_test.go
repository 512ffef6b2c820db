package pdu_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

func TestVarU16RoundTrip(t *testing.T) {
	for _, val := range []uint16{0, 1, 0x7F, 0x80, 0x7FFF} {
		v, err := pdu.NewVarU16(val)
		require.NoError(t, err)

		buf := make([]byte, v.Size())
		require.NoError(t, v.Encode(cursor.NewWriter(buf)))

		got, err := pdu.DecodeVarU16(cursor.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, val, got.Value())
	}
}

func TestVarU16RejectsOutOfRange(t *testing.T) {
	_, err := pdu.NewVarU16(0x8000)
	assert.Error(t, err)
}

func TestVarI16RoundTrip(t *testing.T) {
	for _, val := range []int16{0, 1, -1, 0x3F, -0x3F, 0x40, -0x40, 0x3FFF, -0x3FFF} {
		v, err := pdu.NewVarI16(val)
		require.NoError(t, err)

		buf := make([]byte, v.Size())
		require.NoError(t, v.Encode(cursor.NewWriter(buf)))

		got, err := pdu.DecodeVarI16(cursor.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, val, got.Value())
	}
}

func TestVarU32RoundTrip(t *testing.T) {
	for _, val := range []uint32{0, 0x3F, 0x40, 0x3FFF, 0x4000, 0x3FFFFF, 0x400000, 0x3FFFFFFF} {
		v, err := pdu.NewVarU32(val)
		require.NoError(t, err)

		buf := make([]byte, v.Size())
		require.NoError(t, v.Encode(cursor.NewWriter(buf)))

		got, err := pdu.DecodeVarU32(cursor.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, val, got.Value())
	}
}

func TestVarU64RoundTrip(t *testing.T) {
	for _, val := range []uint64{0, 0x1F, 0x20, 0x1FFF, 0x1FFFFFFFFFFFFF, 0x1FFFFFFFFFFFFFFF} {
		v, err := pdu.NewVarU64(val)
		require.NoError(t, err)

		buf := make([]byte, v.Size())
		require.NoError(t, v.Encode(cursor.NewWriter(buf)))

		got, err := pdu.DecodeVarU64(cursor.NewReader(buf))
		require.NoError(t, err)
		assert.Equal(t, val, got.Value())
	}
}

func TestVarU16ShortRead(t *testing.T) {
	_, err := pdu.DecodeVarU16(cursor.NewReader(nil))
	require.Error(t, err)
}
