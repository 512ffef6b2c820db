package cursor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
)

func TestReaderFixedWidthRoundTrip(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0xAA, 0xBB, 0xCC, 0xDD}
	r := cursor.NewReader(buf)

	require.NoError(t, r.Ensure(4))
	assert.Equal(t, uint32(0x01020304), r.ReadU32BE())
	assert.Equal(t, uint32(0xDDCCBBAA), r.ReadU32LE())
	assert.True(t, r.Eof())
}

func TestReaderEnsureShortRead(t *testing.T) {
	r := cursor.NewReader([]byte{0x01, 0x02})

	err := r.Ensure(4)
	require.Error(t, err)

	var nb *cursor.NotEnoughBytesError
	require.ErrorAs(t, err, &nb)
	assert.Equal(t, 2, nb.Received)
	assert.Equal(t, 4, nb.Expected)
}

func TestReaderSplit(t *testing.T) {
	r := cursor.NewReader([]byte{1, 2, 3, 4, 5})

	head, tail := r.Split(2)
	assert.Equal(t, []byte{1, 2}, head.Remaining())
	assert.Equal(t, []byte{3, 4, 5}, tail.Remaining())
	assert.True(t, r.Eof())
}

func TestReaderSplitPeekDoesNotAdvance(t *testing.T) {
	r := cursor.NewReader([]byte{1, 2, 3, 4})

	head, tail := r.SplitPeek(1)
	assert.Equal(t, []byte{1}, head.Remaining())
	assert.Equal(t, []byte{2, 3, 4}, tail.Remaining())
	assert.Equal(t, 0, r.Pos())
}

func TestWriterRoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	w := cursor.NewWriter(buf)

	require.NoError(t, w.Ensure(8))
	w.WriteU16LE(0x1234)
	w.WriteU32BE(0xDEADBEEF)
	w.WriteU16LE(0xFFFF)

	assert.Equal(t, 8, w.Pos())

	r := cursor.NewReader(w.Filled())
	assert.Equal(t, uint16(0x1234), r.ReadU16LE())
	assert.Equal(t, uint32(0xDEADBEEF), r.ReadU32BE())
	assert.Equal(t, uint16(0xFFFF), r.ReadU16LE())
}

func TestWriterEnsureTooSmall(t *testing.T) {
	w := cursor.NewWriter(make([]byte, 2))

	err := w.Ensure(4)
	require.Error(t, err)
}

func TestReaderAdvanceRewind(t *testing.T) {
	r := cursor.NewReader([]byte{1, 2, 3, 4})
	r.Advance(2)
	assert.Equal(t, 2, r.Pos())
	r.Rewind(1)
	assert.Equal(t, 1, r.Pos())
	assert.Equal(t, uint8(2), r.ReadU8())
}
