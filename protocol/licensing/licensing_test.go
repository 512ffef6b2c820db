package licensing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/protocol/licensing"
)

func TestPreambleRoundTrip(t *testing.T) {
	p := &licensing.Preamble{MsgType: licensing.MsgTypeErrorAlert, Flags: licensing.PreambleVersion3, MsgSize: 20}
	buf := make([]byte, p.Size())
	require.NoError(t, p.Encode(cursor.NewWriter(buf)))
	got, err := licensing.DecodePreamble(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, p.MsgType, got.MsgType)
	assert.Equal(t, p.MsgSize, got.MsgSize)
}

func TestBinaryBlobRoundTrip(t *testing.T) {
	b := &licensing.BinaryBlob{BlobType: 1, Data: []byte{0xAA, 0xBB}}
	buf := make([]byte, b.Size())
	require.NoError(t, b.Encode(cursor.NewWriter(buf)))
	got, err := licensing.DecodeBinaryBlob(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, b.Data, got.Data)
}

func TestValidClientErrorAlertRoundTrip(t *testing.T) {
	pre, body := licensing.ValidClientErrorAlert()

	preBuf := make([]byte, pre.Size())
	require.NoError(t, pre.Encode(cursor.NewWriter(preBuf)))
	bodyBuf := make([]byte, body.Size())
	require.NoError(t, body.Encode(cursor.NewWriter(bodyBuf)))

	gotPre, err := licensing.DecodePreamble(cursor.NewReader(preBuf))
	require.NoError(t, err)
	assert.Equal(t, licensing.MsgTypeErrorAlert, gotPre.MsgType)

	gotBody, err := licensing.DecodeErrorMessage(cursor.NewReader(bodyBuf))
	require.NoError(t, err)
	assert.Equal(t, licensing.ErrorSuccess, gotBody.ErrorCode)
	assert.Equal(t, licensing.StateNoTransition, gotBody.StateTransition)
}

func TestLicenseRequestRoundTrip(t *testing.T) {
	req := &licensing.LicenseRequest{
		Certificate: licensing.BinaryBlob{BlobType: 1, Data: []byte{1, 2, 3}},
		ScopeList:   []licensing.BinaryBlob{{BlobType: 0xE, Data: []byte("scope")}},
	}
	buf := make([]byte, req.Size())
	require.NoError(t, req.Encode(cursor.NewWriter(buf)))
	got, err := licensing.DecodeLicenseRequest(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, req.Certificate.Data, got.Certificate.Data)
	require.Len(t, got.ScopeList, 1)
	assert.Equal(t, "scope", string(got.ScopeList[0].Data))
}
