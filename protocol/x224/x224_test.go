package x224_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/protocol/x224"
)

func TestConnectionRequestRoundTrip(t *testing.T) {
	req := &x224.ConnectionRequest{
		Cookie:             "Cookie: mstshash=user\r\n",
		HasNegotiation:     true,
		NegotiationFlags:   x224.NegReqCorrelationInfoPresent,
		RequestedProtocols: x224.ProtocolHybrid | x224.ProtocolSSL,
	}

	buf := make([]byte, req.Size())
	require.NoError(t, req.Encode(cursor.NewWriter(buf)))

	got, err := x224.DecodeConnectionRequest(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, req.Cookie, got.Cookie)
	assert.True(t, got.HasNegotiation)
	assert.Equal(t, req.NegotiationFlags, got.NegotiationFlags)
	assert.Equal(t, req.RequestedProtocols, got.RequestedProtocols)
}

func TestConnectionConfirmRoundTrip(t *testing.T) {
	confirm := &x224.ConnectionConfirm{
		Type:             x224.NegotiationTypeResponse,
		ResponseFlags:    x224.NegRspExtendedClientDataSupported,
		SelectedProtocol: x224.ProtocolHybrid,
	}

	buf := make([]byte, confirm.Size())
	require.NoError(t, confirm.Encode(cursor.NewWriter(buf)))

	got, err := x224.DecodeConnectionConfirm(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, confirm.Type, got.Type)
	assert.Equal(t, confirm.ResponseFlags, got.ResponseFlags)
	assert.Equal(t, confirm.SelectedProtocol, got.SelectedProtocol)
}

func TestConnectionConfirmFailure(t *testing.T) {
	confirm := &x224.ConnectionConfirm{
		Type:        x224.NegotiationTypeFailure,
		FailureCode: x224.FailureSSLRequiredByServer,
	}

	buf := make([]byte, confirm.Size())
	require.NoError(t, confirm.Encode(cursor.NewWriter(buf)))

	got, err := x224.DecodeConnectionConfirm(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, x224.NegotiationTypeFailure, got.Type)
	assert.Equal(t, confirm.FailureCode, got.FailureCode)
}

func TestWrapUnwrapData(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5}
	frame := x224.WrapData(payload)

	got, err := x224.UnwrapData(cursor.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFindSize(t *testing.T) {
	payload := []byte{9, 9, 9}
	frame := x224.WrapData(payload)

	size, err := x224.FindSize(frame)
	require.NoError(t, err)
	assert.Equal(t, len(frame), size)
}

func TestFindSizeShortBuffer(t *testing.T) {
	size, err := x224.FindSize([]byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}
