package mcs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/protocol/mcs"
)

func TestConnectInitialRoundTrip(t *testing.T) {
	ci := &mcs.ConnectInitial{
		CallingDomainSelector: []byte{0x01},
		CalledDomainSelector:  []byte{0x01},
		UpwardFlag:            true,
		TargetParameters:      mcs.DomainParameters{MaxChannelIDs: 34, MaxUserIDs: 3, ProtocolVersion: 2},
		MinimumParameters:     mcs.DomainParameters{MaxChannelIDs: 1, MaxUserIDs: 1, ProtocolVersion: 2},
		MaximumParameters:     mcs.DomainParameters{MaxChannelIDs: 0xFFFF, MaxUserIDs: 0xFC17, ProtocolVersion: 2},
		UserData:              []byte{0xAA, 0xBB, 0xCC},
	}

	buf := make([]byte, ci.Size())
	require.NoError(t, ci.Encode(cursor.NewWriter(buf)))

	got, err := mcs.DecodeConnectInitial(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, ci.UpwardFlag, got.UpwardFlag)
	assert.Equal(t, ci.TargetParameters, got.TargetParameters)
	assert.Equal(t, ci.UserData, got.UserData)
}

func TestConnectResponseRoundTrip(t *testing.T) {
	cr := &mcs.ConnectResponse{
		Result:          0,
		CalledConnectID: 0,
		Parameters:      mcs.DomainParameters{MaxChannelIDs: 34, ProtocolVersion: 2},
		UserData:        []byte{0x01, 0x02},
	}

	buf := make([]byte, cr.Size())
	require.NoError(t, cr.Encode(cursor.NewWriter(buf)))

	got, err := mcs.DecodeConnectResponse(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, cr.Parameters, got.Parameters)
	assert.Equal(t, cr.UserData, got.UserData)
}

func TestAttachUserRoundTrip(t *testing.T) {
	req := &mcs.AttachUserRequest{}
	buf := make([]byte, req.Size())
	require.NoError(t, req.Encode(cursor.NewWriter(buf)))
	_, err := mcs.DecodeAttachUserRequest(cursor.NewReader(buf))
	require.NoError(t, err)

	confirm := &mcs.AttachUserConfirm{Result: 0, InitiatorID: 1009}
	buf2 := make([]byte, confirm.Size())
	require.NoError(t, confirm.Encode(cursor.NewWriter(buf2)))
	got, err := mcs.DecodeAttachUserConfirm(cursor.NewReader(buf2))
	require.NoError(t, err)
	assert.Equal(t, confirm.InitiatorID, got.InitiatorID)
}

func TestChannelJoinRoundTrip(t *testing.T) {
	req := &mcs.ChannelJoinRequest{InitiatorID: 1009, ChannelID: 1003}
	buf := make([]byte, req.Size())
	require.NoError(t, req.Encode(cursor.NewWriter(buf)))
	got, err := mcs.DecodeChannelJoinRequest(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, req.ChannelID, got.ChannelID)

	confirm := &mcs.ChannelJoinConfirm{Result: 0, InitiatorID: 1009, Requested: 1003, ChannelID: 1003}
	buf2 := make([]byte, confirm.Size())
	require.NoError(t, confirm.Encode(cursor.NewWriter(buf2)))
	gotC, err := mcs.DecodeChannelJoinConfirm(cursor.NewReader(buf2))
	require.NoError(t, err)
	assert.Equal(t, confirm.ChannelID, gotC.ChannelID)
}

func TestSendDataRoundTrip(t *testing.T) {
	req := &mcs.SendDataRequest{InitiatorID: 1009, ChannelID: 1003, Payload: []byte("hello")}
	buf := make([]byte, req.Size())
	require.NoError(t, req.Encode(cursor.NewWriter(buf)))
	got, err := mcs.DecodeSendDataRequest(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, req.Payload, got.Payload)

	ind := &mcs.SendDataIndication{InitiatorID: 1009, ChannelID: 1003, Payload: []byte("world!!")}
	buf2 := make([]byte, ind.Size())
	require.NoError(t, ind.Encode(cursor.NewWriter(buf2)))
	gotI, err := mcs.DecodeSendDataIndication(cursor.NewReader(buf2))
	require.NoError(t, err)
	assert.Equal(t, ind.Payload, gotI.Payload)
}

func TestDisconnectProviderUltimatumRoundTrip(t *testing.T) {
	d := &mcs.DisconnectProviderUltimatum{Reason: 3}
	buf := make([]byte, d.Size())
	require.NoError(t, d.Encode(cursor.NewWriter(buf)))
	got, err := mcs.DecodeDisconnectProviderUltimatum(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, d.Reason, got.Reason)
}
