package gcc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/protocol/gcc"
)

func TestConferenceCreateRequestRoundTrip(t *testing.T) {
	core := &gcc.ClientCoreData{
		Version:        0x00080004,
		DesktopWidth:   1920,
		DesktopHeight:  1080,
		ColorDepth:     0xCA01,
		KeyboardLayout: 0x409,
		ClientBuild:    19041,
		ClientName:     "WORKSTATION",
	}
	coreBuf := make([]byte, core.Size())
	require.NoError(t, core.Encode(cursor.NewWriter(coreBuf)))

	net := &gcc.ClientNetworkData{Channels: []gcc.ChannelDef{
		{Name: "rdpdr", Options: gcc.ChannelOptionInitialized | gcc.ChannelOptionCompressRDP},
		{Name: "cliprdr", Options: gcc.ChannelOptionInitialized},
	}}
	netBuf := make([]byte, net.Size())
	require.NoError(t, net.Encode(cursor.NewWriter(netBuf)))

	userData := append(append([]byte{}, coreBuf...), netBuf...)

	req := &gcc.ConferenceCreateRequest{UserData: userData}
	buf := make([]byte, req.Size())
	require.NoError(t, req.Encode(cursor.NewWriter(buf)))

	got, err := gcc.DecodeConferenceCreateRequest(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, userData, got.UserData)

	blocks, err := gcc.DecodeClientDataBlocks(got.UserData)
	require.NoError(t, err)
	require.NotNil(t, blocks.Core)
	assert.Equal(t, core.DesktopWidth, blocks.Core.DesktopWidth)
	assert.Equal(t, "WORKSTATION", blocks.Core.ClientName)
	require.NotNil(t, blocks.Network)
	require.Len(t, blocks.Network.Channels, 2)
	assert.Equal(t, "rdpdr", blocks.Network.Channels[0].Name)
	assert.Equal(t, "cliprdr", blocks.Network.Channels[1].Name)
}

func TestConferenceCreateResponseRoundTrip(t *testing.T) {
	sCore := &gcc.ServerCoreData{Version: 0x00080004, ClientRequestedProtocol: 1}
	sCoreBuf := make([]byte, sCore.Size())
	require.NoError(t, sCore.Encode(cursor.NewWriter(sCoreBuf)))

	sNet := &gcc.ServerNetworkData{IOChannelID: 1003, ChannelIDs: []uint16{1004, 1005}}
	sNetBuf := make([]byte, sNet.Size())
	require.NoError(t, sNet.Encode(cursor.NewWriter(sNetBuf)))

	userData := append(append([]byte{}, sCoreBuf...), sNetBuf...)

	resp := &gcc.ConferenceCreateResponse{UserData: userData}
	buf := make([]byte, resp.Size())
	require.NoError(t, resp.Encode(cursor.NewWriter(buf)))

	got, err := gcc.DecodeConferenceCreateResponse(cursor.NewReader(buf))
	require.NoError(t, err)

	blocks, err := gcc.DecodeServerDataBlocks(got.UserData)
	require.NoError(t, err)
	require.NotNil(t, blocks.Core)
	assert.Equal(t, sCore.Version, blocks.Core.Version)
	require.NotNil(t, blocks.Network)
	assert.Equal(t, sNet.IOChannelID, blocks.Network.IOChannelID)
	assert.Equal(t, sNet.ChannelIDs, blocks.Network.ChannelIDs)
}

func TestClientSecurityDataRoundTrip(t *testing.T) {
	s := &gcc.ClientSecurityData{EncryptionMethods: 0x1B, ExtEncryptionMethods: 0}
	buf := make([]byte, s.Size())
	require.NoError(t, s.Encode(cursor.NewWriter(buf)))
	got, err := gcc.DecodeClientSecurityData(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, s.EncryptionMethods, got.EncryptionMethods)
}

func TestClientMonitorDataRoundTrip(t *testing.T) {
	m := &gcc.ClientMonitorData{Flags: 0, Monitors: []gcc.MonitorDef{
		{Left: 0, Top: 0, Right: 1919, Bottom: 1079, Flags: gcc.MonitorFlagPrimary},
	}}
	buf := make([]byte, m.Size())
	require.NoError(t, m.Encode(cursor.NewWriter(buf)))
	got, err := gcc.DecodeClientMonitorData(cursor.NewReader(buf))
	require.NoError(t, err)
	require.Len(t, got.Monitors, 1)
	assert.Equal(t, int32(1919), got.Monitors[0].Right)
}
