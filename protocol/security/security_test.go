package security_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/protocol/security"
)

func TestBasicHeaderRoundTrip(t *testing.T) {
	h := &security.BasicHeader{Flags: security.FlagInfoPKT}
	buf := make([]byte, h.Size())
	require.NoError(t, h.Encode(cursor.NewWriter(buf)))
	got, err := security.DecodeBasicHeader(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, h.Flags, got.Flags)
}

func TestSignatureHeaderRoundTrip(t *testing.T) {
	h := &security.SignatureHeader{
		BasicHeader: security.BasicHeader{Flags: security.FlagEncrypt},
		Signature:   [8]byte{1, 2, 3, 4, 5, 6, 7, 8},
	}
	buf := make([]byte, h.Size())
	require.NoError(t, h.Encode(cursor.NewWriter(buf)))
	got, err := security.DecodeSignatureHeader(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, h.Signature, got.Signature)
}

func TestClientInfoRoundTripBasic(t *testing.T) {
	c := &security.ClientInfo{
		CodePage: 0x0409,
		Flags:    security.InfoMouse | security.InfoUnicode | security.InfoAutologon,
		Domain:   "",
		UserName: "alice",
		Password: "hunter2",
	}

	buf := make([]byte, c.Size())
	require.NoError(t, c.Encode(cursor.NewWriter(buf)))

	got, err := security.DecodeClientInfo(cursor.NewReader(buf), false)
	require.NoError(t, err)
	assert.Equal(t, c.UserName, got.UserName)
	assert.Equal(t, c.Password, got.Password)
	assert.Equal(t, c.Flags, got.Flags)
	assert.Nil(t, got.Extended)
}

func TestClientInfoRoundTripExtended(t *testing.T) {
	c := &security.ClientInfo{
		CodePage: 0x0409,
		Flags:    security.InfoUnicode,
		UserName: "bob",
		Password: "swordfish",
		Extended: &security.ExtendedInfo{
			ClientAddress:    "10.0.0.5",
			ClientDir:        "C:\\Windows\\System32\\mstscax.dll",
			PerformanceFlags: 0x00000001,
		},
	}

	buf := make([]byte, c.Size())
	require.NoError(t, c.Encode(cursor.NewWriter(buf)))

	got, err := security.DecodeClientInfo(cursor.NewReader(buf), true)
	require.NoError(t, err)
	require.NotNil(t, got.Extended)
	assert.Equal(t, c.Extended.ClientAddress, got.Extended.ClientAddress)
	assert.Equal(t, c.Extended.ClientDir, got.Extended.ClientDir)
	assert.Equal(t, c.Extended.PerformanceFlags, got.Extended.PerformanceFlags)
}

func TestExchangePKTRoundTrip(t *testing.T) {
	e := &security.ExchangePKT{EncryptedRandom: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	buf := make([]byte, e.Size())
	require.NoError(t, e.Encode(cursor.NewWriter(buf)))
	got, err := security.DecodeExchangePKT(cursor.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, e.EncryptedRandom, got.EncryptedRandom)
}
