// Package security implements the RDP Security layer: the basic security
// header prefixing most slow-path PDUs, Server/Client Random exchange, and
// the Client Info PDU carrying logon credentials (MS-RDPBCGR 2.2.8.1.1,
// 2.2.1.11, 2.2.1.13).
package security

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// Basic security header flags (MS-RDPBCGR 2.2.8.1.1.2.1).
type Flags uint16

const (
	FlagExchangePKT   Flags = 0x0001
	FlagTransportReq  Flags = 0x0002
	FlagTransportRsp  Flags = 0x0004
	FlagEncrypt       Flags = 0x0008
	FlagResetSeqno    Flags = 0x0010
	FlagIgnoreSeqno   Flags = 0x0020
	FlagInfoPKT       Flags = 0x0040
	FlagLicensePKT    Flags = 0x0080
	FlagLicenseEncryptCS Flags = 0x0200
	FlagRedirectionPKT Flags = 0x0400
	FlagSecureChecksum Flags = 0x0800
	FlagAutodetectReq Flags = 0x1000
	FlagAutodetectRsp Flags = 0x2000
	FlagHeartbeat     Flags = 0x4000
	FlagsHi           Flags = 0x8000
)

// BasicHeader is the 4-byte SEC_HEADER prefixing Client Info, License, and
// (when basic security is negotiated) slow-path data PDUs.
type BasicHeader struct {
	Flags   Flags
	FlagsHi uint16
}

func (h *BasicHeader) Name() string { return "SecurityBasicHeader" }
func (h *BasicHeader) Size() int    { return 4 }

func (h *BasicHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(h.Name(), dst, h.Size()); err != nil {
		return err
	}
	dst.WriteU16LE(uint16(h.Flags))
	dst.WriteU16LE(h.FlagsHi)
	return nil
}

func DecodeBasicHeader(src *cursor.Reader) (*BasicHeader, error) {
	const name = "SecurityBasicHeader"
	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return nil, err
	}
	h := &BasicHeader{}
	h.Flags = Flags(src.ReadU16LE())
	h.FlagsHi = src.ReadU16LE()
	return h, nil
}

// SignatureHeader extends BasicHeader with an 8-byte MAC, present when
// FlagEncrypt is set (MS-RDPBCGR 2.2.8.1.1.2.2).
type SignatureHeader struct {
	BasicHeader
	Signature [8]byte
}

func (h *SignatureHeader) Name() string { return "SecuritySignatureHeader" }
func (h *SignatureHeader) Size() int    { return 12 }

func (h *SignatureHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(h.Name(), dst, h.Size()); err != nil {
		return err
	}
	if err := h.BasicHeader.Encode(dst); err != nil {
		return err
	}
	dst.WriteSlice(h.Signature[:])
	return nil
}

func DecodeSignatureHeader(src *cursor.Reader) (*SignatureHeader, error) {
	const name = "SecuritySignatureHeader"
	if err := pdu.EnsureFixedPartSize(name, src, 12); err != nil {
		return nil, err
	}
	basic, err := DecodeBasicHeader(src)
	if err != nil {
		return nil, err
	}
	h := &SignatureHeader{BasicHeader: *basic}
	sig, err := src.TryReadSlice(8)
	if err != nil {
		return nil, err
	}
	copy(h.Signature[:], sig)
	return h, nil
}

// ExchangePKT is the Client/Server Random Exchange body (SEC_EXCHANGE_PKT),
// used only under standard RDP security (MS-RDPBCGR 2.2.1.10.1).
type ExchangePKT struct {
	EncryptedRandom []byte
}

func (e *ExchangePKT) Name() string { return "SecurityExchangePKT" }
func (e *ExchangePKT) Size() int    { return 4 + len(e.EncryptedRandom) }

func (e *ExchangePKT) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(e.Name(), dst, e.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(uint32(len(e.EncryptedRandom)))
	dst.WriteSlice(e.EncryptedRandom)
	return nil
}

func DecodeExchangePKT(src *cursor.Reader) (*ExchangePKT, error) {
	const name = "SecurityExchangePKT"
	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return nil, err
	}
	length := int(src.ReadU32LE())
	data, err := src.TryReadSlice(length)
	if err != nil {
		return nil, err
	}
	return &ExchangePKT{EncryptedRandom: data}, nil
}

// ClientInfoFlags is the flags field of CLIENT_INFO (MS-RDPBCGR 2.2.1.11.1.1).
type ClientInfoFlags uint32

const (
	InfoMouse                ClientInfoFlags = 0x00000001
	InfoDisableCtrlAltDel    ClientInfoFlags = 0x00000002
	InfoAutologon            ClientInfoFlags = 0x00000008
	InfoUnicode              ClientInfoFlags = 0x00000010
	InfoMaximizeShell        ClientInfoFlags = 0x00000020
	InfoLogonNotify          ClientInfoFlags = 0x00000040
	InfoCompression          ClientInfoFlags = 0x00000080
	InfoEnableWindowsKey     ClientInfoFlags = 0x00000100
	InfoRemoteConsoleAudio   ClientInfoFlags = 0x00002000
	InfoForceEncryptedCSPData ClientInfoFlags = 0x00004000
	InfoRail                 ClientInfoFlags = 0x00008000
	InfoLogonErrors          ClientInfoFlags = 0x00010000
	InfoMouseHasWheel        ClientInfoFlags = 0x00020000
	InfoPasswordIsScPin      ClientInfoFlags = 0x00040000
	InfoNoAudioPlayback      ClientInfoFlags = 0x00080000
	InfoUsingSavedCreds      ClientInfoFlags = 0x00100000
	InfoAudioCapture         ClientInfoFlags = 0x00200000
	InfoVideoDisable         ClientInfoFlags = 0x00400000
	InfoCompressionTypeMask  ClientInfoFlags = 0x00001E00
)

// ExtendedInfo carries the fields added after CLIENT_INFO's variable-length
// domain/username/password/alternate-shell/working-directory block
// (MS-RDPBCGR 2.2.1.11.1.1.1), present whenever RDP 5.0+ is negotiated.
type ExtendedInfo struct {
	ClientAddress      string
	ClientDir          string
	PerformanceFlags   uint32
	AutoReconnectCookie []byte
}

// ClientInfo is the CLIENT_INFO PDU: logon credentials and client
// environment sent once, immediately after the security exchange.
type ClientInfo struct {
	CodePage         uint32
	Flags            ClientInfoFlags
	Domain           string
	UserName         string
	Password         string
	AlternateShell   string
	WorkingDir       string
	Extended         *ExtendedInfo
}

func (c *ClientInfo) Name() string { return "ClientInfo" }

func (c *ClientInfo) Size() int {
	n := 4 + 4 + 2 + 2 + 2 + 2 + 2
	n += strFieldBytes(c.Domain) + strFieldBytes(c.UserName) + strFieldBytes(c.Password) +
		strFieldBytes(c.AlternateShell) + strFieldBytes(c.WorkingDir)
	if c.Extended != nil {
		n += 2 + strFieldBytes(c.Extended.ClientAddress) +
			2 + strFieldBytes(c.Extended.ClientDir) +
			4 + 2 + len(c.Extended.AutoReconnectCookie)
	}
	return n
}

// strFieldBytes is the UTF-16LE encoding size plus the null terminator,
// assuming ASCII-range content (2 bytes per rune).
func strFieldBytes(s string) int { return 2 * (len([]rune(s)) + 1) }

func (c *ClientInfo) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}

	dst.WriteU32LE(c.CodePage)
	dst.WriteU32LE(uint32(c.Flags))
	dst.WriteU16LE(uint16(len([]rune(c.Domain))) * 2)
	dst.WriteU16LE(uint16(len([]rune(c.UserName))) * 2)
	dst.WriteU16LE(uint16(len([]rune(c.Password))) * 2)
	dst.WriteU16LE(uint16(len([]rune(c.AlternateShell))) * 2)
	dst.WriteU16LE(uint16(len([]rune(c.WorkingDir))) * 2)
	writeUTF16Z(dst, c.Domain)
	writeUTF16Z(dst, c.UserName)
	writeUTF16Z(dst, c.Password)
	writeUTF16Z(dst, c.AlternateShell)
	writeUTF16Z(dst, c.WorkingDir)

	if c.Extended != nil {
		dst.WriteU16LE(uint16(len([]rune(c.Extended.ClientAddress))) * 2)
		writeUTF16Z(dst, c.Extended.ClientAddress)
		dst.WriteU16LE(uint16(len([]rune(c.Extended.ClientDir))) * 2)
		writeUTF16Z(dst, c.Extended.ClientDir)
		dst.WriteU32LE(c.Extended.PerformanceFlags)
		dst.WriteU16LE(uint16(len(c.Extended.AutoReconnectCookie)))
		dst.WriteSlice(c.Extended.AutoReconnectCookie)
	}

	return nil
}

func writeUTF16Z(dst *cursor.Writer, s string) {
	for _, r := range s {
		dst.WriteU16LE(uint16(r))
	}
	dst.WriteU16LE(0)
}

func readUTF16ZField(name string, src *cursor.Reader, byteLen int) (string, error) {
	data, err := src.TryReadSlice(byteLen + 2)
	if err != nil {
		return "", err
	}
	out := make([]rune, 0, byteLen/2)
	for i := 0; i+1 < byteLen; i += 2 {
		v := uint16(data[i]) | uint16(data[i+1])<<8
		out = append(out, rune(v))
	}
	return string(out), nil
}

// DecodeClientInfo parses a CLIENT_INFO PDU. hasExtended controls whether
// the caller expects the RDP 5.0+ extended info block to follow (the
// connection sequence knows this from the negotiated protocol version, not
// from any field inside ClientInfo itself).
func DecodeClientInfo(src *cursor.Reader, hasExtended bool) (*ClientInfo, error) {
	const name = "ClientInfo"
	if err := pdu.EnsureFixedPartSize(name, src, 18); err != nil {
		return nil, err
	}

	c := &ClientInfo{}
	c.CodePage = src.ReadU32LE()
	c.Flags = ClientInfoFlags(src.ReadU32LE())
	domainLen := int(src.ReadU16LE())
	userLen := int(src.ReadU16LE())
	passLen := int(src.ReadU16LE())
	shellLen := int(src.ReadU16LE())
	dirLen := int(src.ReadU16LE())

	var err error
	if c.Domain, err = readUTF16ZField(name, src, domainLen); err != nil {
		return nil, err
	}
	if c.UserName, err = readUTF16ZField(name, src, userLen); err != nil {
		return nil, err
	}
	if c.Password, err = readUTF16ZField(name, src, passLen); err != nil {
		return nil, err
	}
	if c.AlternateShell, err = readUTF16ZField(name, src, shellLen); err != nil {
		return nil, err
	}
	if c.WorkingDir, err = readUTF16ZField(name, src, dirLen); err != nil {
		return nil, err
	}

	if hasExtended && src.Len() > 0 {
		ext := &ExtendedInfo{}
		if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
			return nil, err
		}
		addrLen := int(src.ReadU16LE())
		if ext.ClientAddress, err = readUTF16ZField(name, src, addrLen); err != nil {
			return nil, err
		}
		if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
			return nil, err
		}
		dirLen2 := int(src.ReadU16LE())
		if ext.ClientDir, err = readUTF16ZField(name, src, dirLen2); err != nil {
			return nil, err
		}
		if src.Len() >= 4 {
			ext.PerformanceFlags = src.ReadU32LE()
		}
		if src.Len() >= 2 {
			cookieLen := int(src.ReadU16LE())
			if ext.AutoReconnectCookie, err = src.TryReadSlice(cookieLen); err != nil {
				return nil, err
			}
		}
		c.Extended = ext
	}

	return c, nil
}
