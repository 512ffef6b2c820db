package gcc

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// Client/server data block type tags (MS-RDPBCGR 2.2.1.3, 2.2.1.4).
const (
	BlockCSCore            uint16 = 0xC001
	BlockCSSecurity        uint16 = 0xC002
	BlockCSNetwork         uint16 = 0xC003
	BlockCSCluster         uint16 = 0xC004
	BlockCSMonitor         uint16 = 0xC005
	BlockCSMessageChannel  uint16 = 0xC006
	BlockCSMonitorEx       uint16 = 0xC008
	BlockCSMultitransport  uint16 = 0xC00A

	BlockSCCore           uint16 = 0x0C01
	BlockSCSecurity       uint16 = 0x0C02
	BlockSCNetwork        uint16 = 0x0C03
	BlockSCMessageChannel uint16 = 0x0C04
	BlockSCMultitransport uint16 = 0x0C08
)

// writeBlockHeader writes the common 4-byte header (type, length)
// prefixing every client/server data block.
func writeBlockHeader(dst *cursor.Writer, blockType uint16, bodyLen int) {
	dst.WriteU16LE(blockType)
	dst.WriteU16LE(uint16(4 + bodyLen))
}

func readBlockHeader(name string, src *cursor.Reader) (blockType uint16, bodyLen int, err error) {
	if err = pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return
	}
	blockType = src.ReadU16LE()
	total := src.ReadU16LE()
	if total < 4 {
		err = &pdu.InvalidFieldError{PDU: name, Field: "length", Reason: "shorter than block header"}
		return
	}
	bodyLen = int(total) - 4
	return
}

// ChannelDef is one entry of the CS_NET channel list: a (padded) 8-byte
// ASCII name plus option flags (MS-RDPBCGR 2.2.1.3.4.1).
type ChannelDef struct {
	Name    string
	Options uint32
}

const (
	ChannelOptionInitialized uint32 = 0x80000000
	ChannelOptionEncryptRDP  uint32 = 0x40000000
	ChannelOptionCompressRDP uint32 = 0x00800000
	ChannelOptionShowProtocol uint32 = 0x00200000
)

// ClientCoreData.EarlyCapabilityFlags bits (MS-RDPBCGR 2.2.1.3.2).
const (
	EarlyCapSupportErrInfoPDU         uint16 = 0x0001
	EarlyCapWant32BppSessionSupport   uint16 = 0x0002
	EarlyCapSupportStatusInfoPDU      uint16 = 0x0004
	EarlyCapStrongAsymmetricKeys      uint16 = 0x0008
	EarlyCapSupportMonitorLayoutPDU   uint16 = 0x0040
	EarlyCapSupportNetcharAutodetect  uint16 = 0x0080
	EarlyCapSupportDynVCGFXProtocol   uint16 = 0x0100
	EarlyCapSupportDynamicTimeZone    uint16 = 0x0200
	EarlyCapSupportHeartbeatPDU       uint16 = 0x0400
)

// ClientCoreData is the CS_CORE block: client version, desktop geometry,
// keyboard layout, and feature-negotiation flags.
type ClientCoreData struct {
	Version              uint32
	DesktopWidth          uint16
	DesktopHeight         uint16
	ColorDepth            uint16 // legacy RNS_UD_COLOR_* value
	SASSequence           uint16
	KeyboardLayout        uint32
	ClientBuild           uint32
	ClientName            string // UTF-16LE, null-terminated, 32 bytes
	KeyboardType          uint32
	KeyboardSubType       uint32
	KeyboardFunctionKeys  uint32
	ImeFileName           string // 64 bytes
	PostBeta2ColorDepth   uint16
	ClientProductID       uint16
	SerialNumber          uint32
	HighColorDepth        uint16
	SupportedColorDepths  uint16
	EarlyCapabilityFlags  uint16
	ClientDigProductID    string // 64 bytes
	ConnectionType        uint8
	Pad1                  uint8
	ServerSelectedProtocol uint32
	DesktopPhysicalWidth  uint32
	DesktopPhysicalHeight uint32
	DesktopOrientation    uint16
	DesktopScaleFactor    uint32
	DeviceScaleFactor     uint32
}

func (c *ClientCoreData) Name() string { return "GCCClientCoreData" }
func (c *ClientCoreData) Size() int    { return 4 + 230 }

func (c *ClientCoreData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSCore, c.Size()-4)

	dst.WriteU32LE(c.Version)
	dst.WriteU16LE(c.DesktopWidth)
	dst.WriteU16LE(c.DesktopHeight)
	dst.WriteU16LE(c.ColorDepth)
	dst.WriteU16LE(c.SASSequence)
	dst.WriteU32LE(c.KeyboardLayout)
	dst.WriteU32LE(c.ClientBuild)
	writeUTF16Field(dst, c.ClientName, 32)
	dst.WriteU32LE(c.KeyboardType)
	dst.WriteU32LE(c.KeyboardSubType)
	dst.WriteU32LE(c.KeyboardFunctionKeys)
	writeUTF16Field(dst, c.ImeFileName, 64)
	dst.WriteU16LE(c.PostBeta2ColorDepth)
	dst.WriteU16LE(c.ClientProductID)
	dst.WriteU32LE(c.SerialNumber)
	dst.WriteU16LE(c.HighColorDepth)
	dst.WriteU16LE(c.SupportedColorDepths)
	dst.WriteU16LE(c.EarlyCapabilityFlags)
	writeUTF16Field(dst, c.ClientDigProductID, 64)
	dst.WriteU8(c.ConnectionType)
	dst.WriteU8(c.Pad1)
	dst.WriteU32LE(c.ServerSelectedProtocol)
	dst.WriteU32LE(c.DesktopPhysicalWidth)
	dst.WriteU32LE(c.DesktopPhysicalHeight)
	dst.WriteU16LE(c.DesktopOrientation)
	dst.WriteU32LE(c.DesktopScaleFactor)
	dst.WriteU32LE(c.DeviceScaleFactor)
	return nil
}

func writeUTF16Field(dst *cursor.Writer, s string, fieldBytes int) {
	written := 0
	for _, r := range s {
		if written+2 > fieldBytes-2 {
			break
		}
		dst.WriteU16LE(uint16(r))
		written += 2
	}
	for written < fieldBytes {
		dst.WriteU16LE(0)
		written += 2
	}
}

func readUTF16Field(buf []byte) string {
	out := make([]rune, 0, len(buf)/2)
	for i := 0; i+1 < len(buf); i += 2 {
		v := uint16(buf[i]) | uint16(buf[i+1])<<8
		if v == 0 {
			break
		}
		out = append(out, rune(v))
	}
	return string(out)
}

// DecodeClientCoreData reads a CS_CORE block. Fields after ImeFileName
// were added across successive RDP versions. A block too short to hold
// every field through Pad1 (older client) is decoded only through
// ImeFileName, with everything after it left zeroed; in a longer block the
// fields after Pad1 are each read only when present.
func DecodeClientCoreData(src *cursor.Reader) (*ClientCoreData, error) {
	const name = "GCCClientCoreData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSCore {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSCore)}
	}
	body, err := src.TryReadSlice(bodyLen)
	if err != nil {
		return nil, err
	}
	br := cursor.NewReader(body)

	c := &ClientCoreData{}
	if err := pdu.EnsureFixedPartSize(name, br, 4); err != nil {
		return nil, err
	}
	c.Version = br.ReadU32LE()

	read := func(n int) []byte {
		s, _ := br.TryReadSlice(n)
		return s
	}
	if br.Len() < 2+2+2+2+4+4+32+4+4+4+64+2+2+4+2+2+2+64+1+1 {
		// Older client: only the fields through ImeFileName are read.
		c.DesktopWidth = br.ReadU16LE()
		c.DesktopHeight = br.ReadU16LE()
		c.ColorDepth = br.ReadU16LE()
		c.SASSequence = br.ReadU16LE()
		c.KeyboardLayout = br.ReadU32LE()
		c.ClientBuild = br.ReadU32LE()
		c.ClientName = readUTF16Field(read(32))
		c.KeyboardType = br.ReadU32LE()
		c.KeyboardSubType = br.ReadU32LE()
		c.KeyboardFunctionKeys = br.ReadU32LE()
		c.ImeFileName = readUTF16Field(read(64))
		return c, nil
	}

	c.DesktopWidth = br.ReadU16LE()
	c.DesktopHeight = br.ReadU16LE()
	c.ColorDepth = br.ReadU16LE()
	c.SASSequence = br.ReadU16LE()
	c.KeyboardLayout = br.ReadU32LE()
	c.ClientBuild = br.ReadU32LE()
	c.ClientName = readUTF16Field(read(32))
	c.KeyboardType = br.ReadU32LE()
	c.KeyboardSubType = br.ReadU32LE()
	c.KeyboardFunctionKeys = br.ReadU32LE()
	c.ImeFileName = readUTF16Field(read(64))
	c.PostBeta2ColorDepth = br.ReadU16LE()
	c.ClientProductID = br.ReadU16LE()
	c.SerialNumber = br.ReadU32LE()
	c.HighColorDepth = br.ReadU16LE()
	c.SupportedColorDepths = br.ReadU16LE()
	c.EarlyCapabilityFlags = br.ReadU16LE()
	c.ClientDigProductID = readUTF16Field(read(64))
	c.ConnectionType = br.ReadU8()
	c.Pad1 = br.ReadU8()

	if br.Len() >= 4 {
		c.ServerSelectedProtocol = br.ReadU32LE()
	}
	if br.Len() >= 8 {
		c.DesktopPhysicalWidth = br.ReadU32LE()
		c.DesktopPhysicalHeight = br.ReadU32LE()
	}
	if br.Len() >= 2 {
		c.DesktopOrientation = br.ReadU16LE()
	}
	if br.Len() >= 8 {
		c.DesktopScaleFactor = br.ReadU32LE()
		c.DeviceScaleFactor = br.ReadU32LE()
	}

	return c, nil
}

// ClientSecurityData is the CS_SECURITY block.
type ClientSecurityData struct {
	EncryptionMethods    uint32
	ExtEncryptionMethods uint32
}

func (c *ClientSecurityData) Name() string { return "GCCClientSecurityData" }
func (c *ClientSecurityData) Size() int    { return 4 + 8 }

func (c *ClientSecurityData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSSecurity, 8)
	dst.WriteU32LE(c.EncryptionMethods)
	dst.WriteU32LE(c.ExtEncryptionMethods)
	return nil
}

func DecodeClientSecurityData(src *cursor.Reader) (*ClientSecurityData, error) {
	const name = "GCCClientSecurityData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSSecurity {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSSecurity)}
	}
	if bodyLen < 8 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 8}
	}
	c := &ClientSecurityData{}
	c.EncryptionMethods = src.ReadU32LE()
	c.ExtEncryptionMethods = src.ReadU32LE()
	if bodyLen > 8 {
		if _, err := src.TryReadSlice(bodyLen - 8); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ClientNetworkData is the CS_NET block: the virtual channel list the
// client asks the server to establish.
type ClientNetworkData struct {
	Channels []ChannelDef
}

func (c *ClientNetworkData) Name() string { return "GCCClientNetworkData" }
func (c *ClientNetworkData) Size() int    { return 4 + 4 + 12*len(c.Channels) }

func (c *ClientNetworkData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSNetwork, c.Size()-4)
	dst.WriteU32LE(uint32(len(c.Channels)))
	for _, ch := range c.Channels {
		name := ch.Name
		if len(name) > 8 {
			name = name[:8]
		}
		nb := make([]byte, 8)
		copy(nb, name)
		dst.WriteSlice(nb)
		dst.WriteU32LE(ch.Options)
	}
	return nil
}

func DecodeClientNetworkData(src *cursor.Reader) (*ClientNetworkData, error) {
	const name = "GCCClientNetworkData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSNetwork {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSNetwork)}
	}
	if bodyLen < 4 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 4}
	}
	count := int(src.ReadU32LE())
	if count*12 > bodyLen-4 {
		return nil, &pdu.CrossFieldMismatchError{PDU: name, Fields: []string{"channelCount", "length"}, Reason: "declared channel count exceeds block body"}
	}
	c := &ClientNetworkData{Channels: make([]ChannelDef, 0, count)}
	for i := 0; i < count; i++ {
		nb, err := src.TryReadSlice(8)
		if err != nil {
			return nil, err
		}
		end := 0
		for end < len(nb) && nb[end] != 0 {
			end++
		}
		opts := src.ReadU32LE()
		c.Channels = append(c.Channels, ChannelDef{Name: string(nb[:end]), Options: opts})
	}
	return c, nil
}

// ClientClusterData is the CS_CLUSTER block used for session reconnection
// and console-session redirection.
type ClientClusterData struct {
	Flags    uint32
	RedirectedSessionID uint32
}

const (
	ClusterSupportReconnection uint32 = 0x00000001
	ClusterRedirectionSupported uint32 = 0x00000002
	ClusterRedirectedSessionField uint32 = 0x00000008
)

func (c *ClientClusterData) Name() string { return "GCCClientClusterData" }
func (c *ClientClusterData) Size() int    { return 4 + 8 }

func (c *ClientClusterData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSCluster, 8)
	dst.WriteU32LE(c.Flags)
	dst.WriteU32LE(c.RedirectedSessionID)
	return nil
}

func DecodeClientClusterData(src *cursor.Reader) (*ClientClusterData, error) {
	const name = "GCCClientClusterData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSCluster {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSCluster)}
	}
	if bodyLen < 8 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 8}
	}
	c := &ClientClusterData{}
	c.Flags = src.ReadU32LE()
	c.RedirectedSessionID = src.ReadU32LE()
	return c, nil
}

// MonitorDef is one entry of the CS_MONITOR block.
type MonitorDef struct {
	Left, Top, Right, Bottom int32
	Flags                    uint32
}

const MonitorFlagPrimary uint32 = 0x00000001

// ClientMonitorData is the CS_MONITOR block describing the client's
// multi-monitor layout.
type ClientMonitorData struct {
	Flags    uint32
	Monitors []MonitorDef
}

func (c *ClientMonitorData) Name() string { return "GCCClientMonitorData" }
func (c *ClientMonitorData) Size() int    { return 4 + 8 + 20*len(c.Monitors) }

func (c *ClientMonitorData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSMonitor, c.Size()-4)
	dst.WriteU32LE(c.Flags)
	dst.WriteU32LE(uint32(len(c.Monitors)))
	for _, m := range c.Monitors {
		dst.WriteI32LE(m.Left)
		dst.WriteI32LE(m.Top)
		dst.WriteI32LE(m.Right)
		dst.WriteI32LE(m.Bottom)
		dst.WriteU32LE(m.Flags)
	}
	return nil
}

func DecodeClientMonitorData(src *cursor.Reader) (*ClientMonitorData, error) {
	const name = "GCCClientMonitorData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSMonitor {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSMonitor)}
	}
	if bodyLen < 8 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 8}
	}
	c := &ClientMonitorData{}
	c.Flags = src.ReadU32LE()
	count := int(src.ReadU32LE())
	if count*20 > bodyLen-8 {
		return nil, &pdu.CrossFieldMismatchError{PDU: name, Fields: []string{"monitorCount", "length"}, Reason: "declared monitor count exceeds block body"}
	}
	for i := 0; i < count; i++ {
		var m MonitorDef
		m.Left = src.ReadI32LE()
		m.Top = src.ReadI32LE()
		m.Right = src.ReadI32LE()
		m.Bottom = src.ReadI32LE()
		m.Flags = src.ReadU32LE()
		c.Monitors = append(c.Monitors, m)
	}
	return c, nil
}

// ClientMessageChannelData is the CS_MCS_MSGCHANNEL block: requests a
// dedicated MCS channel for out-of-band autodetect/heartbeat PDUs.
type ClientMessageChannelData struct{}

func (c *ClientMessageChannelData) Name() string { return "GCCClientMessageChannelData" }
func (c *ClientMessageChannelData) Size() int    { return 4 }
func (c *ClientMessageChannelData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSMessageChannel, 0)
	return nil
}

func DecodeClientMessageChannelData(src *cursor.Reader) (*ClientMessageChannelData, error) {
	const name = "GCCClientMessageChannelData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSMessageChannel {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSMessageChannel)}
	}
	if bodyLen > 0 {
		if _, err := src.TryReadSlice(bodyLen); err != nil {
			return nil, err
		}
	}
	return &ClientMessageChannelData{}, nil
}

// ClientMultitransportData is the CS_MULTITRANSPORT block negotiating
// RDP-UDP side channels (MS-RDPEMT).
type ClientMultitransportData struct {
	Flags uint32
}

const (
	MultitransportUDPFECR uint32 = 0x00000001
	MultitransportUDPFECL uint32 = 0x00000004
)

func (c *ClientMultitransportData) Name() string { return "GCCClientMultitransportData" }
func (c *ClientMultitransportData) Size() int    { return 4 + 4 }
func (c *ClientMultitransportData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(c.Name(), dst, c.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockCSMultitransport, 4)
	dst.WriteU32LE(c.Flags)
	return nil
}

func DecodeClientMultitransportData(src *cursor.Reader) (*ClientMultitransportData, error) {
	const name = "GCCClientMultitransportData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockCSMultitransport {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockCSMultitransport)}
	}
	if bodyLen < 4 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 4}
	}
	return &ClientMultitransportData{Flags: src.ReadU32LE()}, nil
}

// ServerCoreData is the SC_CORE block: the server's negotiated version and
// (when present) client-requested-protocol echo.
type ServerCoreData struct {
	Version                uint32
	ClientRequestedProtocol uint32
	EarlyCapabilityFlags   uint32
}

func (s *ServerCoreData) Name() string { return "GCCServerCoreData" }
func (s *ServerCoreData) Size() int    { return 4 + 12 }

func (s *ServerCoreData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockSCCore, 12)
	dst.WriteU32LE(s.Version)
	dst.WriteU32LE(s.ClientRequestedProtocol)
	dst.WriteU32LE(s.EarlyCapabilityFlags)
	return nil
}

func DecodeServerCoreData(src *cursor.Reader) (*ServerCoreData, error) {
	const name = "GCCServerCoreData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockSCCore {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockSCCore)}
	}
	s := &ServerCoreData{}
	if bodyLen >= 4 {
		s.Version = src.ReadU32LE()
	}
	if bodyLen >= 8 {
		s.ClientRequestedProtocol = src.ReadU32LE()
	}
	if bodyLen >= 12 {
		s.EarlyCapabilityFlags = src.ReadU32LE()
	}
	return s, nil
}

// ServerSecurityData is the SC_SECURITY block carrying the chosen
// encryption method/level and (for standard RDP security) the server's
// random + certificate.
type ServerSecurityData struct {
	EncryptionMethod uint32
	EncryptionLevel  uint32
	ServerRandom     []byte
	ServerCertificate []byte
}

func (s *ServerSecurityData) Name() string { return "GCCServerSecurityData" }

func (s *ServerSecurityData) Size() int {
	n := 4 + 8
	if s.EncryptionMethod != 0 {
		n += 4 + 4 + len(s.ServerRandom) + len(s.ServerCertificate)
	}
	return n
}

func (s *ServerSecurityData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockSCSecurity, s.Size()-4)
	dst.WriteU32LE(s.EncryptionMethod)
	dst.WriteU32LE(s.EncryptionLevel)
	if s.EncryptionMethod != 0 {
		dst.WriteU32LE(uint32(len(s.ServerRandom)))
		dst.WriteU32LE(uint32(len(s.ServerCertificate)))
		dst.WriteSlice(s.ServerRandom)
		dst.WriteSlice(s.ServerCertificate)
	}
	return nil
}

func DecodeServerSecurityData(src *cursor.Reader) (*ServerSecurityData, error) {
	const name = "GCCServerSecurityData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockSCSecurity {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockSCSecurity)}
	}
	if bodyLen < 8 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 8}
	}
	s := &ServerSecurityData{}
	s.EncryptionMethod = src.ReadU32LE()
	s.EncryptionLevel = src.ReadU32LE()
	if s.EncryptionMethod == 0 {
		return s, nil
	}
	if bodyLen < 16 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 16}
	}
	randLen := int(src.ReadU32LE())
	certLen := int(src.ReadU32LE())
	var err2 error
	if s.ServerRandom, err2 = src.TryReadSlice(randLen); err2 != nil {
		return nil, err2
	}
	if s.ServerCertificate, err2 = src.TryReadSlice(certLen); err2 != nil {
		return nil, err2
	}
	return s, nil
}

// ServerNetworkData is the SC_NET block: the MCS channel IDs assigned to
// each requested virtual channel, in request order.
type ServerNetworkData struct {
	IOChannelID uint16
	ChannelIDs  []uint16
}

func (s *ServerNetworkData) Name() string { return "GCCServerNetworkData" }
func (s *ServerNetworkData) Size() int {
	n := 4 + 2 + 2 + 2*len(s.ChannelIDs)
	if len(s.ChannelIDs)%2 != 0 {
		n += 2 // pad
	}
	return n
}

func (s *ServerNetworkData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockSCNetwork, s.Size()-4)
	dst.WriteU16LE(s.IOChannelID)
	dst.WriteU16LE(uint16(len(s.ChannelIDs)))
	for _, id := range s.ChannelIDs {
		dst.WriteU16LE(id)
	}
	if len(s.ChannelIDs)%2 != 0 {
		dst.WriteU16LE(0)
	}
	return nil
}

func DecodeServerNetworkData(src *cursor.Reader) (*ServerNetworkData, error) {
	const name = "GCCServerNetworkData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockSCNetwork {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockSCNetwork)}
	}
	if bodyLen < 4 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 4}
	}
	s := &ServerNetworkData{}
	s.IOChannelID = src.ReadU16LE()
	count := int(src.ReadU16LE())
	if count*2 > bodyLen-4 {
		return nil, &pdu.CrossFieldMismatchError{PDU: name, Fields: []string{"channelCount", "length"}, Reason: "declared channel count exceeds block body"}
	}
	for i := 0; i < count; i++ {
		s.ChannelIDs = append(s.ChannelIDs, src.ReadU16LE())
	}
	return s, nil
}

// ServerMessageChannelData is the SC_MCS_MSGCHANNEL block, echoing back the
// MCS channel ID assigned for autodetect/heartbeat traffic.
type ServerMessageChannelData struct {
	ChannelID uint16
}

func (s *ServerMessageChannelData) Name() string { return "GCCServerMessageChannelData" }
func (s *ServerMessageChannelData) Size() int    { return 4 + 2 }
func (s *ServerMessageChannelData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockSCMessageChannel, 2)
	dst.WriteU16LE(s.ChannelID)
	return nil
}

func DecodeServerMessageChannelData(src *cursor.Reader) (*ServerMessageChannelData, error) {
	const name = "GCCServerMessageChannelData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockSCMessageChannel {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockSCMessageChannel)}
	}
	if bodyLen < 2 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 2}
	}
	return &ServerMessageChannelData{ChannelID: src.ReadU16LE()}, nil
}

// ServerMultitransportData is the SC_MULTITRANSPORT block, echoing the
// RDP-UDP transports the server actually supports.
type ServerMultitransportData struct {
	Flags uint32
}

func (s *ServerMultitransportData) Name() string { return "GCCServerMultitransportData" }
func (s *ServerMultitransportData) Size() int    { return 4 + 4 }
func (s *ServerMultitransportData) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(s.Name(), dst, s.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockSCMultitransport, 4)
	dst.WriteU32LE(s.Flags)
	return nil
}

func DecodeServerMultitransportData(src *cursor.Reader) (*ServerMultitransportData, error) {
	const name = "GCCServerMultitransportData"
	blockType, bodyLen, err := readBlockHeader(name, src)
	if err != nil {
		return nil, err
	}
	if blockType != BlockSCMultitransport {
		return nil, &pdu.UnexpectedMagicError{PDU: name, Field: "type", Got: uint64(blockType), Expected: uint64(BlockSCMultitransport)}
	}
	if bodyLen < 4 {
		return nil, &pdu.ShortReadError{PDU: name, Received: bodyLen, Expected: 4}
	}
	return &ServerMultitransportData{Flags: src.ReadU32LE()}, nil
}
