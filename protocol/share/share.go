// Package share implements the Share Control and Share Data headers that
// frame every slow-path PDU exchanged after the MCS channel join, plus the
// Demand Active / Confirm Active capability-negotiation PDUs and the
// scripted finalization data PDUs (Synchronize, Control, Font List, Font
// Map) (MS-RDPBCGR 2.2.8.1.1, 2.2.1.13, 2.2.1.14, 2.2.1.15, 2.2.1.18,
// 2.2.1.19).
package share

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
	"github.com/rcarmo/go-rdp/protocol/caps"
	"github.com/rcarmo/go-rdp/protocol/gcc"
)

// Share Control Header pduType values (low 4 bits of the field).
type ControlType uint16

const (
	ControlDemandActive  ControlType = 1
	ControlConfirmActive ControlType = 3
	ControlDeactivateAll ControlType = 6
	ControlData          ControlType = 7
)

// protocolVersion is the fixed high-12-bit version tag (RDP5+) packed into
// every Share Control Header's pduType field.
const protocolVersion uint16 = 0x10

// ControlHeader is the SHARECONTROLHEADER prefixing every slow-path PDU.
// TotalLength covers the header itself plus everything that follows it.
type ControlHeader struct {
	TotalLength uint16
	Type        ControlType
	PDUSource   uint16
}

const controlHeaderName = "ShareControlHeader"
const controlHeaderSize = 6

func (h ControlHeader) Name() string { return controlHeaderName }
func (h ControlHeader) Size() int    { return controlHeaderSize }

func (h ControlHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(controlHeaderName, dst, controlHeaderSize); err != nil {
		return err
	}
	dst.WriteU16LE(h.TotalLength)
	dst.WriteU16LE(uint16(h.Type) | (protocolVersion << 4))
	dst.WriteU16LE(h.PDUSource)
	return nil
}

func DecodeControlHeader(src *cursor.Reader) (ControlHeader, error) {
	if err := pdu.EnsureFixedPartSize(controlHeaderName, src, controlHeaderSize); err != nil {
		return ControlHeader{}, err
	}
	totalLength := src.ReadU16LE()
	pduType := src.ReadU16LE()
	pduSource := src.ReadU16LE()
	return ControlHeader{
		TotalLength: totalLength,
		Type:        ControlType(pduType & 0x0F),
		PDUSource:   pduSource,
	}, nil
}

// Share Data Header pduType2 values (MS-RDPBCGR 2.2.8.1.1.1.2).
type DataType uint8

const (
	DataUpdate        DataType = 2
	DataControl       DataType = 20
	DataInput         DataType = 28
	DataSynchronize   DataType = 31
	DataMonitorLayout DataType = 36
	DataFontList      DataType = 39
	DataFontMap       DataType = 40
)

// CompressionType mirrors the compressedType field; this module never
// compresses data PDUs, so encoders always write CompressionNone.
type CompressionType uint8

const CompressionNone CompressionType = 0

// DataHeader is the SHAREDATAHEADER, nested inside a Data-typed
// ControlHeader's payload.
type DataHeader struct {
	ShareID            uint32
	StreamID           uint8
	UncompressedLength uint16
	Type               DataType
	CompressedType     CompressionType
	CompressedLength   uint16
}

const dataHeaderName = "ShareDataHeader"
const dataHeaderSize = 12

func (h DataHeader) Name() string { return dataHeaderName }
func (h DataHeader) Size() int    { return dataHeaderSize }

func (h DataHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(dataHeaderName, dst, dataHeaderSize); err != nil {
		return err
	}
	dst.WriteU32LE(h.ShareID)
	dst.WriteU8(0)
	dst.WriteU8(h.StreamID)
	dst.WriteU16LE(h.UncompressedLength)
	dst.WriteU8(uint8(h.Type))
	dst.WriteU8(uint8(h.CompressedType))
	dst.WriteU16LE(h.CompressedLength)
	return nil
}

func DecodeDataHeader(src *cursor.Reader) (DataHeader, error) {
	if err := pdu.EnsureFixedPartSize(dataHeaderName, src, dataHeaderSize); err != nil {
		return DataHeader{}, err
	}
	shareID := src.ReadU32LE()
	src.ReadU8() // pad1
	streamID := src.ReadU8()
	uncompressedLength := src.ReadU16LE()
	pduType2 := src.ReadU8()
	compressedType := src.ReadU8()
	compressedLength := src.ReadU16LE()
	return DataHeader{
		ShareID:            shareID,
		StreamID:           streamID,
		UncompressedLength: uncompressedLength,
		Type:               DataType(pduType2),
		CompressedType:     CompressionType(compressedType),
		CompressedLength:   compressedLength,
	}, nil
}

// DemandActive is the server's capability offer, sent once per connection
// as the first PDU of capabilities exchange (MS-RDPBCGR 2.2.1.13.1).
type DemandActive struct {
	ShareID          uint32
	SourceDescriptor string
	Capabilities     caps.List
	SessionID        uint32
}

const demandActiveName = "DemandActivePDU"

func (d *DemandActive) Name() string { return demandActiveName }

func (d *DemandActive) Size() int {
	return 4 + 2 + 2 + len(d.SourceDescriptor) + 2 + 2 + d.Capabilities.Size() + 4
}

func (d *DemandActive) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(demandActiveName, dst, d.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(d.ShareID)
	dst.WriteU16LE(uint16(len(d.SourceDescriptor)))
	dst.WriteU16LE(uint16(2 + 2 + d.Capabilities.Size()))
	dst.WriteSlice([]byte(d.SourceDescriptor))
	dst.WriteU16LE(uint16(len(d.Capabilities)))
	dst.WriteU16LE(0) // pad2Octets
	if err := d.Capabilities.Encode(dst); err != nil {
		return err
	}
	dst.WriteU32LE(d.SessionID)
	return nil
}

func DecodeDemandActive(src *cursor.Reader) (*DemandActive, error) {
	if err := pdu.EnsureFixedPartSize(demandActiveName, src, 8); err != nil {
		return nil, err
	}
	shareID := src.ReadU32LE()
	lenSourceDescriptor := int(src.ReadU16LE())
	_ = src.ReadU16LE() // lengthCombinedCapabilities, recomputed on encode
	descBytes, err := src.TryReadSlice(lenSourceDescriptor)
	if err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(demandActiveName, src, 4); err != nil {
		return nil, err
	}
	numCaps := int(src.ReadU16LE())
	src.ReadU16LE() // pad2Octets
	capList, err := caps.DecodeList(src, numCaps)
	if err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(demandActiveName, src, 4); err != nil {
		return nil, err
	}
	sessionID := src.ReadU32LE()
	return &DemandActive{
		ShareID:          shareID,
		SourceDescriptor: string(descBytes),
		Capabilities:     capList,
		SessionID:        sessionID,
	}, nil
}

// ConfirmActive is the client's reply to DemandActive, carrying the
// client's own capability sets (MS-RDPBCGR 2.2.1.13.2).
type ConfirmActive struct {
	ShareID          uint32
	OriginatorID     uint16
	SourceDescriptor string
	Capabilities     caps.List
}

const confirmActiveName = "ConfirmActivePDU"

func (c *ConfirmActive) Name() string { return confirmActiveName }

func (c *ConfirmActive) Size() int {
	return 4 + 2 + 2 + 2 + len(c.SourceDescriptor) + 2 + 2 + c.Capabilities.Size()
}

func (c *ConfirmActive) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(confirmActiveName, dst, c.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(c.ShareID)
	dst.WriteU16LE(c.OriginatorID)
	dst.WriteU16LE(uint16(len(c.SourceDescriptor)))
	dst.WriteU16LE(uint16(2 + 2 + c.Capabilities.Size()))
	dst.WriteSlice([]byte(c.SourceDescriptor))
	dst.WriteU16LE(uint16(len(c.Capabilities)))
	dst.WriteU16LE(0) // pad2Octets
	return c.Capabilities.Encode(dst)
}

func DecodeConfirmActive(src *cursor.Reader) (*ConfirmActive, error) {
	if err := pdu.EnsureFixedPartSize(confirmActiveName, src, 10); err != nil {
		return nil, err
	}
	shareID := src.ReadU32LE()
	originatorID := src.ReadU16LE()
	lenSourceDescriptor := int(src.ReadU16LE())
	src.ReadU16LE() // lengthCombinedCapabilities
	descBytes, err := src.TryReadSlice(lenSourceDescriptor)
	if err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(confirmActiveName, src, 4); err != nil {
		return nil, err
	}
	numCaps := int(src.ReadU16LE())
	src.ReadU16LE()
	capList, err := caps.DecodeList(src, numCaps)
	if err != nil {
		return nil, err
	}
	return &ConfirmActive{
		ShareID:          shareID,
		OriginatorID:     originatorID,
		SourceDescriptor: string(descBytes),
		Capabilities:     capList,
	}, nil
}

// Synchronize is the finalization sequence's first data PDU (MS-RDPBCGR
// 2.2.1.14).
type Synchronize struct {
	TargetUser uint16
}

const synchronizeName = "SynchronizeDataPDU"

func (s *Synchronize) Name() string { return synchronizeName }
func (s *Synchronize) Size() int    { return 4 }
func (s *Synchronize) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(synchronizeName, dst, 4); err != nil {
		return err
	}
	dst.WriteU16LE(1) // messageType: SYNCMSGTYPE_SYNC
	dst.WriteU16LE(s.TargetUser)
	return nil
}

func DecodeSynchronize(src *cursor.Reader) (*Synchronize, error) {
	if err := pdu.EnsureFixedPartSize(synchronizeName, src, 4); err != nil {
		return nil, err
	}
	src.ReadU16LE() // messageType
	return &Synchronize{TargetUser: src.ReadU16LE()}, nil
}

// ControlAction values for the Control PDU (MS-RDPBCGR 2.2.1.15.1).
type ControlAction uint16

const (
	ActionRequestControl ControlAction = 1
	ActionGrantedControl ControlAction = 2
	ActionDetach         ControlAction = 3
	ActionCooperate      ControlAction = 4
)

// Control carries the Cooperate / Request-Control / Granted-Control
// actions of finalization (MS-RDPBCGR 2.2.1.15-17).
type Control struct {
	Action    ControlAction
	GrantID   uint16
	ControlID uint32
}

const controlName = "ControlDataPDU"

func (c *Control) Name() string { return controlName }
func (c *Control) Size() int    { return 8 }
func (c *Control) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(controlName, dst, 8); err != nil {
		return err
	}
	dst.WriteU16LE(uint16(c.Action))
	dst.WriteU16LE(c.GrantID)
	dst.WriteU32LE(c.ControlID)
	return nil
}

func DecodeControl(src *cursor.Reader) (*Control, error) {
	if err := pdu.EnsureFixedPartSize(controlName, src, 8); err != nil {
		return nil, err
	}
	action := ControlAction(src.ReadU16LE())
	grantID := src.ReadU16LE()
	controlID := src.ReadU32LE()
	return &Control{Action: action, GrantID: grantID, ControlID: controlID}, nil
}

// FontList is the client's finalization Font List PDU (MS-RDPBCGR
// 2.2.1.18): the field values are fixed by convention, the server never
// inspects them.
type FontList struct{}

const fontListName = "FontListDataPDU"

func (f *FontList) Name() string { return fontListName }
func (f *FontList) Size() int    { return 8 }
func (f *FontList) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(fontListName, dst, 8); err != nil {
		return err
	}
	dst.WriteU16LE(0)      // numberFonts
	dst.WriteU16LE(0)      // totalNumFonts
	dst.WriteU16LE(0x0003) // listFlags: FONTLIST_FIRST | FONTLIST_LAST
	dst.WriteU16LE(0x0032) // entrySize
	return nil
}

func DecodeFontList(src *cursor.Reader) (*FontList, error) {
	if err := pdu.EnsureFixedPartSize(fontListName, src, 8); err != nil {
		return nil, err
	}
	src.ReadU16LE()
	src.ReadU16LE()
	src.ReadU16LE()
	src.ReadU16LE()
	return &FontList{}, nil
}

// FontMap is the server's finalization reply (MS-RDPBCGR 2.2.1.19).
type FontMap struct{}

const fontMapName = "FontMapDataPDU"

func (f *FontMap) Name() string { return fontMapName }
func (f *FontMap) Size() int    { return 8 }
func (f *FontMap) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(fontMapName, dst, 8); err != nil {
		return err
	}
	dst.WriteU16LE(0)
	dst.WriteU16LE(0)
	dst.WriteU16LE(0x0003)
	dst.WriteU16LE(0x0004)
	return nil
}

func DecodeFontMap(src *cursor.Reader) (*FontMap, error) {
	if err := pdu.EnsureFixedPartSize(fontMapName, src, 8); err != nil {
		return nil, err
	}
	src.ReadU16LE()
	src.ReadU16LE()
	src.ReadU16LE()
	src.ReadU16LE()
	return &FontMap{}, nil
}

// MonitorLayout is the server's Monitor Layout data PDU (MS-RDPBCGR
// 2.2.12.1), sent only when the client advertised
// SUPPORT_MONITOR_LAYOUT_PDU in its early capability flags. It reuses the
// client's own CS_MONITOR entry shape since both carry the same
// TS_MONITOR_DEF structure.
type MonitorLayout struct {
	Monitors []gcc.MonitorDef
}

const monitorLayoutName = "MonitorLayoutDataPDU"

func (m *MonitorLayout) Name() string { return monitorLayoutName }
func (m *MonitorLayout) Size() int    { return 4 + 20*len(m.Monitors) }

func (m *MonitorLayout) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(monitorLayoutName, dst, m.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(uint32(len(m.Monitors)))
	for _, mon := range m.Monitors {
		dst.WriteI32LE(mon.Left)
		dst.WriteI32LE(mon.Top)
		dst.WriteI32LE(mon.Right)
		dst.WriteI32LE(mon.Bottom)
		dst.WriteU32LE(mon.Flags)
	}
	return nil
}

func DecodeMonitorLayout(src *cursor.Reader) (*MonitorLayout, error) {
	if err := pdu.EnsureFixedPartSize(monitorLayoutName, src, 4); err != nil {
		return nil, err
	}
	count := int(src.ReadU32LE())
	m := &MonitorLayout{}
	for i := 0; i < count; i++ {
		if err := pdu.EnsureFixedPartSize(monitorLayoutName, src, 20); err != nil {
			return nil, err
		}
		m.Monitors = append(m.Monitors, gcc.MonitorDef{
			Left:   src.ReadI32LE(),
			Top:    src.ReadI32LE(),
			Right:  src.ReadI32LE(),
			Bottom: src.ReadI32LE(),
			Flags:  src.ReadU32LE(),
		})
	}
	return m, nil
}
