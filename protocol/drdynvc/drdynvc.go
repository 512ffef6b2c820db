// Package drdynvc implements the Dynamic Virtual Channel framing
// (MS-RDPEDYC): the Capability negotiation and Create/DataFirst/Data/Close
// PDUs multiplexed over the static "drdynvc" channel, used to open and
// carry the per-feature dynamic channels (display control, input redirect,
// graphics pipeline) that ride on top of it.
//
// Grounded on the teacher's internal/protocol/drdynvc package for the
// header bit-packing (CbChID/Sp/Cmd) and the variable-width channel ID
// encoding in CreateRequestPDU/CreateResponsePDU; reshaped onto pdu.Codec
// and cursor. The teacher's package also carried an ad-hoc ZGFX
// decompressor (ZGFXDecompressor/decompressSegment et al.) bundled into
// this same file — that bitstream does not match the RFC-accurate token
// tables the top-level zgfx package implements, so it is deliberately not
// ported here; any dynamic channel in this module that carries
// ZGFX-compressed payloads decompresses them with the zgfx package
// instead.
package drdynvc

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// ChannelName is the static virtual channel name this protocol rides on.
const ChannelName = "drdynvc"

// Cmd is the 4-bit command discriminant in the header byte (MS-RDPEDYC
// 2.2).
type Cmd uint8

const (
	CmdCreate       Cmd = 0x01
	CmdDataFirst    Cmd = 0x02
	CmdData         Cmd = 0x03
	CmdClose        Cmd = 0x04
	CmdCapability   Cmd = 0x05
	CmdDataFirstCmp Cmd = 0x06
	CmdDataCmp      Cmd = 0x07
	CmdSoftSync     Cmd = 0x08
)

// Capability negotiation versions (MS-RDPEDYC 2.2.1.1).
const (
	CapsVersion1 uint16 = 0x0001
	CapsVersion2 uint16 = 0x0002
	CapsVersion3 uint16 = 0x0003
)

// Create response result codes (MS-RDPEDYC 2.2.2.2).
const (
	CreateResultOK              uint32 = 0x00000000
	CreateResultDenied          uint32 = 0x00000001
	CreateResultNoMemory        uint32 = 0x00000002
	CreateResultNoListener      uint32 = 0x00000003
	CreateResultChannelNotFound uint32 = 0x80070490
)

// header packs CbChID (channel-ID width selector)/Sp/Cmd into one byte.
func header(cbChID uint8, sp uint8, cmd Cmd) uint8 {
	return (cbChID & 0x03) | ((sp & 0x03) << 2) | (uint8(cmd)&0x0F)<<4
}

func decodeHeader(b uint8) (cbChID, sp uint8, cmd Cmd) {
	return b & 0x03, (b >> 2) & 0x03, Cmd((b >> 4) & 0x0F)
}

// channelIDWidth returns the CbChID selector (0/1/2) encoding the smallest
// field that fits id, and the byte width it selects; channelIDSizeOf maps
// a selector back to that width.
func channelIDWidth(id uint32) (cbChID uint8, size int) {
	switch {
	case id <= 0xFF:
		return 0, 1
	case id <= 0xFFFF:
		return 1, 2
	default:
		return 2, 4
	}
}

func channelIDSizeOf(cbChID uint8) int {
	switch cbChID {
	case 0:
		return 1
	case 1:
		return 2
	default:
		return 4
	}
}

func writeChannelID(dst *cursor.Writer, cbChID uint8, id uint32) {
	switch cbChID {
	case 0:
		dst.WriteU8(uint8(id))
	case 1:
		dst.WriteU16LE(uint16(id))
	default:
		dst.WriteU32LE(id)
	}
}

func readChannelID(src *cursor.Reader, cbChID uint8) uint32 {
	switch cbChID {
	case 0:
		return uint32(src.ReadU8())
	case 1:
		return uint32(src.ReadU16LE())
	default:
		return src.ReadU32LE()
	}
}

// Caps is DYNVC_CAPS (MS-RDPEDYC 2.2.1.1). Version 3 additionally carries
// per-priority byte charges; lower versions omit them entirely (not
// zero-filled) per the wire format.
type Caps struct {
	Version                                                   uint16
	PriorityCharge0, PriorityCharge1, PriorityCharge2, PriorityCharge3 uint16
}

const capsName = "DrdynvcCaps"

func (c *Caps) Name() string { return capsName }
func (c *Caps) Size() int {
	n := 2 + 2 // header+pad, version
	if c.Version >= CapsVersion3 {
		n += 4 * 2
	}
	return n
}

func (c *Caps) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(capsName, dst, c.Size()); err != nil {
		return err
	}
	dst.WriteU8(header(0, 0, CmdCapability))
	dst.WriteU8(0) // pad
	dst.WriteU16LE(c.Version)
	if c.Version >= CapsVersion3 {
		dst.WriteU16LE(c.PriorityCharge0)
		dst.WriteU16LE(c.PriorityCharge1)
		dst.WriteU16LE(c.PriorityCharge2)
		dst.WriteU16LE(c.PriorityCharge3)
	}
	return nil
}

func DecodeCaps(src *cursor.Reader) (*Caps, error) {
	if err := pdu.EnsureFixedPartSize(capsName, src, 4); err != nil {
		return nil, err
	}
	b := src.ReadU8()
	_, _, cmd := decodeHeader(b)
	if cmd != CmdCapability {
		return nil, &pdu.InvalidFieldError{PDU: capsName, Field: "cmd", Reason: "not a Caps PDU"}
	}
	src.ReadU8() // pad
	c := &Caps{Version: src.ReadU16LE()}
	if c.Version >= CapsVersion3 {
		if err := pdu.EnsureFixedPartSize(capsName, src, 8); err != nil {
			return nil, err
		}
		c.PriorityCharge0 = src.ReadU16LE()
		c.PriorityCharge1 = src.ReadU16LE()
		c.PriorityCharge2 = src.ReadU16LE()
		c.PriorityCharge3 = src.ReadU16LE()
	}
	return c, nil
}

// CreateRequest is DYNVC_CREATE_REQ (MS-RDPEDYC 2.2.2.1): opens a named
// dynamic channel over ChannelID, which this module always allocates at
// the narrowest width that fits.
type CreateRequest struct {
	ChannelID   uint32
	ChannelName string
}

const createRequestName = "DrdynvcCreateRequest"

func (c *CreateRequest) Name() string { return createRequestName }
func (c *CreateRequest) Size() int {
	_, width := channelIDWidth(c.ChannelID)
	return 1 + width + len(c.ChannelName) + 1
}

func (c *CreateRequest) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(createRequestName, dst, c.Size()); err != nil {
		return err
	}
	cbChID, _ := channelIDWidth(c.ChannelID)
	dst.WriteU8(header(cbChID, 0, CmdCreate))
	writeChannelID(dst, cbChID, c.ChannelID)
	dst.WriteSlice([]byte(c.ChannelName))
	dst.WriteU8(0)
	return nil
}

// DecodeCreateRequest decodes a Create Request. The channel name is read
// to the first NUL with no declared length, per MS-RDPEDYC 2.2.2.1.
func DecodeCreateRequest(src *cursor.Reader) (*CreateRequest, error) {
	if err := pdu.EnsureFixedPartSize(createRequestName, src, 1); err != nil {
		return nil, err
	}
	b := src.ReadU8()
	cbChID, _, cmd := decodeHeader(b)
	if cmd != CmdCreate {
		return nil, &pdu.InvalidFieldError{PDU: createRequestName, Field: "cmd", Reason: "not a Create Request PDU"}
	}
	if err := pdu.EnsureFixedPartSize(createRequestName, src, channelIDSizeOf(cbChID)); err != nil {
		return nil, err
	}
	id := readChannelID(src, cbChID)
	name, err := readNulString(createRequestName, src)
	if err != nil {
		return nil, err
	}
	return &CreateRequest{ChannelID: id, ChannelName: name}, nil
}

func readNulString(pduName string, src *cursor.Reader) (string, error) {
	start := src.Pos()
	buf := src.Inner()
	i := start
	for i < len(buf) && buf[i] != 0 {
		i++
	}
	if i >= len(buf) {
		return "", &pdu.ShortReadError{PDU: pduName, Received: len(buf) - start, Expected: len(buf) - start + 1}
	}
	s := string(buf[start:i])
	src.Advance(i - start + 1)
	return s, nil
}

// CreateResponse is DYNVC_CREATE_RSP (MS-RDPEDYC 2.2.2.2). Its header
// byte carries its own CbChID, which selects the channel-ID width.
type CreateResponse struct {
	ChannelID    uint32
	CreationCode uint32
}

const createResponseName = "DrdynvcCreateResponse"

func (c *CreateResponse) Name() string { return createResponseName }
func (c *CreateResponse) Size() int {
	_, width := channelIDWidth(c.ChannelID)
	return 1 + width + 4
}

func (c *CreateResponse) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(createResponseName, dst, c.Size()); err != nil {
		return err
	}
	cbChID, _ := channelIDWidth(c.ChannelID)
	dst.WriteU8(header(cbChID, 0, CmdCreate))
	writeChannelID(dst, cbChID, c.ChannelID)
	dst.WriteU32LE(c.CreationCode)
	return nil
}

// DecodeCreateResponse decodes a response. The channel-ID width is taken
// from the response's own header byte; the cbChID argument is not used.
func DecodeCreateResponse(src *cursor.Reader, cbChID uint8) (*CreateResponse, error) {
	if err := pdu.EnsureFixedPartSize(createResponseName, src, 1); err != nil {
		return nil, err
	}
	b := src.ReadU8()
	gotCbChID, _, cmd := decodeHeader(b)
	if cmd != CmdCreate {
		return nil, &pdu.InvalidFieldError{PDU: createResponseName, Field: "cmd", Reason: "not a Create Response PDU"}
	}
	if err := pdu.EnsureFixedPartSize(createResponseName, src, channelIDSizeOf(gotCbChID)+4); err != nil {
		return nil, err
	}
	id := readChannelID(src, gotCbChID)
	code := src.ReadU32LE()
	_ = cbChID
	return &CreateResponse{ChannelID: id, CreationCode: code}, nil
}

// IsSuccess reports whether the channel was created.
func (c *CreateResponse) IsSuccess() bool { return c.CreationCode == CreateResultOK }

// DataFirst is DYNVC_DATA_FIRST (MS-RDPEDYC 2.2.3.2): the first fragment
// of a multi-fragment message, declaring the total reassembled Length.
type DataFirst struct {
	ChannelID uint32
	Length    uint32
	Data      []byte
}

const dataFirstName = "DrdynvcDataFirst"

func (d *DataFirst) Name() string { return dataFirstName }
func (d *DataFirst) Size() int {
	_, width := channelIDWidth(d.ChannelID)
	return 1 + width + 4 + len(d.Data)
}

func (d *DataFirst) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(dataFirstName, dst, d.Size()); err != nil {
		return err
	}
	cbChID, _ := channelIDWidth(d.ChannelID)
	dst.WriteU8(header(cbChID, 0, CmdDataFirst))
	writeChannelID(dst, cbChID, d.ChannelID)
	dst.WriteU32LE(d.Length)
	dst.WriteSlice(d.Data)
	return nil
}

func DecodeDataFirst(src *cursor.Reader) (*DataFirst, error) {
	if err := pdu.EnsureFixedPartSize(dataFirstName, src, 1); err != nil {
		return nil, err
	}
	b := src.ReadU8()
	cbChID, _, cmd := decodeHeader(b)
	if cmd != CmdDataFirst {
		return nil, &pdu.InvalidFieldError{PDU: dataFirstName, Field: "cmd", Reason: "not a Data-First PDU"}
	}
	if err := pdu.EnsureFixedPartSize(dataFirstName, src, channelIDSizeOf(cbChID)+4); err != nil {
		return nil, err
	}
	id := readChannelID(src, cbChID)
	length := src.ReadU32LE()
	data := src.Remaining()
	src.Advance(len(data))
	return &DataFirst{ChannelID: id, Length: length, Data: data}, nil
}

// Data is DYNVC_DATA (MS-RDPEDYC 2.2.3.1): either a complete, unfragmented
// message, or a continuation fragment of one started by DataFirst.
type Data struct {
	ChannelID uint32
	Payload   []byte
}

const dataName = "DrdynvcData"

func (d *Data) Name() string { return dataName }
func (d *Data) Size() int {
	_, width := channelIDWidth(d.ChannelID)
	return 1 + width + len(d.Payload)
}

func (d *Data) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(dataName, dst, d.Size()); err != nil {
		return err
	}
	cbChID, _ := channelIDWidth(d.ChannelID)
	dst.WriteU8(header(cbChID, 0, CmdData))
	writeChannelID(dst, cbChID, d.ChannelID)
	dst.WriteSlice(d.Payload)
	return nil
}

func DecodeData(src *cursor.Reader) (*Data, error) {
	if err := pdu.EnsureFixedPartSize(dataName, src, 1); err != nil {
		return nil, err
	}
	b := src.ReadU8()
	cbChID, _, cmd := decodeHeader(b)
	if cmd != CmdData {
		return nil, &pdu.InvalidFieldError{PDU: dataName, Field: "cmd", Reason: "not a Data PDU"}
	}
	if err := pdu.EnsureFixedPartSize(dataName, src, channelIDSizeOf(cbChID)); err != nil {
		return nil, err
	}
	id := readChannelID(src, cbChID)
	payload := src.Remaining()
	src.Advance(len(payload))
	return &Data{ChannelID: id, Payload: payload}, nil
}

// Close is DYNVC_CLOSE (MS-RDPEDYC 2.2.4): tears down a previously
// created channel, originable by either side.
type Close struct {
	ChannelID uint32
}

const closeName = "DrdynvcClose"

func (c *Close) Name() string { return closeName }
func (c *Close) Size() int {
	_, width := channelIDWidth(c.ChannelID)
	return 1 + width
}

func (c *Close) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(closeName, dst, c.Size()); err != nil {
		return err
	}
	cbChID, _ := channelIDWidth(c.ChannelID)
	dst.WriteU8(header(cbChID, 0, CmdClose))
	writeChannelID(dst, cbChID, c.ChannelID)
	return nil
}

func DecodeClose(src *cursor.Reader) (*Close, error) {
	if err := pdu.EnsureFixedPartSize(closeName, src, 1); err != nil {
		return nil, err
	}
	b := src.ReadU8()
	cbChID, _, cmd := decodeHeader(b)
	if cmd != CmdClose {
		return nil, &pdu.InvalidFieldError{PDU: closeName, Field: "cmd", Reason: "not a Close PDU"}
	}
	if err := pdu.EnsureFixedPartSize(closeName, src, channelIDSizeOf(cbChID)); err != nil {
		return nil, err
	}
	return &Close{ChannelID: readChannelID(src, cbChID)}, nil
}

// PeekCmd inspects the header byte of a not-yet-consumed DRDYNVC PDU
// without advancing src, so a caller can dispatch to the right decoder.
func PeekCmd(src *cursor.Reader) (Cmd, error) {
	if err := pdu.EnsureFixedPartSize("DrdynvcPDU", src, 1); err != nil {
		return 0, err
	}
	_, _, cmd := decodeHeader(src.PeekU8())
	return cmd, nil
}
