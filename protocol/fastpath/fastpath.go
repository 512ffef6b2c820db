// Package fastpath implements the Fast-Path input and output PDU framing
// (MS-RDPBCGR 2.2.9.1.2, 2.2.9.1.1): the compact alternative to Share
// Control/Data + MCS Send-Data framing used once a session is active, for
// both client-to-server input batches and server-to-client update streams.
//
// Grounded on the teacher's internal/protocol/fastpath package (header
// field layout, numEvents/length packing, surface command dispatch in
// surface_commands.go) which only ever framed output for client-side
// parsing; this module adds the symmetric input-side encode (the client
// driving a real connector/session loop needs to originate Fast-Path input,
// which the teacher's read-only client never did).
package fastpath

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// InputHeader is the 2-byte (or 3-byte, if the length overflows 7 bits)
// action+numEvents+length header prefixing a Fast-Path Input Event PDU. action is always 0 (FASTPATH_INPUT_ACTION_FASTPATH) for this
// catalogue; the X.224/slow-path action value is never emitted by a
// session once Fast-Path negotiation succeeds.
type InputHeader struct {
	NumEvents uint8
	Flags     uint8 // FASTPATH_INPUT_ENCRYPTED | FASTPATH_INPUT_SECURE_CHECKSUM
	Length    uint16
}

const (
	InputFlagEncrypted      uint8 = 0x02
	InputFlagSecureChecksum uint8 = 0x01
)

const inputHeaderName = "FastPathInputHeader"

func (h InputHeader) Name() string { return inputHeaderName }

// Size returns the header's own encoded size: 2 bytes if Length fits in a
// single extra length byte, 3 if it needs the two-byte form.
func (h InputHeader) Size() int {
	if h.Length <= 0x7F {
		return 2
	}
	return 3
}

func (h InputHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(inputHeaderName, dst, h.Size()); err != nil {
		return err
	}
	action := uint8(0) // FASTPATH_INPUT_ACTION_FASTPATH
	top := action | (h.NumEvents << 2) | (h.Flags << 6)
	dst.WriteU8(top)
	if h.Length <= 0x7F {
		dst.WriteU8(uint8(h.Length))
	} else {
		dst.WriteU8(uint8(h.Length>>8) | 0x80)
		dst.WriteU8(uint8(h.Length))
	}
	return nil
}

// DecodeInputHeader decodes the header, consuming 2 or 3 bytes (1 or 2
// length-field bytes on top of the first byte).
func DecodeInputHeader(src *cursor.Reader) (InputHeader, error) {
	if err := pdu.EnsureFixedPartSize(inputHeaderName, src, 2); err != nil {
		return InputHeader{}, err
	}
	top := src.ReadU8()
	h := InputHeader{
		NumEvents: (top >> 2) & 0x0F,
		Flags:     (top >> 6) & 0x03,
	}
	first := src.ReadU8()
	if first&0x80 == 0 {
		h.Length = uint16(first)
		return h, nil
	}
	if err := pdu.EnsureFixedPartSize(inputHeaderName, src, 1); err != nil {
		return InputHeader{}, err
	}
	second := src.ReadU8()
	h.Length = (uint16(first&0x7F) << 8) | uint16(second)
	return h, nil
}

// InputEventPDU wraps one or more already-encoded Fast-Path input events
// (see protocol/input for the per-event EventFlags/EventCode/body shape
// that this module packs differently than the slow-path TS_INPUT_EVENT
// envelope does) behind the InputHeader.
type InputEventPDU struct {
	Flags uint8
	Data  []byte // concatenation of already-serialized Fast-Path input events
	numEvents uint8
}

const inputEventPDUName = "FastPathInputEventPDU"

func NewInputEventPDU(numEvents uint8, flags uint8, data []byte) *InputEventPDU {
	return &InputEventPDU{Flags: flags, Data: data, numEvents: numEvents}
}

func (p *InputEventPDU) Name() string { return inputEventPDUName }

func (p *InputEventPDU) Size() int {
	h := InputHeader{NumEvents: p.numEvents, Flags: p.Flags, Length: uint16(len(p.Data))}
	total := len(p.Data)
	// Length must include the header's own size; try both header widths
	// and settle on the fixed point (mirrors the teacher's approach of
	// picking the two-byte form whenever the one-byte form's declared
	// length would itself need to grow to cover it).
	h.Length = uint16(h.Size() + total)
	if h.Length > 0x7F && h.Size() == 2 {
		h.Length = uint16(3 + total)
	}
	return int(h.Size()) + total
}

func (p *InputEventPDU) Encode(dst *cursor.Writer) error {
	total := p.Size()
	if err := pdu.EnsureSize(inputEventPDUName, dst, total); err != nil {
		return err
	}
	h := InputHeader{NumEvents: p.numEvents, Flags: p.Flags, Length: uint16(total)}
	if err := h.Encode(dst); err != nil {
		return err
	}
	dst.WriteSlice(p.Data)
	return nil
}

// DecodeInputEventPDU decodes the header and returns the raw event-data
// tail; the caller (session) re-decodes individual events from it using
// protocol/input's Fast-Path-compatible event bodies.
func DecodeInputEventPDU(src *cursor.Reader) (*InputEventPDU, []byte, error) {
	h, err := DecodeInputHeader(src)
	if err != nil {
		return nil, nil, err
	}
	headerSize := h.Size()
	remaining := int(h.Length) - headerSize
	if remaining < 0 {
		return nil, nil, &pdu.CrossFieldMismatchError{PDU: inputEventPDUName, Fields: []string{"length"}, Reason: "declared length shorter than header"}
	}
	data, err := src.TryReadSlice(remaining)
	if err != nil {
		return nil, nil, err
	}
	return &InputEventPDU{Flags: h.Flags, Data: data, numEvents: h.NumEvents}, data, nil
}

// OutputHeader is the fpOutputHeader + length prefix of a Fast-Path Update
// PDU (MS-RDPBCGR 2.2.9.1.2): server-to-client framing, sharing the input
// header's action/length packing but leaving the numEvents nibble
// reserved (always zero) since update batching is expressed by the
// Updates slice, not this header.
type OutputHeader struct {
	Flags  uint8 // FASTPATH_OUTPUT_ENCRYPTED | FASTPATH_OUTPUT_SECURE_CHECKSUM
	Length uint16
}

const (
	OutputFlagEncrypted      uint8 = 0x02
	OutputFlagSecureChecksum uint8 = 0x01
)

const outputHeaderName = "FastPathOutputHeader"

func (h OutputHeader) Name() string { return outputHeaderName }

func (h OutputHeader) Size() int {
	if h.Length <= 0x7F {
		return 2
	}
	return 3
}

func (h OutputHeader) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(outputHeaderName, dst, h.Size()); err != nil {
		return err
	}
	action := uint8(0) // FASTPATH_OUTPUT_ACTION_FASTPATH
	dst.WriteU8(action | (h.Flags << 6))
	if h.Length <= 0x7F {
		dst.WriteU8(uint8(h.Length))
	} else {
		dst.WriteU8(uint8(h.Length>>8) | 0x80)
		dst.WriteU8(uint8(h.Length))
	}
	return nil
}

func DecodeOutputHeader(src *cursor.Reader) (OutputHeader, error) {
	if err := pdu.EnsureFixedPartSize(outputHeaderName, src, 2); err != nil {
		return OutputHeader{}, err
	}
	top := src.ReadU8()
	h := OutputHeader{Flags: (top >> 6) & 0x03}
	first := src.ReadU8()
	if first&0x80 == 0 {
		h.Length = uint16(first)
		return h, nil
	}
	if err := pdu.EnsureFixedPartSize(outputHeaderName, src, 1); err != nil {
		return OutputHeader{}, err
	}
	second := src.ReadU8()
	h.Length = (uint16(first&0x7F) << 8) | uint16(second)
	return h, nil
}

// FindSize is a framed.Hint implementation for Fast-Path Update PDUs: it
// peeks the header and returns the declared total frame length (Length
// already counts the header's own bytes, matching InputHeader's
// convention).
func FindSize(buf []byte) (int, error) {
	if len(buf) < 2 || (buf[1]&0x80 != 0 && len(buf) < 3) {
		return 0, nil
	}
	src := cursor.NewReader(buf)
	h, err := DecodeOutputHeader(src)
	if err != nil {
		return 0, err
	}
	return int(h.Length), nil
}

// UpdateCode is the 4-bit updateCode field of a Fast-Path Update's header
// byte (MS-RDPBCGR 2.2.9.1.2.1).
type UpdateCode uint8

const (
	UpdateCodeOrders       UpdateCode = 0x0
	UpdateCodeBitmap       UpdateCode = 0x1
	UpdateCodePalette      UpdateCode = 0x2
	UpdateCodeSynchronize  UpdateCode = 0x3
	UpdateCodeSurfaceCmds  UpdateCode = 0x4
	UpdateCodePtrNull      UpdateCode = 0x5
	UpdateCodePtrDefault   UpdateCode = 0x6
	UpdateCodePtrPosition  UpdateCode = 0x8
	UpdateCodeColor        UpdateCode = 0x9
	UpdateCodeCached       UpdateCode = 0xA
	UpdateCodePointer      UpdateCode = 0xB
)

// Fragmentation values (MS-RDPBCGR 2.2.9.1.2.1, fragmentation field).
type Fragmentation uint8

const (
	FragmentSingle Fragmentation = 0x0
	FragmentLast   Fragmentation = 0x1
	FragmentFirst  Fragmentation = 0x2
	FragmentNext   Fragmentation = 0x3
)

// Update is one TS_FP_UPDATE: header byte (updateCode|fragmentation|
// compression) + optional compressionFlags byte + 2-byte size + payload.
type Update struct {
	Code          UpdateCode
	Fragmentation Fragmentation
	Compressed    bool
	Payload       []byte
}

const updateName = "FastPathUpdate"

func (u *Update) Name() string { return updateName }

func (u *Update) Size() int {
	n := 1 + 2 + len(u.Payload)
	if u.Compressed {
		n++
	}
	return n
}

func (u *Update) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(updateName, dst, u.Size()); err != nil {
		return err
	}
	header := uint8(u.Code) | (uint8(u.Fragmentation) << 4)
	if u.Compressed {
		header |= 0x80
	}
	dst.WriteU8(header)
	if u.Compressed {
		dst.WriteU8(0x02) // compressionFlags: COMPRESSED
	}
	dst.WriteU16LE(uint16(len(u.Payload)))
	dst.WriteSlice(u.Payload)
	return nil
}

func DecodeUpdate(src *cursor.Reader) (*Update, error) {
	if err := pdu.EnsureFixedPartSize(updateName, src, 3); err != nil {
		return nil, err
	}
	header := src.ReadU8()
	u := &Update{
		Code:          UpdateCode(header & 0x0F),
		Fragmentation: Fragmentation((header >> 4) & 0x03),
		Compressed:    header&0x80 != 0,
	}
	if u.Compressed {
		if err := pdu.EnsureFixedPartSize(updateName, src, 1); err != nil {
			return nil, err
		}
		src.ReadU8() // compressionFlags, always COMPRESSED when this bit is set
	}
	if err := pdu.EnsureFixedPartSize(updateName, src, 2); err != nil {
		return nil, err
	}
	size := int(src.ReadU16LE())
	payload, err := src.TryReadSlice(size)
	if err != nil {
		return nil, err
	}
	u.Payload = payload
	return u, nil
}

// UpdatePDU wraps zero or more Updates behind the optional outer Fast-Path
// server header the transport layer has already stripped (this module
// starts at the first TS_FP_UPDATE; the preceding secFlags/length framing
// is the framed driver's PDUHint concern, not this catalogue's).
type UpdatePDU struct {
	Updates []*Update
}

func DecodeUpdatePDU(src *cursor.Reader) (*UpdatePDU, error) {
	out := &UpdatePDU{}
	for !src.Eof() {
		u, err := DecodeUpdate(src)
		if err != nil {
			return nil, err
		}
		out.Updates = append(out.Updates, u)
	}
	return out, nil
}
