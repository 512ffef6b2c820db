// Package caps implements the RDP capability set catalogue exchanged in
// the Demand Active / Confirm Active PDUs during capability negotiation
// (MS-RDPBCGR 2.2.7, 2.2.1.13).
package caps

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// SetType is the capabilitySetType field of CAPABILITY_SET (MS-RDPBCGR
// 2.2.1.13.1.1.1).
type SetType uint16

const (
	TypeGeneral               SetType = 1
	TypeBitmap                SetType = 2
	TypeOrder                 SetType = 3
	TypeBitmapCache           SetType = 4
	TypeControl               SetType = 5
	TypeActivation            SetType = 7
	TypePointer               SetType = 8
	TypeShare                 SetType = 9
	TypeColorCache            SetType = 10
	TypeSound                 SetType = 12
	TypeInput                 SetType = 13
	TypeFont                  SetType = 14
	TypeBrush                 SetType = 15
	TypeGlyphCache            SetType = 16
	TypeOffscreenBitmapCache  SetType = 17
	TypeBitmapCacheRev2       SetType = 19
	TypeVirtualChannel        SetType = 20
	TypeDrawNineGridCache     SetType = 21
	TypeDrawGDIPlus           SetType = 22
	TypeRail                  SetType = 23
	TypeWindow                SetType = 24
	TypeCompDesk              SetType = 25
	TypeMultifragmentUpdate   SetType = 26
	TypeLargePointer          SetType = 27
	TypeSurfaceCommands       SetType = 28
	TypeBitmapCodecs          SetType = 29
	TypeFrameAcknowledge      SetType = 30
)

// Set is the contract every concrete capability set satisfies in addition
// to pdu.Codec: its own SetType tag, used to build the CAPABILITY_SET
// header.
type Set interface {
	pdu.Codec
	Type() SetType
}

const headerSize = 4

func writeHeader(dst *cursor.Writer, t SetType, bodyLen int) {
	dst.WriteU16LE(uint16(t))
	dst.WriteU16LE(uint16(headerSize + bodyLen))
}

// EncodeSet writes one capability set, header included. Every concrete Set
// implementation's Encode method writes its own CAPABILITY_SET header
// followed by its body; EncodeSet exists only as a readable alias used by
// List.Encode.
func EncodeSet(dst *cursor.Writer, s Set) error {
	return s.Encode(dst)
}

// RawCapabilitySet is the passthrough representation for any capability
// set type this catalogue does not model in detail (MS-RDPBCGR defines far
// more than are load-bearing for a typical session).
type RawCapabilitySet struct {
	SetType SetType
	Body    []byte
}

func (r *RawCapabilitySet) Name() string  { return "RawCapabilitySet" }
func (r *RawCapabilitySet) Type() SetType { return r.SetType }
func (r *RawCapabilitySet) Size() int     { return headerSize + len(r.Body) }
func (r *RawCapabilitySet) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(r.Name(), dst, r.Size()); err != nil {
		return err
	}
	writeHeader(dst, r.SetType, len(r.Body))
	dst.WriteSlice(r.Body)
	return nil
}

// DecodeSet reads one CAPABILITY_SET entry (header + body) and dispatches
// to the concrete decoder for known types, falling back to RawCapabilitySet
// otherwise.
func DecodeSet(src *cursor.Reader) (Set, error) {
	const name = "CapabilitySet"
	if err := pdu.EnsureFixedPartSize(name, src, headerSize); err != nil {
		return nil, err
	}
	t := SetType(src.ReadU16LE())
	total := src.ReadU16LE()
	if total < headerSize {
		return nil, &pdu.InvalidFieldError{PDU: name, Field: "lengthCapability", Reason: "shorter than header"}
	}
	bodyLen := int(total) - headerSize
	body, err := src.TryReadSlice(bodyLen)
	if err != nil {
		return nil, err
	}
	br := cursor.NewReader(body)

	switch t {
	case TypeGeneral:
		return decodeGeneralBody(br)
	case TypeBitmap:
		return decodeBitmapBody(br)
	case TypeOrder:
		return decodeOrderBody(br)
	case TypePointer:
		return decodePointerBody(br)
	case TypeInput:
		return decodeInputBody(br)
	case TypeVirtualChannel:
		return decodeVirtualChannelBody(br)
	case TypeSound:
		return decodeSoundBody(br)
	case TypeBitmapCache:
		return decodeBitmapCacheBody(br)
	case TypeColorCache:
		return decodeColorCacheBody(br)
	case TypeGlyphCache:
		return decodeGlyphCacheBody(br)
	case TypeBrush:
		return decodeBrushBody(br)
	case TypeOffscreenBitmapCache:
		return decodeOffscreenBitmapCacheBody(br)
	case TypeControl:
		return decodeControlBody(br)
	case TypeActivation:
		return decodeActivationBody(br)
	case TypeShare:
		return decodeShareBody(br)
	case TypeFont:
		return decodeFontBody(br)
	case TypeMultifragmentUpdate:
		return decodeMultifragmentUpdateBody(br)
	case TypeLargePointer:
		return decodeLargePointerBody(br)
	case TypeSurfaceCommands:
		return decodeSurfaceCommandsBody(br)
	case TypeFrameAcknowledge:
		return decodeFrameAcknowledgeBody(br)
	case TypeBitmapCacheRev2:
		return decodeBitmapCacheV2Body(br)
	case TypeBitmapCodecs:
		return decodeBitmapCodecsBody(br)
	case TypeRail:
		return decodeRailBody(br)
	case TypeWindow:
		return decodeWindowListBody(br)
	default:
		return &RawCapabilitySet{SetType: t, Body: body}, nil
	}
}

// List is the ordered sequence of capability sets exchanged in a single
// Demand Active / Confirm Active PDU.
type List []Set

func (l List) Size() int {
	n := 0
	for _, s := range l {
		n += s.Size()
	}
	return n
}

func (l List) Encode(dst *cursor.Writer) error {
	for _, s := range l {
		if err := EncodeSet(dst, s); err != nil {
			return err
		}
	}
	return nil
}

// DecodeList reads count consecutive capability sets.
func DecodeList(src *cursor.Reader, count int) (List, error) {
	out := make(List, 0, count)
	for i := 0; i < count; i++ {
		s, err := DecodeSet(src)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
