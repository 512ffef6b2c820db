// Package surface implements the Surface Commands catalogue carried inside
// a Fast-Path Update whose updateCode is UpdateCodeSurfaceCmds
// (MS-RDPBCGR 2.2.9.1.2.1.10, MS-RDPEGDI 2.2.2.2): Set Surface Bits /
// Stream Surface Bits (a codec-compressed bitmap blit) and Frame Marker
// (brackets a batch of surface updates for client-side double buffering).
//
// Grounded on the teacher's internal/protocol/fastpath/surface_commands.go,
// which only parsed these from an io.Reader-backed byte slice; this module
// reshapes the same field layout onto the pdu.Codec contract and adds the
// encode side the teacher (a client that never originates graphics) never
// needed.
package surface

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// CmdType is the cmdType field prefixing every surface command.
type CmdType uint16

const (
	CmdTypeSetSurfaceBits    CmdType = 0x0001
	CmdTypeFrameMarker       CmdType = 0x0004
	CmdTypeStreamSurfaceBits CmdType = 0x0006
)

// FrameAction is the frameAction field of a Frame Marker command.
type FrameAction uint16

const (
	FrameActionStart FrameAction = 0x0000
	FrameActionEnd   FrameAction = 0x0001
)

// ExtendedBitmapDataFlags (MS-RDPBCGR 2.2.9.1.2.1.10.1 extendedBitmapData
// flags): bit 0x01 marks a codec-compressed (vs raw) payload.
const ExtendedFlagCompressed uint8 = 0x01

// SetSurfaceBits is TS_SURFCMD_SET_SURF_BITS / TS_SURFCMD_STREAM_SURF_BITS
// (the two share an identical body; only the cmdType differs, and this
// module keeps that distinction in Streamed rather than a second type).
type SetSurfaceBits struct {
	Streamed                      bool
	DestLeft, DestTop             uint16
	DestRight, DestBottom         uint16
	BPP                           uint8
	Flags                         uint8
	CodecID                       uint8
	Width, Height                 uint16
	BitmapData                    []byte
}

const setSurfaceBitsName = "SetSurfaceBitsCommand"
const setSurfaceBitsFixedSize = 2 + 8 + 4 + 4 + 4 // cmdType + rect + bpp/flags/reserved/codecID + w/h + bitmapDataLength

func (s *SetSurfaceBits) Name() string { return setSurfaceBitsName }
func (s *SetSurfaceBits) Size() int    { return setSurfaceBitsFixedSize + len(s.BitmapData) }

func (s *SetSurfaceBits) cmdType() CmdType {
	if s.Streamed {
		return CmdTypeStreamSurfaceBits
	}
	return CmdTypeSetSurfaceBits
}

func (s *SetSurfaceBits) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(setSurfaceBitsName, dst, s.Size()); err != nil {
		return err
	}
	dst.WriteU16LE(uint16(s.cmdType()))
	dst.WriteU16LE(s.DestLeft)
	dst.WriteU16LE(s.DestTop)
	dst.WriteU16LE(s.DestRight)
	dst.WriteU16LE(s.DestBottom)
	dst.WriteU8(s.BPP)
	dst.WriteU8(s.Flags)
	dst.WriteU8(0) // reserved
	dst.WriteU8(s.CodecID)
	dst.WriteU16LE(s.Width)
	dst.WriteU16LE(s.Height)
	dst.WriteU32LE(uint32(len(s.BitmapData)))
	dst.WriteSlice(s.BitmapData)
	return nil
}

// DecodeSetSurfaceBits decodes the body only; the caller has already peeled
// off the 2-byte cmdType to decide which decoder to invoke and passes
// whether it was the streamed variant.
func DecodeSetSurfaceBits(src *cursor.Reader, streamed bool) (*SetSurfaceBits, error) {
	const bodyFixed = 8 + 4 + 4 + 4
	if err := pdu.EnsureFixedPartSize(setSurfaceBitsName, src, bodyFixed); err != nil {
		return nil, err
	}
	s := &SetSurfaceBits{Streamed: streamed}
	s.DestLeft = src.ReadU16LE()
	s.DestTop = src.ReadU16LE()
	s.DestRight = src.ReadU16LE()
	s.DestBottom = src.ReadU16LE()
	s.BPP = src.ReadU8()
	s.Flags = src.ReadU8()
	src.ReadU8() // reserved
	s.CodecID = src.ReadU8()
	s.Width = src.ReadU16LE()
	s.Height = src.ReadU16LE()
	n := int(src.ReadU32LE())
	data, err := src.TryReadSlice(n)
	if err != nil {
		return nil, err
	}
	s.BitmapData = data
	return s, nil
}

// FrameMarker is TS_FRAME_MARKER (MS-RDPBCGR 2.2.9.1.2.1.11).
type FrameMarker struct {
	Action  FrameAction
	FrameID uint32
}

const frameMarkerName = "FrameMarkerCommand"
const frameMarkerSize = 2 + 2 + 4

func (f *FrameMarker) Name() string { return frameMarkerName }
func (f *FrameMarker) Size() int    { return frameMarkerSize }
func (f *FrameMarker) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(frameMarkerName, dst, frameMarkerSize); err != nil {
		return err
	}
	dst.WriteU16LE(uint16(CmdTypeFrameMarker))
	dst.WriteU16LE(uint16(f.Action))
	dst.WriteU32LE(f.FrameID)
	return nil
}

func DecodeFrameMarker(src *cursor.Reader) (*FrameMarker, error) {
	if err := pdu.EnsureFixedPartSize(frameMarkerName, src, 6); err != nil {
		return nil, err
	}
	return &FrameMarker{Action: FrameAction(src.ReadU16LE()), FrameID: src.ReadU32LE()}, nil
}

// Command is any decoded surface command; Cmd is one of *SetSurfaceBits or
// *FrameMarker.
type Command struct {
	Type CmdType
	Cmd  pdu.Codec
}

const commandsName = "SurfaceCommands"

// DecodeCommands decodes a sequence of surface commands filling the data
// section of an UpdateCodeSurfaceCmds Fast-Path update (MS-RDPBCGR
// 2.2.9.1.2.1.10): each command is self-delimited by its own length field
// or fixed body size, so the catalogue is walked until the cursor is
// exhausted.
func DecodeCommands(src *cursor.Reader) ([]Command, error) {
	var out []Command
	for !src.Eof() {
		if err := pdu.EnsureFixedPartSize(commandsName, src, 2); err != nil {
			return nil, err
		}
		cmdType := CmdType(src.PeekU16LE())
		switch cmdType {
		case CmdTypeSetSurfaceBits, CmdTypeStreamSurfaceBits:
			src.Advance(2)
			c, err := DecodeSetSurfaceBits(src, cmdType == CmdTypeStreamSurfaceBits)
			if err != nil {
				return nil, err
			}
			out = append(out, Command{Type: cmdType, Cmd: c})
		case CmdTypeFrameMarker:
			src.Advance(2)
			c, err := DecodeFrameMarker(src)
			if err != nil {
				return nil, err
			}
			out = append(out, Command{Type: cmdType, Cmd: c})
		default:
			return nil, &pdu.InvalidFieldError{PDU: commandsName, Field: "cmdType", Reason: "unknown surface command type"}
		}
	}
	return out, nil
}
