// Package session drives the active stage of a connection once connector
// or acceptor reaches Accepted: reading slow-path (Share Control/Data) or
// Fast-Path frames, routing static-virtual-channel payloads through svc,
// and turning the result into the small output vocabulary a caller acts
// on (write bytes back, repaint a region, move the pointer, hang up).
//
// Grounded on the teacher's internal/rdp/get_update.go (the
// protocol-byte dispatch between X.224/slow-path and Fast-Path, and the
// channel-id based routing to rail/audio in getX224Update) and read.go;
// reshaped from an io.Reader-driven client loop returning one *Update at
// a time into a pure (frame []byte) -> []ActiveStageOutput step function
// operating over already-read frames, so it has no transport dependency
// and fits this module's sans-I/O core.
package session

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
	"github.com/rcarmo/go-rdp/protocol/fastpath"
	"github.com/rcarmo/go-rdp/protocol/input"
	"github.com/rcarmo/go-rdp/protocol/mcs"
	"github.com/rcarmo/go-rdp/protocol/share"
	"github.com/rcarmo/go-rdp/protocol/surface"
	"github.com/rcarmo/go-rdp/protocol/x224"
	"github.com/rcarmo/go-rdp/svc"
)

// Action is the framing discriminant carried in the low 2 bits of every
// active-session frame's first byte (MS-RDPBCGR 2.2.9.1, 2.2.9.1.2):
// ActionX224 frames are TPKT+X.224+MCS wrapped slow-path PDUs,
// ActionFastPath frames are the compact Fast-Path alternative.
type Action uint8

const (
	ActionFastPath Action = 0x0
	ActionX224     Action = 0x3
)

func actionOf(firstByte byte) Action { return Action(firstByte & 0x3) }

// FindSize is the unified framed.Hint for the active session: it inspects
// the first buffered byte to decide whether the frame is TPKT- or
// Fast-Path-framed, then delegates to the matching package's own sizer.
func FindSize(buf []byte) (int, error) {
	if len(buf) < 1 {
		return 0, nil
	}
	if actionOf(buf[0]) == ActionX224 {
		return x224.FindSize(buf)
	}
	return fastpath.FindSize(buf)
}

// Role distinguishes which side of the connection this Session
// represents: it determines whether a slow-path SendData PDU is a
// Request (client-originated) or an Indication (server-originated), and
// whether a Fast-Path frame is interpreted as input (received by a
// server) or a graphics/pointer update (received by a client).
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Rect is a screen-space region touched by a graphics update.
type Rect struct {
	Left, Top, Right, Bottom uint16
}

// ActiveStageOutput is the small vocabulary an active session step
// produces; exactly one concrete type per spec.md §4.8 variant
// (ResponseFrame, GraphicsUpdate, PointerDefault/Hidden/Position,
// Terminate). The interface's unexported method closes it to this
// package, mirroring the Rust enum it's grounded on: callers type-switch
// rather than add new variants.
type ActiveStageOutput interface {
	activeStageOutput()
}

// ResponseFrame is a fully framed (TPKT+X.224+MCS, or Fast-Path) byte
// sequence the caller must write back to the transport, in order.
type ResponseFrame struct{ Frame []byte }

// GraphicsUpdate reports a decoded bitmap/surface update touching Region;
// Payload carries the still-codec-compressed bytes (RFX/NSCodec/raw,
// identified by Code) for the caller's decoder of choice.
type GraphicsUpdate struct {
	Region  Rect
	Code    fastpath.UpdateCode
	Payload []byte
}

// PointerDefault restores the system default cursor.
type PointerDefault struct{}

// PointerHidden hides the cursor entirely.
type PointerHidden struct{}

// PointerPosition moves the (server-rendered) pointer to (X, Y).
type PointerPosition struct{ X, Y uint16 }

// Terminate reports that the peer ended the session (Deactivate All, a
// transport-level close the caller detected, or a protocol violation);
// Err is nil for a graceful Deactivate All.
type Terminate struct{ Err error }

func (ResponseFrame) activeStageOutput()   {}
func (GraphicsUpdate) activeStageOutput()  {}
func (PointerDefault) activeStageOutput()  {}
func (PointerHidden) activeStageOutput()   {}
func (PointerPosition) activeStageOutput() {}
func (Terminate) activeStageOutput()       {}

// InputEvent is a decoded slow-path or Fast-Path input event surfaced to
// the caller of a server-role session; the Body shape matches
// protocol/input's per-type payloads (Keyboard, Unicode, Mouse, MouseX,
// Sync).
type InputEvent struct {
	Body input.Body
}

// Session carries the state the active stage needs across Step calls:
// the channel set handed over from connector/acceptor, the negotiated
// share id and channel ids, and which side of the connection this is.
type Session struct {
	Role          Role
	Channels      *svc.Set
	ShareID       uint32
	UserChannelID uint16
	IOChannelID   uint16

	// MaxChunkLength bounds outbound static-virtual-channel fragmentation;
	// zero selects svc.MaxChunkLength.
	MaxChunkLength int

	// pendingInputs accumulates decoded input events for a server-role
	// session between Step calls, mirroring the teacher's package-level
	// pendingSlowPathUpdate staging slot but scoped to one connection
	// instead of shared global state.
	pendingInputs []InputEvent
}

// New creates a Session ready to process frames once the handshake state
// machine reaches Accepted.
func New(role Role, channels *svc.Set, shareID uint32, userChannelID, ioChannelID uint16) *Session {
	return &Session{Role: role, Channels: channels, ShareID: shareID, UserChannelID: userChannelID, IOChannelID: ioChannelID}
}

// TakePendingInputs drains and returns any input events decoded by Step
// since the last call (server role only).
func (s *Session) TakePendingInputs() []InputEvent {
	out := s.pendingInputs
	s.pendingInputs = nil
	return out
}

// Step decodes one already-framed active-session PDU and returns the
// outputs it produces. frame is the exact byte range framed.Reader.ReadPDU
// returned using FindSize as the hint.
func (s *Session) Step(frame []byte) ([]ActiveStageOutput, error) {
	if len(frame) == 0 {
		return nil, &pdu.ShortReadError{PDU: "ActiveSessionFrame", Received: 0, Expected: 1}
	}
	if actionOf(frame[0]) == ActionX224 {
		return s.stepSlowPath(frame)
	}
	return s.stepFastPath(frame)
}

func (s *Session) stepSlowPath(frame []byte) ([]ActiveStageOutput, error) {
	src := cursor.NewReader(frame)
	payload, err := x224.UnwrapData(src)
	if err != nil {
		return nil, err
	}

	mcsSrc := cursor.NewReader(payload)
	channelID, body, err := decodeSendData(s.Role, mcsSrc)
	if err != nil {
		return nil, err
	}

	if channelID != s.IOChannelID {
		return s.stepChannel(svc.ChannelID(channelID), body)
	}

	shareSrc := cursor.NewReader(body)
	ctrl, err := share.DecodeControlHeader(shareSrc)
	if err != nil {
		return nil, err
	}

	if ctrl.Type == share.ControlDeactivateAll {
		return []ActiveStageOutput{Terminate{}}, nil
	}
	if ctrl.Type != share.ControlData {
		return nil, nil
	}

	dataHeader, err := share.DecodeDataHeader(shareSrc)
	if err != nil {
		return nil, err
	}

	switch dataHeader.Type {
	case share.DataUpdate:
		return s.decodeSlowPathGraphicsUpdate(shareSrc)
	case share.DataInput:
		events, err := input.DecodeClientInputEventPDU(shareSrc)
		if err != nil {
			return nil, err
		}
		for _, e := range events.Events {
			s.pendingInputs = append(s.pendingInputs, InputEvent{Body: e.Body})
		}
		return nil, nil
	default:
		// Synchronize/Control/FontList/FontMap/MonitorLayout finalization
		// chatter that can recur post-handshake without affecting the
		// active stage's own output vocabulary.
		return nil, nil
	}
}

// decodeSlowPathGraphicsUpdate reads the updateType prefix of a Slow-Path
// Graphics Update PDU (MS-RDPBCGR 2.2.9.1.1.3) and reports the remaining
// bytes as a GraphicsUpdate; updateType shares its numeric space with
// fastpath.UpdateCode for the Orders/Bitmap/Palette/Synchronize values.
func (s *Session) decodeSlowPathGraphicsUpdate(src *cursor.Reader) ([]ActiveStageOutput, error) {
	const name = "SlowPathGraphicsUpdate"
	if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
		return nil, err
	}
	updateType := src.ReadU16LE()
	return []ActiveStageOutput{GraphicsUpdate{
		Code:    fastpath.UpdateCode(updateType),
		Payload: src.Remaining(),
	}}, nil
}

// decodeSendData decodes the role-appropriate MCS Send Data PDU (Request
// from a client, Indication from a server) and returns its channel id and
// payload.
func decodeSendData(role Role, src *cursor.Reader) (uint16, []byte, error) {
	if role == RoleServer {
		r, err := mcs.DecodeSendDataRequest(src)
		if err != nil {
			return 0, nil, err
		}
		return r.ChannelID, r.Payload, nil
	}
	r, err := mcs.DecodeSendDataIndication(src)
	if err != nil {
		return 0, nil, err
	}
	return r.ChannelID, r.Payload, nil
}

// stepChannel hands a dechunkified static-virtual-channel payload to its
// registered Processor and wraps any reply Messages back into fully
// framed ResponseFrame outputs.
func (s *Session) stepChannel(channelID svc.ChannelID, payload []byte) ([]ActiveStageOutput, error) {
	ch, ok := s.Channels.ByChannelID(channelID)
	if !ok {
		return nil, nil
	}
	messages, err := ch.Process(payload)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}

	var outputs []ActiveStageOutput
	for _, m := range messages {
		encoded, err := encodeCodec(m.PDU)
		if err != nil {
			return nil, err
		}
		chunks, err := svc.Chunkify(encoded, m.Flags, s.MaxChunkLength)
		if err != nil {
			return nil, err
		}
		for _, chunk := range chunks {
			frame, err := s.wrapOutbound(channelID, chunk)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, ResponseFrame{Frame: frame})
		}
	}
	return outputs, nil
}

// wrapOutbound wraps an already-chunkified channel payload in the
// role-appropriate MCS Send Data PDU and the X.224/TPKT frame headers.
func (s *Session) wrapOutbound(channelID svc.ChannelID, payload []byte) ([]byte, error) {
	var mcsPDU pdu.Codec
	if s.Role == RoleServer {
		mcsPDU = &mcs.SendDataIndication{InitiatorID: s.UserChannelID, ChannelID: uint16(channelID), Payload: payload}
	} else {
		mcsPDU = &mcs.SendDataRequest{InitiatorID: s.UserChannelID, ChannelID: uint16(channelID), Payload: payload}
	}
	encoded, err := encodeCodec(mcsPDU)
	if err != nil {
		return nil, err
	}
	return x224.WrapData(encoded), nil
}

func encodeCodec(c pdu.Codec) ([]byte, error) {
	buf := make([]byte, c.Size())
	w := cursor.NewWriter(buf)
	if err := c.Encode(w); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *Session) stepFastPath(frame []byte) ([]ActiveStageOutput, error) {
	src := cursor.NewReader(frame)
	if s.Role == RoleServer {
		return s.stepFastPathInput(src)
	}
	return s.stepFastPathUpdate(src)
}

// stepFastPathInput decodes a client's Fast-Path Input Event PDU
// (MS-RDPBCGR 2.2.8.1.2): each event is a 1-byte eventHeader
// (eventFlags<<3 | eventCode) followed by a per-type body: mouse and
// extended mouse use the same 6-byte body as the slow path, keyboard and
// Unicode a 2-byte code with the flags taken from the header, and
// synchronize no body at all.
func (s *Session) stepFastPathInput(src *cursor.Reader) ([]ActiveStageOutput, error) {
	hdr, err := fastpath.DecodeInputHeader(src)
	if err != nil {
		return nil, err
	}
	for i := uint8(0); i < hdr.NumEvents; i++ {
		body, err := decodeFastPathEventBody(src)
		if err != nil {
			return nil, err
		}
		s.pendingInputs = append(s.pendingInputs, InputEvent{Body: body})
	}
	return nil, nil
}

// Fast-Path input event codes (MS-RDPBCGR 2.2.8.1.2.2), grounded on the
// teacher's internal/protocol/pdu/input_events.go EventCode enum.
const (
	fpEventCodeScanCode uint8 = 0
	fpEventCodeMouse    uint8 = 1
	fpEventCodeMouseX   uint8 = 2
	fpEventCodeSync     uint8 = 3
	fpEventCodeUnicode  uint8 = 4
)

func decodeFastPathEventBody(src *cursor.Reader) (input.Body, error) {
	const name = "FastPathInputEvent"
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return nil, err
	}
	eventHeader := src.ReadU8()
	eventFlags := uint16(eventHeader>>3) & 0x1F
	eventCode := eventHeader & 0x07

	switch eventCode {
	case fpEventCodeScanCode:
		if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
			return nil, err
		}
		return &input.Keyboard{Flags: eventFlags, KeyCode: src.ReadU16LE()}, nil
	case fpEventCodeUnicode:
		if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
			return nil, err
		}
		return &input.Unicode{Flags: eventFlags, UnicodeCode: src.ReadU16LE()}, nil
	case fpEventCodeMouse:
		if err := pdu.EnsureFixedPartSize(name, src, 6); err != nil {
			return nil, err
		}
		return &input.Mouse{Flags: src.ReadU16LE(), X: src.ReadU16LE(), Y: src.ReadU16LE()}, nil
	case fpEventCodeMouseX:
		if err := pdu.EnsureFixedPartSize(name, src, 6); err != nil {
			return nil, err
		}
		return &input.MouseX{Flags: src.ReadU16LE(), X: src.ReadU16LE(), Y: src.ReadU16LE()}, nil
	case fpEventCodeSync:
		return &input.Sync{ToggleFlags: uint32(eventFlags)}, nil
	default:
		return nil, &pdu.InvalidFieldError{PDU: name, Field: "eventCode", Reason: "unknown Fast-Path input event code"}
	}
}

// stepFastPathUpdate decodes a server's Fast-Path Update PDU and turns
// each update into a GraphicsUpdate or Pointer* output.
func (s *Session) stepFastPathUpdate(src *cursor.Reader) ([]ActiveStageOutput, error) {
	if _, err := fastpath.DecodeOutputHeader(src); err != nil {
		return nil, err
	}
	updatePDU, err := fastpath.DecodeUpdatePDU(src)
	if err != nil {
		return nil, err
	}

	var outputs []ActiveStageOutput
	for _, u := range updatePDU.Updates {
		switch u.Code {
		case fastpath.UpdateCodePtrNull:
			outputs = append(outputs, PointerHidden{})
		case fastpath.UpdateCodePtrDefault:
			outputs = append(outputs, PointerDefault{})
		case fastpath.UpdateCodePtrPosition:
			pos, err := decodePointerPosition(u.Payload)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, pos)
		case fastpath.UpdateCodeSurfaceCmds:
			cmds, err := surface.DecodeCommands(cursor.NewReader(u.Payload))
			if err != nil {
				return nil, err
			}
			for _, cmd := range cmds {
				outputs = append(outputs, surfaceCommandToGraphicsUpdate(cmd))
			}
		default:
			outputs = append(outputs, GraphicsUpdate{Code: u.Code, Payload: u.Payload})
		}
	}
	return outputs, nil
}

func decodePointerPosition(payload []byte) (PointerPosition, error) {
	const name = "PointerPositionUpdate"
	src := cursor.NewReader(payload)
	if err := pdu.EnsureFixedPartSize(name, src, 4); err != nil {
		return PointerPosition{}, err
	}
	return PointerPosition{X: src.ReadU16LE(), Y: src.ReadU16LE()}, nil
}

func surfaceCommandToGraphicsUpdate(cmd surface.Command) GraphicsUpdate {
	switch c := cmd.Cmd.(type) {
	case *surface.SetSurfaceBits:
		return GraphicsUpdate{
			Region:  Rect{Left: c.DestLeft, Top: c.DestTop, Right: c.DestRight, Bottom: c.DestBottom},
			Code:    fastpath.UpdateCodeSurfaceCmds,
			Payload: c.BitmapData,
		}
	default:
		// FrameMarker brackets a batch rather than touching pixels; surface
		// with an empty region so the caller can still observe frame
		// boundaries if it wants to.
		return GraphicsUpdate{Code: fastpath.UpdateCodeSurfaceCmds}
	}
}
