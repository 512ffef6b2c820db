// Package input implements the slow-path Client Input Event PDU and its
// per-event payloads (MS-RDPBCGR 2.2.8.1.1.3): keyboard scancode, Unicode
// keyboard, mouse, extended (X-button) mouse, and synchronize events. These
// ride inside a Share Data PDU once a session is active and a peer has not
// (or cannot) negotiate Fast-Path.
//
// Grounded on the teacher's internal/protocol/pdu/input_events.go, which
// modelled only the Fast-Path encoding of the same five event bodies; this
// module reuses those field layouts for the event bodies themselves (the
// mouse and extended-mouse bodies are identical between slow-path and
// Fast-Path; Fast-Path keyboard, Unicode and synchronize events carry
// their flags in the one-byte event header instead) and adds the slow-path
// TS_INPUT_EVENT envelope (eventTime + messageType) the teacher never
// needed because its client only ever sent Fast-Path input.
package input

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// EventType is the messageType field of TS_INPUT_EVENT (MS-RDPBCGR
// 2.2.8.1.1.3.1.1).
type EventType uint16

const (
	EventTypeSync       EventType = 0x0000
	EventTypeScanCode   EventType = 0x0004
	EventTypeUnicode    EventType = 0x0005
	EventTypeMouse      EventType = 0x8001
	EventTypeMouseX     EventType = 0x8002
)

// Body is the contract each concrete event payload (Keyboard, Unicode,
// Mouse, MouseX, Sync) satisfies in addition to being wrapped by Event.
type Body interface {
	Type() EventType
	Size() int
	Encode(dst *cursor.Writer) error
}

// Event is one TS_INPUT_EVENT: a fixed 4-byte eventTime, a 2-byte
// messageType, and the type-specific body.
type Event struct {
	EventTime uint32
	Body      Body
}

const eventName = "InputEvent"
const eventFixedSize = 6

func (e *Event) Name() string { return eventName }
func (e *Event) Size() int    { return eventFixedSize + e.Body.Size() }

func (e *Event) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(eventName, dst, e.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(e.EventTime)
	dst.WriteU16LE(uint16(e.Body.Type()))
	return e.Body.Encode(dst)
}

// DecodeEvent decodes a single TS_INPUT_EVENT, dispatching to the body
// matching its messageType. Unknown message types are an InvalidField
// error: the slow-path input catalogue is closed (spec.md §4.2's
// "Enumeration policy").
func DecodeEvent(src *cursor.Reader) (*Event, error) {
	if err := pdu.EnsureFixedPartSize(eventName, src, eventFixedSize); err != nil {
		return nil, err
	}
	eventTime := src.ReadU32LE()
	msgType := EventType(src.ReadU16LE())

	var body Body
	var err error
	switch msgType {
	case EventTypeSync:
		body, err = decodeSync(src)
	case EventTypeScanCode:
		body, err = decodeKeyboard(src)
	case EventTypeUnicode:
		body, err = decodeUnicode(src)
	case EventTypeMouse:
		body, err = decodeMouse(src)
	case EventTypeMouseX:
		body, err = decodeMouseX(src)
	default:
		return nil, &pdu.InvalidFieldError{PDU: eventName, Field: "messageType", Reason: "unknown input event type"}
	}
	if err != nil {
		return nil, err
	}
	return &Event{EventTime: eventTime, Body: body}, nil
}

// ClientInputEventPDU is the Share-Data-wrapped TS_INPUT_PDU_DATA
// (MS-RDPBCGR 2.2.8.1.1.3) carrying one or more events in order.
type ClientInputEventPDU struct {
	Events []*Event
}

const clientInputEventPDUName = "ClientInputEventPDU"

func (p *ClientInputEventPDU) Name() string { return clientInputEventPDUName }

func (p *ClientInputEventPDU) Size() int {
	n := 4 // numEvents(2) + pad2Octets(2)
	for _, e := range p.Events {
		n += e.Size()
	}
	return n
}

func (p *ClientInputEventPDU) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(clientInputEventPDUName, dst, p.Size()); err != nil {
		return err
	}
	dst.WriteU16LE(uint16(len(p.Events)))
	dst.WriteU16LE(0) // pad2Octets
	for _, e := range p.Events {
		if err := e.Encode(dst); err != nil {
			return err
		}
	}
	return nil
}

func DecodeClientInputEventPDU(src *cursor.Reader) (*ClientInputEventPDU, error) {
	if err := pdu.EnsureFixedPartSize(clientInputEventPDUName, src, 4); err != nil {
		return nil, err
	}
	numEvents := int(src.ReadU16LE())
	src.ReadU16LE() // pad2Octets
	out := &ClientInputEventPDU{}
	for i := 0; i < numEvents; i++ {
		ev, err := DecodeEvent(src)
		if err != nil {
			return nil, err
		}
		out.Events = append(out.Events, ev)
	}
	return out, nil
}

// Keyboard flags (MS-RDPBCGR 2.2.8.1.1.3.1.1.1 keyboardFlags).
const (
	KeyboardFlagRelease  uint16 = 0x8000
	KeyboardFlagExtended uint16 = 0x0100
)

// Keyboard is TS_KEYBOARD_EVENT.
type Keyboard struct {
	Flags      uint16
	KeyCode    uint16
}

func (k *Keyboard) Type() EventType { return EventTypeScanCode }
func (k *Keyboard) Size() int       { return 4 }
func (k *Keyboard) Encode(dst *cursor.Writer) error {
	dst.WriteU16LE(k.Flags)
	dst.WriteU16LE(k.KeyCode)
	return nil
}
func decodeKeyboard(src *cursor.Reader) (*Keyboard, error) {
	if err := pdu.EnsureFixedPartSize(eventName, src, 4); err != nil {
		return nil, err
	}
	return &Keyboard{Flags: src.ReadU16LE(), KeyCode: src.ReadU16LE()}, nil
}

// Unicode is TS_UNICODE_KEYBOARD_EVENT.
type Unicode struct {
	Flags       uint16
	UnicodeCode uint16
}

func (u *Unicode) Type() EventType { return EventTypeUnicode }
func (u *Unicode) Size() int       { return 4 }
func (u *Unicode) Encode(dst *cursor.Writer) error {
	dst.WriteU16LE(u.Flags)
	dst.WriteU16LE(u.UnicodeCode)
	return nil
}
func decodeUnicode(src *cursor.Reader) (*Unicode, error) {
	if err := pdu.EnsureFixedPartSize(eventName, src, 4); err != nil {
		return nil, err
	}
	return &Unicode{Flags: src.ReadU16LE(), UnicodeCode: src.ReadU16LE()}, nil
}

// Mouse pointer flags (MS-RDPBCGR 2.2.8.1.1.3.1.1.3).
const (
	MousePTRFlagsHWheel        uint16 = 0x0400
	MousePTRFlagsWheel         uint16 = 0x0200
	MousePTRFlagsWheelNegative uint16 = 0x0100
	MousePTRFlagsMove          uint16 = 0x0800
	MousePTRFlagsDown          uint16 = 0x8000
	MousePTRFlagsButton1       uint16 = 0x1000
	MousePTRFlagsButton2       uint16 = 0x2000
	MousePTRFlagsButton3       uint16 = 0x4000
)

// Mouse is TS_POINTER_EVENT.
type Mouse struct {
	Flags uint16
	X, Y  uint16
}

func (m *Mouse) Type() EventType { return EventTypeMouse }
func (m *Mouse) Size() int       { return 6 }
func (m *Mouse) Encode(dst *cursor.Writer) error {
	dst.WriteU16LE(m.Flags)
	dst.WriteU16LE(m.X)
	dst.WriteU16LE(m.Y)
	return nil
}
func decodeMouse(src *cursor.Reader) (*Mouse, error) {
	if err := pdu.EnsureFixedPartSize(eventName, src, 6); err != nil {
		return nil, err
	}
	return &Mouse{Flags: src.ReadU16LE(), X: src.ReadU16LE(), Y: src.ReadU16LE()}, nil
}

// Extended (X-button) mouse pointer flags (MS-RDPBCGR 2.2.8.1.1.3.1.1.4).
const (
	MouseXPTRFlagsDown    uint16 = 0x8000
	MouseXPTRFlagsButton1 uint16 = 0x0001
	MouseXPTRFlagsButton2 uint16 = 0x0002
)

// MouseX is TS_POINTERX_EVENT.
type MouseX struct {
	Flags uint16
	X, Y  uint16
}

func (m *MouseX) Type() EventType { return EventTypeMouseX }
func (m *MouseX) Size() int       { return 6 }
func (m *MouseX) Encode(dst *cursor.Writer) error {
	dst.WriteU16LE(m.Flags)
	dst.WriteU16LE(m.X)
	dst.WriteU16LE(m.Y)
	return nil
}
func decodeMouseX(src *cursor.Reader) (*MouseX, error) {
	if err := pdu.EnsureFixedPartSize(eventName, src, 6); err != nil {
		return nil, err
	}
	return &MouseX{Flags: src.ReadU16LE(), X: src.ReadU16LE(), Y: src.ReadU16LE()}, nil
}

// Lock-key flags for Sync (MS-RDPBCGR 2.2.8.1.1.3.1.1.5 toggleFlags).
const (
	SyncScrollLock uint32 = 0x01
	SyncNumLock    uint32 = 0x02
	SyncCapsLock   uint32 = 0x04
	SyncKanaLock   uint32 = 0x08
)

// Sync is TS_SYNC_EVENT.
type Sync struct {
	ToggleFlags uint32
}

func (s *Sync) Type() EventType { return EventTypeSync }
func (s *Sync) Size() int       { return 4 }
func (s *Sync) Encode(dst *cursor.Writer) error {
	dst.WriteU32LE(s.ToggleFlags)
	return nil
}
func decodeSync(src *cursor.Reader) (*Sync, error) {
	if err := pdu.EnsureFixedPartSize(eventName, src, 4); err != nil {
		return nil, err
	}
	return &Sync{ToggleFlags: src.ReadU32LE()}, nil
}
