// Package dispctl implements the Display Control Virtual Channel Extension
// (MS-RDPEDISP): the dynamic-virtual-channel PDUs a client and server
// exchange to resize or relayout the session's monitors without a
// reconnect. Unlike the legacy slow-path Monitor Layout Data PDU in
// protocol/share (sent once, server-to-client, describing the monitors
// negotiated at connect time), this channel is bidirectional and live: the
// client sends DisplayControlMonitorLayout whenever its local window
// geometry changes.
//
// Grounded on the teacher's internal/protocol/rdpedisp package (PDU type
// constants, field layout, and the FreeRDP-derived clamping rules in
// MonitorLayoutPDU.Serialize); this module reshapes the same wire contract
// onto pdu.Codec and, per spec.md §4.3's invariants, rejects rather than
// silently clamps malformed values at construction time while still
// tolerating an invalid value encountered on decode (returning false from
// the validity getter, matching "ignored if invalid" in MS-RDPEDISP).
package dispctl

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// ChannelName is the dynamic virtual channel name negotiated via drdynvc.
const ChannelName = "Microsoft::Windows::RDS::DisplayControl"

// PDU type discriminant (MS-RDPEDISP 2.2.2).
type PDUType uint32

const (
	PDUTypeCaps          PDUType = 0x00000005
	PDUTypeMonitorLayout PDUType = 0x00000002
)

// MonitorFlagPrimary marks the one monitor that must be present, at
// position (0,0), in every layout (MS-RDPEDISP 2.2.2.2.1).
const MonitorFlagPrimary uint32 = 0x00000001

// Orientation values (MS-RDPEDISP 2.2.2.2.1 Orientation).
type Orientation uint32

const (
	OrientationLandscape        Orientation = 0
	OrientationPortrait         Orientation = 90
	OrientationLandscapeFlipped Orientation = 180
	OrientationPortraitFlipped  Orientation = 270
)

func (o Orientation) valid() bool {
	switch o {
	case OrientationLandscape, OrientationPortrait, OrientationLandscapeFlipped, OrientationPortraitFlipped:
		return true
	}
	return false
}

// Caps is DISPLAYCONTROL_CAPS_PDU (MS-RDPEDISP 2.2.2.1), sent by the
// server once the channel opens.
type Caps struct {
	MaxNumMonitors     uint32
	MaxMonitorAreaSize uint32 // width * height, pixels
}

const capsName = "DisplayControlCapsPDU"
const capsSize = 4 + 4 + 4 + 4

func (c *Caps) Name() string { return capsName }
func (c *Caps) Size() int    { return capsSize }
func (c *Caps) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(capsName, dst, capsSize); err != nil {
		return err
	}
	dst.WriteU32LE(uint32(PDUTypeCaps))
	dst.WriteU32LE(uint32(capsSize))
	dst.WriteU32LE(c.MaxNumMonitors)
	dst.WriteU32LE(c.MaxMonitorAreaSize)
	return nil
}

func DecodeCaps(src *cursor.Reader) (*Caps, error) {
	if err := pdu.EnsureFixedPartSize(capsName, src, capsSize); err != nil {
		return nil, err
	}
	pduType := PDUType(src.ReadU32LE())
	if pduType != PDUTypeCaps {
		return nil, &pdu.InvalidFieldError{PDU: capsName, Field: "pduType", Reason: "not a Caps PDU"}
	}
	src.ReadU32LE() // length, recomputed on encode
	return &Caps{MaxNumMonitors: src.ReadU32LE(), MaxMonitorAreaSize: src.ReadU32LE()}, nil
}

// MonitorLayoutEntry is DISPLAYCONTROL_MONITOR_LAYOUT (MS-RDPEDISP
// 2.2.2.2.1). Valid reports whether every invariant spec.md §4.3 lists
// holds; Encode neither clamps nor checks Valid, so an invalid entry is
// written exactly as given.
type MonitorLayoutEntry struct {
	Primary            bool
	Left, Top          int32
	Width, Height      uint32
	PhysicalWidthMM    uint32
	PhysicalHeightMM   uint32
	Orientation        Orientation
	DesktopScaleFactor uint32
	DeviceScaleFactor  uint32
}

const monitorLayoutEntrySize = 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4 + 4

// Valid reports whether this entry satisfies every MS-RDPEDISP range
// constraint; an invalid entry present in a decoded PDU should be treated
// as "ignored" by the caller rather than rejected outright, per
// MS-RDPEDISP's own tolerance.
func (m MonitorLayoutEntry) Valid() bool {
	if m.Primary && (m.Left != 0 || m.Top != 0) {
		return false
	}
	if m.Width%2 != 0 || m.Width < 200 || m.Width > 8192 {
		return false
	}
	if m.Height < 200 || m.Height > 8192 {
		return false
	}
	if !m.Orientation.valid() {
		return false
	}
	if m.DesktopScaleFactor < 100 || m.DesktopScaleFactor > 500 {
		return false
	}
	switch m.DeviceScaleFactor {
	case 100, 140, 180:
	default:
		return false
	}
	if m.PhysicalWidthMM != 0 && (m.PhysicalWidthMM < 10 || m.PhysicalWidthMM > 10000) {
		return false
	}
	if m.PhysicalHeightMM != 0 && (m.PhysicalHeightMM < 10 || m.PhysicalHeightMM > 10000) {
		return false
	}
	return true
}

func (m MonitorLayoutEntry) encode(dst *cursor.Writer) {
	var flags uint32
	if m.Primary {
		flags |= MonitorFlagPrimary
	}
	dst.WriteU32LE(flags)
	dst.WriteI32LE(m.Left)
	dst.WriteI32LE(m.Top)
	dst.WriteU32LE(m.Width)
	dst.WriteU32LE(m.Height)
	dst.WriteU32LE(m.PhysicalWidthMM)
	dst.WriteU32LE(m.PhysicalHeightMM)
	dst.WriteU32LE(uint32(m.Orientation))
	dst.WriteU32LE(m.DesktopScaleFactor)
	dst.WriteU32LE(m.DeviceScaleFactor)
}

func decodeMonitorLayoutEntry(src *cursor.Reader) MonitorLayoutEntry {
	flags := src.ReadU32LE()
	return MonitorLayoutEntry{
		Primary:            flags&MonitorFlagPrimary != 0,
		Left:               src.ReadI32LE(),
		Top:                src.ReadI32LE(),
		Width:              src.ReadU32LE(),
		Height:             src.ReadU32LE(),
		PhysicalWidthMM:    src.ReadU32LE(),
		PhysicalHeightMM:   src.ReadU32LE(),
		Orientation:        Orientation(src.ReadU32LE()),
		DesktopScaleFactor: src.ReadU32LE(),
		DeviceScaleFactor:  src.ReadU32LE(),
	}
}

// MonitorLayout is DISPLAYCONTROL_MONITOR_LAYOUT_PDU (MS-RDPEDISP 2.2.2.2),
// sent by the client to request a display reconfiguration. Exactly one
// monitor must carry Primary (enforced here at construction, not silently
// fixed up), matching spec.md's "enforced on new()" invariant.
type MonitorLayout struct {
	Monitors []MonitorLayoutEntry
}

const monitorLayoutName = "DisplayControlMonitorLayoutPDU"
const maxMonitors = 1024

// NewMonitorLayout validates exactly-one-primary before returning a PDU
// value; it does not validate each entry's own range constraints (those
// are reported per-entry via Valid on decode/getter access, matching
// MS-RDPEDISP's own "ignored if invalid" tolerance).
func NewMonitorLayout(monitors []MonitorLayoutEntry) (*MonitorLayout, error) {
	if len(monitors) == 0 || len(monitors) > maxMonitors {
		return nil, &pdu.InvalidFieldError{PDU: monitorLayoutName, Field: "monitors", Reason: "monitor count must be in [1, 1024]"}
	}
	primaries := 0
	for _, m := range monitors {
		if m.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return nil, &pdu.InvalidFieldError{PDU: monitorLayoutName, Field: "monitors", Reason: "exactly one monitor must be primary"}
	}
	return &MonitorLayout{Monitors: monitors}, nil
}

func (m *MonitorLayout) Name() string { return monitorLayoutName }
func (m *MonitorLayout) Size() int {
	return 4 + 4 + 4 + 4 + monitorLayoutEntrySize*len(m.Monitors)
}

func (m *MonitorLayout) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(monitorLayoutName, dst, m.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(uint32(PDUTypeMonitorLayout))
	dst.WriteU32LE(uint32(m.Size()))
	dst.WriteU32LE(uint32(monitorLayoutEntrySize))
	dst.WriteU32LE(uint32(len(m.Monitors)))
	for _, mon := range m.Monitors {
		mon.encode(dst)
	}
	return nil
}

func DecodeMonitorLayout(src *cursor.Reader) (*MonitorLayout, error) {
	if err := pdu.EnsureFixedPartSize(monitorLayoutName, src, 16); err != nil {
		return nil, err
	}
	pduType := PDUType(src.ReadU32LE())
	if pduType != PDUTypeMonitorLayout {
		return nil, &pdu.InvalidFieldError{PDU: monitorLayoutName, Field: "pduType", Reason: "not a MonitorLayout PDU"}
	}
	src.ReadU32LE() // length, recomputed on encode
	entrySize := int(src.ReadU32LE())
	if entrySize != monitorLayoutEntrySize {
		return nil, &pdu.CrossFieldMismatchError{PDU: monitorLayoutName, Fields: []string{"monitorLayoutSize"}, Reason: "unexpected monitor entry size"}
	}
	count := int(src.ReadU32LE())
	if count > maxMonitors {
		return nil, &pdu.InvalidFieldError{PDU: monitorLayoutName, Field: "monitorCount", Reason: "exceeds 1024"}
	}
	out := &MonitorLayout{}
	for i := 0; i < count; i++ {
		if err := pdu.EnsureFixedPartSize(monitorLayoutName, src, monitorLayoutEntrySize); err != nil {
			return nil, err
		}
		out.Monitors = append(out.Monitors, decodeMonitorLayoutEntry(src))
	}
	return out, nil
}
