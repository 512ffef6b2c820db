package commands

import (
	"fmt"

	"github.com/rcarmo/go-rdp/acceptor"
	"github.com/rcarmo/go-rdp/connector"
	"github.com/rcarmo/go-rdp/framed"
	"github.com/rcarmo/go-rdp/protocol/caps"
)

// driveAcceptor walks acc through its accept sequence over fr/fw,
// reading exactly the bytes each state's hint calls for and writing back
// whatever the state produces, until the handshake completes or fails.
func driveAcceptor(acc *acceptor.Acceptor, fr *framed.Reader, fw *framed.Writer) (*acceptor.Result, error) {
	for !acc.Done() {
		var input []byte
		if hint := acc.NextPDUHint(); hint != nil {
			frame, err := fr.ReadPDU(framed.Hint(hint))
			if err != nil {
				return nil, fmt.Errorf("reading handshake frame: %w", err)
			}
			input = frame
		}
		written, out, err := acc.Step(input)
		if err != nil {
			return nil, fmt.Errorf("accept step: %w", err)
		}
		if !written.IsNothing() {
			if err := fw.WritePDU(out); err != nil {
				return nil, fmt.Errorf("writing handshake frame: %w", err)
			}
		}
	}
	return acc.Result()
}

// driveConnector is driveAcceptor's client-side counterpart.
func driveConnector(conn *connector.Connector, fr *framed.Reader, fw *framed.Writer) (*connector.Result, error) {
	for !conn.Done() {
		var input []byte
		if hint := conn.NextPDUHint(); hint != nil {
			frame, err := fr.ReadPDU(framed.Hint(hint))
			if err != nil {
				return nil, fmt.Errorf("reading handshake frame: %w", err)
			}
			input = frame
		}
		written, out, err := conn.Step(input)
		if err != nil {
			return nil, fmt.Errorf("connect step: %w", err)
		}
		if !written.IsNothing() {
			if err := fw.WritePDU(out); err != nil {
				return nil, fmt.Errorf("writing handshake frame: %w", err)
			}
		}
	}
	return conn.Result()
}

// defaultCapabilities is a minimal but valid capability list covering the
// sets every handshake needs agreement on (MS-RDPBCGR 2.2.7), sized to
// the desktop dimensions offered or requested.
func defaultCapabilities(width, height uint16) caps.List {
	return caps.List{
		&caps.General{
			OSMajorType:     1, // OSMAJORTYPE_WINDOWS (teacher/pack convention for a generic client)
			OSMinorType:     3, // OSMINORTYPE_WINDOWS_NT
			ProtocolVersion: 0x0200,
		},
		&caps.Bitmap{
			PreferredBitsPerPixel:    32,
			DesktopWidth:             width,
			DesktopHeight:            height,
			DesktopResizeFlag:        1,
			BitmapCompressionFlag:    1,
			MultipleRectangleSupport: 1,
		},
		&caps.Order{},
		&caps.Input{
			InputFlags:   0x0001 | 0x0010, // INPUT_FLAG_SCANCODES | INPUT_FLAG_UNICODE
			KeyboardType: 4,               // IBM enhanced (101/102-key)
		},
		&caps.VirtualChannel{},
		&caps.Pointer{},
	}
}
