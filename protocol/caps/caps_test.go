package caps

import (
	"testing"

	"github.com/rcarmo/go-rdp/core/cursor"
)

func encodeSet(t *testing.T, s Set) []byte {
	t.Helper()
	buf := make([]byte, s.Size())
	if err := s.Encode(cursor.NewWriter(buf)); err != nil {
		t.Fatalf("encode %s: %v", s.Name(), err)
	}
	return buf
}

func TestGeneralRoundTrip(t *testing.T) {
	g := &General{OSMajorType: 1, OSMinorType: 3, ProtocolVersion: 0x0200, CompressionLevel: 0}
	buf := encodeSet(t, g)
	got, err := DecodeSet(cursor.NewReader(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	back, ok := got.(*General)
	if !ok {
		t.Fatalf("got %T, want *General", got)
	}
	if back.OSMajorType != g.OSMajorType || back.ProtocolVersion != g.ProtocolVersion {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, g)
	}
}

func TestBitmapRoundTrip(t *testing.T) {
	b := &Bitmap{PreferredBitsPerPixel: 32, DesktopWidth: 1920, DesktopHeight: 1080, BitmapCompressionFlag: 1}
	buf := encodeSet(t, b)
	got, err := DecodeSet(cursor.NewReader(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	back, ok := got.(*Bitmap)
	if !ok {
		t.Fatalf("got %T, want *Bitmap", got)
	}
	if back.DesktopWidth != 1920 || back.DesktopHeight != 1080 {
		t.Fatalf("round trip mismatch: %+v", back)
	}
}

func TestListRoundTrip(t *testing.T) {
	list := List{
		&General{OSMajorType: 1, ProtocolVersion: 0x0200},
		&Bitmap{PreferredBitsPerPixel: 16, DesktopWidth: 800, DesktopHeight: 600},
		&Input{InputFlags: 0x17},
	}
	buf := make([]byte, list.Size())
	if err := list.Encode(cursor.NewWriter(buf)); err != nil {
		t.Fatalf("encode list: %v", err)
	}
	back, err := DecodeList(cursor.NewReader(buf), len(list))
	if err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(back) != len(list) {
		t.Fatalf("got %d sets, want %d", len(back), len(list))
	}
	if _, ok := back[2].(*Input); !ok {
		t.Fatalf("third set decoded as %T, want *Input", back[2])
	}
}

func TestUnknownCapabilitySetRoundTripsRaw(t *testing.T) {
	raw := &RawCapabilitySet{SetType: SetType(999), Body: []byte{1, 2, 3, 4}}
	buf := encodeSet(t, raw)
	got, err := DecodeSet(cursor.NewReader(buf))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	back, ok := got.(*RawCapabilitySet)
	if !ok {
		t.Fatalf("got %T, want *RawCapabilitySet", got)
	}
	if string(back.Body) != string(raw.Body) {
		t.Fatalf("body mismatch: %v vs %v", back.Body, raw.Body)
	}
}
