package zgfx

import (
	"bytes"
	"strings"
	"testing"
)

func TestDecompressSegmentSingleLiteral(t *testing.T) {
	d := NewDecompressor()
	buf := []byte{0b1100_1000, 0x03}
	out, n, err := d.decompressSegment(buf, nil)
	if err != nil {
		t.Fatalf("decompressSegment: %v", err)
	}
	if n != 1 || !bytes.Equal(out, []byte{0x01}) {
		t.Fatalf("got %v (n=%d), want [0x01]", out, n)
	}
}

func TestDecompressSegmentMultipleLiterals(t *testing.T) {
	d := NewDecompressor()
	buf := []byte{0b1100_1110, 0b1001_1011, 0b0001_1001, 0b0100_0000, 0x06}
	out, _, err := d.decompressSegment(buf, nil)
	if err != nil {
		t.Fatalf("decompressSegment: %v", err)
	}
	want := []byte{0x01, 0x02, 0xff, 0x65}
	if !bytes.Equal(out, want) {
		t.Fatalf("got % X, want % X", out, want)
	}
}

func TestDecompressSegmentLiteralWithMatchDistance1(t *testing.T) {
	d := NewDecompressor()
	buf := []byte{0b0011_0010, 0b1100_0100, 0b0011_0000, 0x1}
	out, _, err := d.decompressSegment(buf, nil)
	if err != nil {
		t.Fatalf("decompressSegment: %v", err)
	}
	want := bytes.Repeat([]byte{0x65}, 5)
	if !bytes.Equal(out, want) {
		t.Fatalf("got % X, want % X", out, want)
	}
}

func TestDecompressSegmentMatchUnencodedBytes(t *testing.T) {
	d := NewDecompressor()
	expected := []byte("The quick brown fox jumps over the lazy dog")
	buf := []byte{0b1000_1000, 0b0000_0000, 0b00010101, 0b1000_0000}
	buf = append(buf, expected...)
	buf = append(buf, 0x00)

	out, _, err := d.decompressSegment(buf, nil)
	if err != nil {
		t.Fatalf("decompressSegment: %v", err)
	}
	if !bytes.Equal(out, expected) {
		t.Fatalf("got %q, want %q", out, expected)
	}
}

func TestDecompressMultipartSpansSegments(t *testing.T) {
	buf := []byte{
		0xE1, // DEBLOCK_MULTIPART
		0x03, 0x00, // 3 segments
		0x2B, 0x00, 0x00, 0x00, // 0x2B total bytes uncompressed
		0x11, 0x00, 0x00, 0x00, // segment 1: 17 bytes
		0x04,
		0x54, 0x68, 0x65, 0x20, 0x71, 0x75, 0x69, 0x63, 0x6B, 0x20, 0x62, 0x72, 0x6F, 0x77, 0x6E, 0x20,
		0x0E, 0x00, 0x00, 0x00, // segment 2: 14 bytes
		0x04,
		0x66, 0x6F, 0x78, 0x20, 0x6A, 0x75, 0x6D, 0x70, 0x73, 0x20, 0x6F, 0x76, 0x65,
		0x10, 0x00, 0x00, 0x00, // segment 3: 16 bytes
		0x24,
		0x39, 0x08, 0x0E, 0x91, 0xF8, 0xD8, 0x61, 0x3D, 0x1E, 0x44, 0x06, 0x43, 0x79, 0x9C,
		0x02,
	}
	want := "The quick brown fox jumps over the lazy dog"

	d := NewDecompressor()
	out, n, err := d.Decompress(buf, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if n != len(want) {
		t.Fatalf("wrote %d bytes, want %d", n, len(want))
	}
	if string(out) != want {
		t.Fatalf("got %q, want %q", out, want)
	}
}

func TestDecompressSingleUncompressedSegmentPassthrough(t *testing.T) {
	buf := []byte{
		0xe0, 0x04,
		0x13, 0x00, 0x00, 0x00, 0x14, 0x00, 0x00, 0x00, 0x01, 0x06, 0x0a, 0x00, 0x04, 0x00, 0x00, 0x00,
		0x20, 0x00, 0x00, 0x00,
	}
	want := buf[2:]

	d := NewDecompressor()
	out, n, err := d.Decompress(buf, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if n != len(want) || !bytes.Equal(out, want) {
		t.Fatalf("got % X, want % X", out, want)
	}
}

func TestDecompressMultipartSizeMismatchErrors(t *testing.T) {
	buf := []byte{
		0xE1,
		0x01, 0x00,
		0xFF, 0x00, 0x00, 0x00, // claims 255 bytes uncompressed
		0x02, 0x00, 0x00, 0x00,
		0x04, 0x41, // literal "A"
	}
	d := NewDecompressor()
	_, _, err := d.Decompress(buf, nil)
	if err == nil {
		t.Fatal("expected InvalidDecompressedSize error")
	}
	if !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHistoryCopyBackReplaysRecentBytes(t *testing.T) {
	h := newHistory()
	data := []byte{1, 2, 3, 4, 5}
	h.write(data)
	out := h.copyBack(5, 5, nil)
	if !bytes.Equal(out, data) {
		t.Fatalf("got % X, want % X", out, data)
	}
}
