package zgfx

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	c := NewCompressor()
	msg := []byte("round trip through the uncompressed ZGFX framing")
	wrapped := c.Compress(msg)

	d := NewDecompressor()
	out, n, err := d.Decompress(wrapped, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if n != len(msg) || !bytes.Equal(out, msg) {
		t.Fatalf("got %q, want %q", out, msg)
	}
}

func TestCompressMultipartRoundTrip(t *testing.T) {
	c := NewCompressor()
	msg := bytes.Repeat([]byte("zgfx multipart segment payload "), 4000) // forces multiple segments
	wrapped := c.CompressMultipart(msg)

	d := NewDecompressor()
	out, n, err := d.Decompress(wrapped, nil)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if n != len(msg) || !bytes.Equal(out, msg) {
		t.Fatalf("round-trip mismatch: got %d bytes, want %d", len(out), len(msg))
	}
}
