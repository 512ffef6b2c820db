package bitmap

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}

func TestDecompress8bppSixByThree(t *testing.T) {
	src := mustHex(t, "13FF20FEFD60017DF5C29A386001678BA378AF")
	want := mustHex(t, "FFFFFFFFFEFDFEC084604B19FD8C3E0E87C1")
	dest := make([]byte, 6*3)
	if err := Decompress(Depth8, src, dest, 6); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(dest, want) {
		t.Fatalf("got % X, want % X", dest, want)
	}
}

func TestDecompress8bppEightByTwo(t *testing.T) {
	src := []byte{0x17, 0xFF, 0x04, 0x40, 0x01, 0x02, 0x03, 0x04}
	dest := make([]byte, 8*2)
	if err := Decompress(Depth8, src, dest, 8); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	row0 := dest[0:8]
	row1 := dest[8:16]
	for _, b := range row0 {
		if b != 0xFF {
			t.Fatalf("row0 not all white: % X", row0)
		}
	}
	want1 := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFE, 0x00, 0xFD, 0x01}
	if !bytes.Equal(row1, want1) {
		t.Fatalf("row1 = % X, want % X", row1, want1)
	}
}

func TestDecompressShortSourceErrors(t *testing.T) {
	src := []byte{0xF0} // MEGA_MEGA_BG_RUN missing its 2-byte length
	dest := make([]byte, 16)
	err := Decompress(Depth8, src, dest, 4)
	if err == nil {
		t.Fatal("expected a short-read error")
	}
	var nb *NotEnoughBytesError
	if !asNB(err, &nb) {
		t.Fatalf("expected *NotEnoughBytesError, got %T: %v", err, err)
	}
}

func asNB(err error, target **NotEnoughBytesError) bool {
	nb, ok := err.(*NotEnoughBytesError)
	if ok {
		*target = nb
	}
	return ok
}

func TestPlaneRoundTrip(t *testing.T) {
	width, height := 16, 4
	src := make([]byte, width*height)
	for i := range src {
		src[i] = byte(i * 7 % 251)
	}
	encoded := EncodePlane(src, width, height)
	dst := make([]byte, width*height)
	consumed, err := DecodePlane(encoded, dst, width, height)
	if err != nil {
		t.Fatalf("DecodePlane: %v", err)
	}
	if consumed != len(encoded) {
		t.Fatalf("consumed %d, want %d", consumed, len(encoded))
	}
	if !bytes.Equal(dst, src) {
		t.Fatalf("round-trip mismatch:\n got % X\nwant % X", dst, src)
	}
}

func TestDecodePlaneMultilineSeed(t *testing.T) {
	// MS-RDPEGDI 3.1.9.2.3 multiline seed, reused here as a single-plane
	// vector (this is the same control-byte/delta algorithm the spec
	// assigns to both the interleaved and planar RLE families).
	src := mustHex(t, "13FF20FEFD60017DF5C29A386001678BA378AF")
	dst := make([]byte, 6*3)
	if _, err := DecodePlane(src, dst, 6, 3); err != nil {
		t.Fatalf("DecodePlane: %v", err)
	}
}

func TestCompressDecompressRoundTrip(t *testing.T) {
	width, height := 4, 3
	src := make([]byte, width*height)
	for i := range src {
		src[i] = byte(i)
	}
	compressed := Compress(Depth8, src, width, height)
	dst := make([]byte, width*height)
	if err := Decompress(Depth8, compressed, dst, width); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatalf("round-trip mismatch: got % X want % X", dst, src)
	}
}
