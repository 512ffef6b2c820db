package svc

import (
	"bytes"
	"testing"

	"github.com/rcarmo/go-rdp/core/cursor"
)

func newReader(b []byte) *cursor.Reader { return cursor.NewReader(b) }
func newWriter(b []byte) *cursor.Writer { return cursor.NewWriter(b) }

func TestChunkifyDechunkifyRoundTrip(t *testing.T) {
	msg := bytes.Repeat([]byte{0xAB}, 4000)
	chunks, err := Chunkify(msg, 0, MaxChunkLength)
	if err != nil {
		t.Fatalf("Chunkify: %v", err)
	}

	wantChunks := (len(msg) + MaxChunkLength - 1) / MaxChunkLength
	if len(chunks) != wantChunks {
		t.Fatalf("got %d chunks, want %d", len(chunks), wantChunks)
	}

	var r reassembler
	var assembled []byte
	for i, c := range chunks {
		header, err := DecodeChannelPduHeader(newReader(c))
		if err != nil {
			t.Fatalf("decode header: %v", err)
		}
		if int(header.Length) != len(msg) {
			t.Fatalf("chunk %d: length field = %d, want %d", i, header.Length, len(msg))
		}
		if i == 0 && !header.Flags.Has(FlagFirst) {
			t.Fatalf("chunk 0 missing FIRST")
		}
		if i == len(chunks)-1 && !header.Flags.Has(FlagLast) {
			t.Fatalf("last chunk missing LAST")
		}
		if i != 0 && header.Flags.Has(FlagFirst) {
			t.Fatalf("chunk %d unexpectedly has FIRST", i)
		}

		full, err := r.dechunkify(c)
		if err != nil {
			t.Fatalf("dechunkify: %v", err)
		}
		if full != nil {
			assembled = full
		}
	}

	if !bytes.Equal(assembled, msg) {
		t.Fatalf("reassembled mismatch: got %d bytes, want %d", len(assembled), len(msg))
	}
}

func TestChunkifySingleChunkSetsBothFlags(t *testing.T) {
	msg := []byte("short payload")
	chunks, err := Chunkify(msg, 0, MaxChunkLength)
	if err != nil {
		t.Fatalf("Chunkify: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	header, err := DecodeChannelPduHeader(newReader(chunks[0]))
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if !header.Flags.Has(FlagFirst) || !header.Flags.Has(FlagLast) {
		t.Fatalf("single chunk must carry both FIRST and LAST, got %#x", uint32(header.Flags))
	}
}

func TestDechunkifyFirstWithoutPriorLastRestarts(t *testing.T) {
	var r reassembler
	first, _ := r.dechunkify(buildChunk(t, 10, FlagFirst, []byte("abc")))
	if first != nil {
		t.Fatalf("expected nil (more needed), got %v", first)
	}
	// A second FIRST arrives before LAST: the lenient policy restarts.
	full, err := r.dechunkify(buildChunk(t, 3, FlagFirst|FlagLast, []byte("xyz")))
	if err != nil {
		t.Fatalf("dechunkify: %v", err)
	}
	if string(full) != "xyz" {
		t.Fatalf("got %q, want %q", full, "xyz")
	}
}

func buildChunk(t *testing.T, length int, flags ChannelFlags, payload []byte) []byte {
	t.Helper()
	header := ChannelPduHeader{Length: uint32(length), Flags: flags}
	buf := make([]byte, header.Size()+len(payload))
	w := newWriter(buf)
	if err := header.Encode(w); err != nil {
		t.Fatalf("encode header: %v", err)
	}
	w.WriteSlice(payload)
	return buf
}
