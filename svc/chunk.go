package svc

import (
	"github.com/rcarmo/go-rdp/core/cursor"
)

// MaxChunkLength is the default maximum chunk payload size (MS-RDPBCGR
// §3.1.5.2.2): larger values require the peer to advertise them via the
// virtual-channel capability set's VCChunkSize field.
const MaxChunkLength = 1600

// Chunkify splits an already-encoded PDU into wire-ready Channel PDU Header
// + payload chunks, each at most maxChunkLen bytes of payload. FIRST is set
// on the first chunk, LAST on the last (both on a single-chunk message);
// every chunk's Length field carries the PDU's total size, not the chunk's
// own payload size.
func Chunkify(encoded []byte, extraFlags ChannelFlags, maxChunkLen int) ([][]byte, error) {
	total := len(encoded)
	if maxChunkLen <= 0 {
		maxChunkLen = MaxChunkLength
	}

	var chunks [][]byte
	start := 0
	for {
		end := start + maxChunkLen
		if end > total {
			end = total
		}

		flags := extraFlags
		if start == 0 {
			flags |= FlagFirst
		}
		last := end == total
		if last {
			flags |= FlagLast
		}

		header := ChannelPduHeader{Length: uint32(total), Flags: flags}
		buf := make([]byte, header.Size()+(end-start))
		w := cursor.NewWriter(buf)
		if err := header.Encode(w); err != nil {
			return nil, err
		}
		w.WriteSlice(encoded[start:end])
		chunks = append(chunks, buf)

		if last {
			break
		}
		start = end
	}

	return chunks, nil
}

// reassembler accumulates chunks for a single channel until FLAG_LAST
// arrives. Per spec.md §4.5's documented open question, a FIRST chunk that
// arrives while a previous message is still incomplete clears and restarts
// the accumulator rather than erroring — the lenient policy the reference
// implementation picks, logged as a caller concern rather than enforced
// here (this package has no logging dependency).
type reassembler struct {
	buf     []byte
	started bool
}

// dechunkify parses the Channel PDU Header off payload, appends the rest to
// the accumulator, and returns the assembled message once FLAG_LAST is
// seen. Returns (nil, nil) while more fragments are still expected.
func (r *reassembler) dechunkify(payload []byte) ([]byte, error) {
	src := cursor.NewReader(payload)
	header, err := DecodeChannelPduHeader(src)
	if err != nil {
		return nil, err
	}

	if header.Flags.Has(FlagFirst) && r.started {
		r.buf = r.buf[:0]
	}
	r.started = true
	r.buf = append(r.buf, src.Remaining()...)

	if header.Flags.Has(FlagLast) {
		out := r.buf
		r.buf = nil
		r.started = false
		return out, nil
	}
	return nil, nil
}
