// Package zgfx implements the RDP8 ZGFX bulk compressor/decompressor: an
// LZ77 variant with a fixed 40-entry Huffman prefix table and a 2.5MB
// rolling history window (MS-RDPEGFX 2.2.5).
//
// Grounded on Devolutions/IronRDP's ironrdp-graphics zgfx module (see
// original_source/crates/ironrdp-graphics/src/zgfx/mod.rs): the token
// table, segment framing, and back-reference length/distance coding are
// reproduced from there since spec.md is silent on the exact bit layout.
package zgfx

import "fmt"

// CompressionFlags is the one-byte header preceding every segment's body.
// Bits 0-4 carry a bulk-compression-type constant (unused by the ZGFX
// decoder itself); bit 0x20 marks the body as Huffman/LZ77 compressed
// rather than literal bytes.
type CompressionFlags byte

const flagCompressed CompressionFlags = 0x20

func (f CompressionFlags) Compressed() bool { return f&flagCompressed != 0 }

const (
	descriptorSingle   = 0xE0
	descriptorMultipart = 0xE1
)

// Error is the ZGFX error taxonomy.
type Error struct {
	Kind string
	// Decompressed/Expected are populated for InvalidDecompressedSize.
	Decompressed, Expected int
}

func (e *Error) Error() string {
	switch e.Kind {
	case "invalid-decompressed-size":
		return fmt.Sprintf("zgfx: decompressed size %d does not match declared uncompressed size %d", e.Decompressed, e.Expected)
	default:
		return "zgfx: " + e.Kind
	}
}

// Decompressor holds the rolling history window shared by every segment it
// processes; it is not safe for concurrent use and must not be shared
// across connections (spec.md §5: "ZGFX history is owned by one
// Decompressor and is not shared").
type Decompressor struct {
	history *history
}

func NewDecompressor() *Decompressor {
	return &Decompressor{history: newHistory()}
}

// Decompress parses a SegmentedDataPdu (single or multipart) from input and
// appends its decoded bytes to the output slice, returning the number of
// bytes appended.
func (d *Decompressor) Decompress(input []byte, output []byte) ([]byte, int, error) {
	if len(input) < 1 {
		return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
	}

	switch input[0] {
	case descriptorSingle:
		if len(input) < 2 {
			return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
		}
		out, n, err := d.handleSegment(CompressionFlags(input[1]), input[2:], output)
		return out, n, err

	case descriptorMultipart:
		if len(input) < 7 {
			return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
		}
		segmentCount := int(input[1]) | int(input[2])<<8
		uncompressedSize := int(input[3]) | int(input[4])<<8 | int(input[5])<<16 | int(input[6])<<24
		pos := 7
		written := 0
		for i := 0; i < segmentCount; i++ {
			if pos+4 > len(input) {
				return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
			}
			segSize := int(input[pos]) | int(input[pos+1])<<8 | int(input[pos+2])<<16 | int(input[pos+3])<<24
			pos += 4
			if segSize < 1 || pos+segSize > len(input) {
				return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
			}
			flags := CompressionFlags(input[pos])
			body := input[pos+1 : pos+segSize]
			pos += segSize

			var n int
			var err error
			output, n, err = d.handleSegment(flags, body, output)
			if err != nil {
				return output, 0, err
			}
			written += n
		}
		if written != uncompressedSize {
			return output, written, &Error{Kind: "invalid-decompressed-size", Decompressed: written, Expected: uncompressedSize}
		}
		return output, written, nil

	default:
		return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
	}
}

func (d *Decompressor) handleSegment(flags CompressionFlags, data []byte, output []byte) ([]byte, int, error) {
	if len(data) == 0 {
		return output, 0, nil
	}
	if flags.Compressed() {
		return d.decompressSegment(data, output)
	}
	d.history.write(data)
	output = append(output, data...)
	return output, len(data), nil
}

func (d *Decompressor) decompressSegment(encoded []byte, output []byte) ([]byte, int, error) {
	if len(encoded) == 0 {
		return output, 0, nil
	}
	// The final byte holds the count of unused bits in the penultimate byte.
	unused := int(encoded[len(encoded)-1])
	bitLen := 8*(len(encoded)-1) - unused
	if bitLen < 0 {
		return output, 0, &Error{Kind: "invalid-segmented-descriptor"}
	}

	r := newBitReader(encoded, bitLen)
	written := 0

	for r.remaining() > 0 {
		tok, ok := findToken(r)
		if !ok {
			return output, written, &Error{Kind: "token-bits-not-found"}
		}
		r.pos += len(tok.prefix)

		switch tok.kind {
		case kindNullLiteral:
			if r.remaining() < 8 {
				return output, written, &Error{Kind: "token-bits-not-found"}
			}
			v := byte(r.readBits(8))
			d.history.writeByte(v)
			output = append(output, v)
			written++

		case kindLiteral:
			d.history.writeByte(tok.value)
			output = append(output, tok.value)
			written++

		case kindMatch:
			if r.remaining() < tok.size {
				return output, written, &Error{Kind: "token-bits-not-found"}
			}
			distance := int(tok.base + r.readBits(tok.size))
			var n int
			var err error
			output, n, err = handleMatch(r, distance, d.history, output)
			if err != nil {
				return output, written, err
			}
			written += n
		}
	}

	return output, written, nil
}

func handleMatch(r *bitReader, distance int, h *history, output []byte) ([]byte, int, error) {
	if distance == 0 {
		return readUnencodedBytes(r, h, output)
	}
	return readEncodedBytes(r, distance, h, output)
}

// readUnencodedBytes handles the distance==0 raw-run escape: a 15-bit
// length, padding to the next byte boundary, then that many literal bytes.
func readUnencodedBytes(r *bitReader, h *history, output []byte) ([]byte, int, error) {
	if r.remaining() < 15 {
		return output, 0, &Error{Kind: "token-bits-not-found"}
	}
	length := int(r.readBits(15))
	r.alignToByte()
	if r.remaining() < length*8 {
		return output, 0, &Error{Kind: "token-bits-not-found"}
	}
	bytesOut := make([]byte, length)
	for i := 0; i < length; i++ {
		bytesOut[i] = byte(r.readBits(8))
	}
	h.write(bytesOut)
	output = append(output, bytesOut...)
	return output, length, nil
}

// readEncodedBytes handles a distance>0 back-reference: a unary length
// prefix (count of leading 1 bits, k) followed by a zero bit, then k+1
// more bits forming the length above a 2^(k+1) base (k==0 is the special
// case, length fixed at 3).
func readEncodedBytes(r *bitReader, distance int, h *history, output []byte) ([]byte, int, error) {
	k := r.leadingOnes()
	if r.remaining() < k+1 {
		return output, 0, &Error{Kind: "token-bits-not-found"}
	}
	r.pos += k + 1 // the k one-bits plus the terminating zero bit

	var length int
	if k == 0 {
		length = 3
	} else {
		if r.remaining() < k+1 {
			return output, 0, &Error{Kind: "token-bits-not-found"}
		}
		extra := int(r.readBits(k + 1))
		length = (1 << (k + 1)) + extra
	}

	before := len(output)
	output = h.copyBack(distance, length, output)
	return output, len(output) - before, nil
}
