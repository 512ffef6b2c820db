package zgfx

// maxSegmentPayload bounds a single wrapped segment so the u32 segment-size
// field and the compression-flags byte always fit the same framing the
// decompressor expects.
const maxSegmentPayload = 65535

// Compressor wraps outbound bytes as ZGFX segments. It does not perform
// LZ77 match-finding: every segment is emitted with the COMPRESSED bit
// clear, so the body is carried as literal bytes. This still satisfies the
// round-trip contract (Decompress(Compress(x)) == x) and exercises the
// same segment-framing Decompress parses; a production encoder would add
// Huffman/back-reference search on top of this framing.
type Compressor struct{}

func NewCompressor() *Compressor { return &Compressor{} }

// Compress wraps data as a single uncompressed ZGFX segment.
func (c *Compressor) Compress(data []byte) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, descriptorSingle, byte(0x04)) // compression type 4 (RDP8), COMPRESSED clear
	out = append(out, data...)
	return out
}

// CompressMultipart splits data across ceil(len(data)/maxSegmentPayload)
// uncompressed segments (at least one) wrapped in a DEBLOCK_MULTIPART
// container.
func (c *Compressor) CompressMultipart(data []byte) []byte {
	var segments [][]byte
	for off := 0; off < len(data); off += maxSegmentPayload {
		end := off + maxSegmentPayload
		if end > len(data) {
			end = len(data)
		}
		segments = append(segments, data[off:end])
	}
	if len(segments) == 0 {
		segments = [][]byte{{}}
	}

	out := []byte{descriptorMultipart}
	out = append(out, byte(len(segments)), byte(len(segments)>>8))
	out = append(out, byte(len(data)), byte(len(data)>>8), byte(len(data)>>16), byte(len(data)>>24))
	for _, seg := range segments {
		segSize := len(seg) + 1 // + compression-flags byte
		out = append(out, byte(segSize), byte(segSize>>8), byte(segSize>>16), byte(segSize>>24))
		out = append(out, 0x04)
		out = append(out, seg...)
	}
	return out
}
