// Package nscodec implements the NSCodec bitmap codec (MS-RDPNSC): a
// simple RLE-compressed AYCoCg planar format used as a fallback codec when
// RemoteFX is unavailable. A Bitmap Codec header (4 plane byte counts +
// colorLossLevel + chromaSubsamplingLevel + 2 reserved bytes) precedes the
// four RLE-compressed planes (luma, orange chroma, green chroma, alpha).
//
// Grounded on the teacher's internal/codec/nscodec.go (plane layout,
// run/literal RLE segment format, AYCoCg-to-RGBA conversion, chroma
// super-sampling and color-loss restoration), which only ever decoded a
// server's stream; this module reshapes that into the catalogue's
// pdu.Codec contract and adds rleCompress, a single-plane RLE encoder. No
// RGBA-to-AYCoCg plane split exists and nothing in the package calls
// rleCompress, so Bitmap.Encode writes the planes exactly as given.
package nscodec

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

const headerSize = 20

// Bitmap is one NSCodec-compressed frame: the Bitmap Codec header plus its
// four RLE-compressed planes, ready to be wrapped by a Set Surface Bits
// command with CodecID pointing at NSCodec.
type Bitmap struct {
	ColorLossLevel     uint8 // 1 (none) .. 7
	ChromaSubsampling  bool
	LumaPlane          []byte // RLE-compressed
	OrangeChromaPlane  []byte
	GreenChromaPlane   []byte
	AlphaPlane         []byte // may be empty: fully opaque
}

const bitmapName = "NSCodecBitmap"

func (b *Bitmap) Name() string { return bitmapName }

func (b *Bitmap) Size() int {
	return headerSize + len(b.LumaPlane) + len(b.OrangeChromaPlane) + len(b.GreenChromaPlane) + len(b.AlphaPlane)
}

func (b *Bitmap) Encode(dst *cursor.Writer) error {
	if b.ColorLossLevel < 1 || b.ColorLossLevel > 7 {
		return &pdu.InvalidFieldError{PDU: bitmapName, Field: "colorLossLevel", Reason: "must be in [1, 7]"}
	}
	if err := pdu.EnsureSize(bitmapName, dst, b.Size()); err != nil {
		return err
	}
	dst.WriteU32LE(uint32(len(b.LumaPlane)))
	dst.WriteU32LE(uint32(len(b.OrangeChromaPlane)))
	dst.WriteU32LE(uint32(len(b.GreenChromaPlane)))
	dst.WriteU32LE(uint32(len(b.AlphaPlane)))
	dst.WriteU8(b.ColorLossLevel)
	if b.ChromaSubsampling {
		dst.WriteU8(1)
	} else {
		dst.WriteU8(0)
	}
	dst.WriteU16LE(0) // reserved
	dst.WriteSlice(b.LumaPlane)
	dst.WriteSlice(b.OrangeChromaPlane)
	dst.WriteSlice(b.GreenChromaPlane)
	dst.WriteSlice(b.AlphaPlane)
	return nil
}

// DecodeBitmap decodes the Bitmap Codec header and slices out (without
// RLE-expanding) each plane's compressed bytes; call Decompress on the
// result to materialize RGBA pixels for a given target size.
func DecodeBitmap(src *cursor.Reader) (*Bitmap, error) {
	if err := pdu.EnsureFixedPartSize(bitmapName, src, headerSize); err != nil {
		return nil, err
	}
	lumaLen := int(src.ReadU32LE())
	orangeLen := int(src.ReadU32LE())
	greenLen := int(src.ReadU32LE())
	alphaLen := int(src.ReadU32LE())
	colorLossLevel := src.ReadU8()
	chromaFlag := src.ReadU8()
	src.ReadU16LE() // reserved

	if colorLossLevel < 1 || colorLossLevel > 7 {
		return nil, &pdu.InvalidFieldError{PDU: bitmapName, Field: "colorLossLevel", Reason: "must be in [1, 7]"}
	}

	b := &Bitmap{ColorLossLevel: colorLossLevel, ChromaSubsampling: chromaFlag != 0}
	var err error
	if b.LumaPlane, err = src.TryReadSlice(lumaLen); err != nil {
		return nil, err
	}
	if b.OrangeChromaPlane, err = src.TryReadSlice(orangeLen); err != nil {
		return nil, err
	}
	if b.GreenChromaPlane, err = src.TryReadSlice(greenLen); err != nil {
		return nil, err
	}
	if alphaLen > 0 {
		if b.AlphaPlane, err = src.TryReadSlice(alphaLen); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func roundUpToMultiple(n, m int) int {
	if n%m == 0 {
		return n
	}
	return n + (m - n%m)
}

func planeDimensions(width, height int, chromaSubsampling bool) (lumaW, lumaH, chromaW, chromaH int) {
	if chromaSubsampling {
		lumaW = roundUpToMultiple(width, 8)
		lumaH = height
		chromaW = lumaW / 2
		chromaH = roundUpToMultiple(height, 2) / 2
		return
	}
	return width, height, width, height
}

// Decompress expands every plane, reverses chroma super-sampling and
// color-loss quantization, and converts AYCoCg to straight RGBA for a
// width x height image.
func (b *Bitmap) Decompress(width, height int) []byte {
	lumaW, lumaH, chromaW, chromaH := planeDimensions(width, height, b.ChromaSubsampling)
	lumaExpected := lumaW * lumaH
	chromaExpected := chromaW * chromaH

	luma := rleDecompress(b.LumaPlane, lumaExpected)
	orange := rleDecompress(b.OrangeChromaPlane, chromaExpected)
	green := rleDecompress(b.GreenChromaPlane, chromaExpected)
	if luma == nil || orange == nil || green == nil {
		return nil
	}

	var alpha []byte
	if len(b.AlphaPlane) > 0 {
		alpha = rleDecompress(b.AlphaPlane, width*height)
	}

	if b.ChromaSubsampling {
		orange = chromaSuperSample(orange, chromaW, chromaH, lumaW, lumaH)
		green = chromaSuperSample(green, chromaW, chromaH, lumaW, lumaH)
	}
	if b.ColorLossLevel > 1 {
		orange = restoreColorLoss(orange, b.ColorLossLevel)
		green = restoreColorLoss(green, b.ColorLossLevel)
	}
	return aycocgToRGBA(luma, orange, green, alpha, lumaW, lumaH, width, height)
}

// rleDecompress expands one NSCodec RLE plane (run/literal segments,
// trailing 4-byte EndData) to exactly expectedSize bytes, or returns nil
// on malformed input.
func rleDecompress(data []byte, expectedSize int) []byte {
	if len(data) == expectedSize {
		return data
	}
	if len(data) > expectedSize || len(data) < 4 {
		return nil
	}

	result := make([]byte, 0, expectedSize)
	offset := 0
	dataLen := len(data) - 4

	for offset < dataLen && len(result) < expectedSize-4 {
		h := data[offset]
		offset++
		if h&0x80 != 0 {
			runLength := int(h & 0x7F)
			if runLength == 0 {
				if offset >= dataLen {
					return nil
				}
				runLength = int(data[offset]) + 128
				offset++
			}
			if offset >= dataLen {
				return nil
			}
			runValue := data[offset]
			offset++
			for i := 0; i < runLength && len(result) < expectedSize-4; i++ {
				result = append(result, runValue)
			}
		} else {
			literalLength := int(h)
			if literalLength == 0 {
				if offset >= dataLen {
					return nil
				}
				literalLength = int(data[offset]) + 128
				offset++
			}
			if offset+literalLength > dataLen {
				return nil
			}
			result = append(result, data[offset:offset+literalLength]...)
			offset += literalLength
		}
	}

	if len(data) >= 4 {
		end := data[len(data)-4:]
		for _, b := range end {
			if len(result) < expectedSize {
				result = append(result, b)
			}
		}
	}
	for len(result) < expectedSize {
		result = append(result, 0)
	}
	return result[:expectedSize]
}

// rleCompress encodes plane as alternating literal/run segments: runs of
// 4+ identical bytes as a run segment, everything else as literal
// segments, followed by a 4-byte EndData trailer. This is a correct (if
// not maximally compact) NSCodec RLE encoding; a decoder need only
// recognize the two segment shapes, which this emits conservatively.
func rleCompress(plane []byte) []byte {
	if len(plane) < 4 {
		out := make([]byte, 4)
		copy(out, plane)
		return out
	}
	body := plane[:len(plane)-4]
	trailer := plane[len(plane)-4:]

	var out []byte
	i := 0
	var literal []byte
	flushLiteral := func() {
		for len(literal) > 0 {
			n := len(literal)
			if n > 127 {
				n = 127
			}
			out = append(out, byte(n))
			out = append(out, literal[:n]...)
			literal = literal[n:]
		}
	}
	for i < len(body) {
		runLen := 1
		for i+runLen < len(body) && body[i+runLen] == body[i] && runLen < 255+127 {
			runLen++
		}
		if runLen >= 4 {
			flushLiteral()
			n := runLen
			for n > 0 {
				chunk := n
				if chunk > 127+128 {
					chunk = 127 + 128
				}
				if chunk <= 127 {
					out = append(out, 0x80|byte(chunk))
				} else {
					out = append(out, 0x80)
					out = append(out, byte(chunk-128))
				}
				out = append(out, body[i])
				n -= chunk
			}
			i += runLen
		} else {
			literal = append(literal, body[i])
			i++
		}
	}
	flushLiteral()
	out = append(out, trailer...)
	return out
}

func chromaSuperSample(plane []byte, srcWidth, srcHeight, dstWidth, dstHeight int) []byte {
	result := make([]byte, dstWidth*dstHeight)
	for y := 0; y < dstHeight; y++ {
		srcY := y / 2
		if srcY >= srcHeight {
			srcY = srcHeight - 1
		}
		for x := 0; x < dstWidth; x++ {
			srcX := x / 2
			if srcX >= srcWidth {
				srcX = srcWidth - 1
			}
			srcIdx := srcY*srcWidth + srcX
			dstIdx := y*dstWidth + x
			if srcIdx < len(plane) {
				result[dstIdx] = plane[srcIdx]
			}
		}
	}
	return result
}

func restoreColorLoss(plane []byte, colorLossLevel uint8) []byte {
	if colorLossLevel <= 1 {
		return plane
	}
	shift := colorLossLevel - 1
	result := make([]byte, len(plane))
	for i, v := range plane {
		restored := int(v) << shift
		if restored > 255 {
			restored = 255
		}
		result[i] = byte(restored)
	}
	return result
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func aycocgToRGBA(luma, co, cg, alpha []byte, planeWidth, planeHeight, imgWidth, imgHeight int) []byte {
	rgba := make([]byte, imgWidth*imgHeight*4)
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			planeIdx := y*planeWidth + x
			rgbaIdx := (y*imgWidth + x) * 4
			if planeIdx >= len(luma) || planeIdx >= len(co) || planeIdx >= len(cg) {
				continue
			}
			yVal := int(luma[planeIdx])
			coVal := int(co[planeIdx]) - 128
			cgVal := int(cg[planeIdx]) - 128
			t := yVal - cgVal
			rgba[rgbaIdx+0] = clampByte(t + coVal)
			rgba[rgbaIdx+1] = clampByte(yVal + cgVal)
			rgba[rgbaIdx+2] = clampByte(t - coVal)
			if alpha != nil && planeIdx < len(alpha) {
				rgba[rgbaIdx+3] = alpha[planeIdx]
			} else {
				rgba[rgbaIdx+3] = 255
			}
		}
	}
	return rgba
}
