package bitmap

// Depth distinguishes the four colour depths interleaved RLE supports. Each
// witnesses its own pixel width and black/white constants; the run-length
// extraction and order dispatch above are shared across all four.
type Depth int

const (
	Depth8 Depth = iota
	Depth15
	Depth16
	Depth24
)

// BytesPerPixel returns the pixel width in bytes for the depth.
func (d Depth) BytesPerPixel() int {
	switch d {
	case Depth8:
		return 1
	case Depth15, Depth16:
		return 2
	case Depth24:
		return 3
	}
	return 0
}

type pixel uint32

func (d Depth) white() pixel {
	switch d {
	case Depth8:
		return 0xFF
	case Depth15:
		return 0x7FFF
	case Depth16:
		return 0xFFFF
	case Depth24:
		return 0xFFFFFF
	}
	return 0
}

func (d Depth) black() pixel { return 0 }

func (d Depth) readPixel(data []byte, idx int) pixel {
	bpp := d.BytesPerPixel()
	if idx < 0 || idx+bpp > len(data) {
		return 0
	}
	var v pixel
	for i := 0; i < bpp; i++ {
		v |= pixel(data[idx+i]) << (8 * i)
	}
	return v
}

func (d Depth) writePixel(data []byte, idx int, p pixel) {
	bpp := d.BytesPerPixel()
	if idx < 0 || idx+bpp > len(data) {
		return
	}
	for i := 0; i < bpp; i++ {
		data[idx+i] = byte(p >> (8 * i))
	}
}

func writeFgBgImage(d Depth, dest []byte, destIdx, rowDelta int, bitmask byte, fg pixel, cBits int, firstLine bool) int {
	bpp := d.BytesPerPixel()
	for i := 0; i < cBits && i < 8; i++ {
		if destIdx+bpp > len(dest) {
			break
		}
		if firstLine {
			if bitmask&fgBgBitmasks[i] != 0 {
				d.writePixel(dest, destIdx, fg)
			} else {
				d.writePixel(dest, destIdx, 0)
			}
		} else {
			above := d.readPixel(dest, destIdx-rowDelta)
			if bitmask&fgBgBitmasks[i] != 0 {
				d.writePixel(dest, destIdx, above^fg)
			} else {
				d.writePixel(dest, destIdx, above)
			}
		}
		destIdx += bpp
	}
	return destIdx
}

// Decompress decodes src, an interleaved-RLE compressed bitmap of the given
// depth, into dest. dest must already be sized width*height*bpp; rowDelta
// is the per-row stride (normally width*bpp). The first row treats the
// "pixel above" as black, matching MS-RDPBCGR.
func Decompress(depth Depth, src []byte, dest []byte, rowDelta int) error {
	bpp := depth.BytesPerPixel()
	srcIdx, destIdx := 0, 0
	fg := depth.white()
	insertFg := false
	firstLine := true

	room := func(n int) error {
		if destIdx+n > len(dest) {
			return &InvalidImageSizeError{MaximumAdditional: len(dest) - destIdx, RequiredAdditional: n}
		}
		return nil
	}

	for srcIdx < len(src) && destIdx < len(dest) {
		if firstLine && destIdx >= rowDelta {
			firstLine = false
			insertFg = false
		}

		o := extractOrder(src[srcIdx])

		switch {
		case o == orderRegularBgRun || o == orderMegaMegaBgRun:
			runLength, next, err := extractRunLength(o, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = next
			if err := room(runLength * bpp); err != nil {
				return err
			}
			for runLength > 0 {
				var val pixel
				if firstLine {
					val = 0
				} else {
					val = depth.readPixel(dest, destIdx-rowDelta)
				}
				if insertFg {
					val ^= fg
					insertFg = false
				}
				depth.writePixel(dest, destIdx, val)
				destIdx += bpp
				runLength--
			}
			insertFg = true

		case o == orderRegularFgRun || o == orderMegaMegaFgRun || o == orderLiteSetFgFgRun || o == orderMegaMegaSetFgRun:
			insertFg = false
			runLength, next, err := extractRunLength(o, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = next
			if o == orderLiteSetFgFgRun || o == orderMegaMegaSetFgRun {
				if srcIdx+bpp > len(src) {
					return &NotEnoughBytesError{Received: len(src) - srcIdx, Expected: bpp}
				}
				fg = depth.readPixel(src, srcIdx)
				srcIdx += bpp
			}
			if err := room(runLength * bpp); err != nil {
				return err
			}
			for runLength > 0 {
				if firstLine {
					depth.writePixel(dest, destIdx, fg)
				} else {
					above := depth.readPixel(dest, destIdx-rowDelta)
					depth.writePixel(dest, destIdx, above^fg)
				}
				destIdx += bpp
				runLength--
			}

		case o == orderLiteDitheredRun || o == orderMegaMegaDitheredRun:
			insertFg = false
			runLength, next, err := extractRunLength(o, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = next
			if srcIdx+2*bpp > len(src) {
				return &NotEnoughBytesError{Received: len(src) - srcIdx, Expected: 2 * bpp}
			}
			a := depth.readPixel(src, srcIdx)
			srcIdx += bpp
			b := depth.readPixel(src, srcIdx)
			srcIdx += bpp
			if err := room(runLength * 2 * bpp); err != nil {
				return err
			}
			for runLength > 0 {
				depth.writePixel(dest, destIdx, a)
				destIdx += bpp
				depth.writePixel(dest, destIdx, b)
				destIdx += bpp
				runLength--
			}

		case o == orderRegularColorRun || o == orderMegaMegaColorRun:
			insertFg = false
			runLength, next, err := extractRunLength(o, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = next
			if srcIdx+bpp > len(src) {
				return &NotEnoughBytesError{Received: len(src) - srcIdx, Expected: bpp}
			}
			p := depth.readPixel(src, srcIdx)
			srcIdx += bpp
			if err := room(runLength * bpp); err != nil {
				return err
			}
			for runLength > 0 {
				depth.writePixel(dest, destIdx, p)
				destIdx += bpp
				runLength--
			}

		case o == orderRegularColorImage || o == orderMegaMegaColorImage:
			insertFg = false
			runLength, next, err := extractRunLength(o, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = next
			if srcIdx+runLength*bpp > len(src) {
				return &NotEnoughBytesError{Received: len(src) - srcIdx, Expected: runLength * bpp}
			}
			if err := room(runLength * bpp); err != nil {
				return err
			}
			for runLength > 0 {
				p := depth.readPixel(src, srcIdx)
				srcIdx += bpp
				depth.writePixel(dest, destIdx, p)
				destIdx += bpp
				runLength--
			}

		case o == orderRegularFgBgImage || o == orderMegaMegaFgBgImage || o == orderLiteSetFgFgBgImage || o == orderMegaMegaSetFgBgImage:
			insertFg = false
			runLength, next, err := extractRunLength(o, src, srcIdx)
			if err != nil {
				return err
			}
			srcIdx = next
			if o == orderLiteSetFgFgBgImage || o == orderMegaMegaSetFgBgImage {
				if srcIdx+bpp > len(src) {
					return &NotEnoughBytesError{Received: len(src) - srcIdx, Expected: bpp}
				}
				fg = depth.readPixel(src, srcIdx)
				srcIdx += bpp
			}
			for runLength > 0 {
				if srcIdx >= len(src) {
					return &NotEnoughBytesError{Received: 0, Expected: 1}
				}
				mask := src[srcIdx]
				srcIdx++
				cBits := 8
				if runLength < 8 {
					cBits = runLength
				}
				if err := room(cBits * bpp); err != nil {
					return err
				}
				destIdx = writeFgBgImage(depth, dest, destIdx, rowDelta, mask, fg, cBits, firstLine)
				runLength -= cBits
			}

		case o == orderSpecialFgBg1 || o == orderSpecialFgBg2:
			insertFg = false
			mask := byte(bitmaskSpecialFgBg1)
			if o == orderSpecialFgBg2 {
				mask = bitmaskSpecialFgBg2
			}
			if err := room(8 * bpp); err != nil {
				return err
			}
			destIdx = writeFgBgImage(depth, dest, destIdx, rowDelta, mask, fg, 8, firstLine)
			srcIdx++

		case o == orderWhite:
			insertFg = false
			if err := room(bpp); err != nil {
				return err
			}
			depth.writePixel(dest, destIdx, depth.white())
			destIdx += bpp
			srcIdx++

		case o == orderBlack:
			insertFg = false
			if err := room(bpp); err != nil {
				return err
			}
			depth.writePixel(dest, destIdx, depth.black())
			destIdx += bpp
			srcIdx++

		default:
			srcIdx++
		}
	}

	return nil
}

// Compress produces a valid, decodable interleaved-RLE stream for src (a
// width*height*bpp raw bitmap). It does not attempt optimal compression: it
// emits one MEGA_MEGA_COLOR_IMAGE literal run per scanline, which round-
// trips through Decompress but does not exploit background/foreground
// repetition the way a production encoder would.
func Compress(depth Depth, src []byte, width, height int) []byte {
	bpp := depth.BytesPerPixel()
	rowBytes := width * bpp
	out := make([]byte, 0, len(src)+height*3)
	for y := 0; y < height; y++ {
		row := src[y*rowBytes : (y+1)*rowBytes]
		out = append(out, byte(orderMegaMegaColorImage), byte(width&0xFF), byte(width>>8))
		out = append(out, row...)
	}
	return out
}
