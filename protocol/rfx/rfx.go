// Package rfx implements the message-level structure of the RemoteFX codec
// (MS-RDPRFX): the block catalogue (Sync, Context, FrameBegin/FrameEnd,
// Region, TileSet) that carries RemoteFX-compressed tiles inside a Set
// Surface Bits surface command. The bitstream-level wavelet transform,
// quantization, and RLGR entropy coding live in nscodec's sibling
// decode-only helpers; this package only frames the blocks themselves as
// pdu.Codec values so they compose with the rest of the catalogue.
//
// Grounded on the teacher's internal/codec/rfx package: block type
// constants, quantization nibble packing (rfx.go), and the block-by-block
// walk in message.go's ParseRFXMessage, which this module reshapes from a
// single monolithic parse function into one Codec type per block plus the
// encode side (the teacher only ever decoded a server's RFX stream).
package rfx

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// Block type discriminants (MS-RDPRFX 2.2.2.1.1).
const (
	BlockTypeSync          uint16 = 0xCCC0
	BlockTypeCodecVersions uint16 = 0xCCC1
	BlockTypeChannels      uint16 = 0xCCC2
	BlockTypeContext       uint16 = 0xCCC3
	BlockTypeFrameBegin    uint16 = 0xCCC4
	BlockTypeFrameEnd      uint16 = 0xCCC5
	BlockTypeRegion        uint16 = 0xCCC6
	BlockTypeExtension     uint16 = 0xCCC7
	BlockTypeTileSet       uint16 = 0xCAC2
	BlockTypeTile          uint16 = 0xCAC3
)

// TileSize is the fixed RemoteFX tile dimension (MS-RDPRFX 3.1.1); every
// tile is exactly 64x64 pixels, never negotiated.
const TileSize = 64

// Codec-profile constants that MUST match the wire for this module's
// encoder: color conversion is always ICT, the wavelet transform is
// always DWT-53-A, and quantization is always scalar (MS-RDPRFX
// 2.2.2.1.4's clw_* fields, fixed rather than negotiated per tile).
const (
	ColorConvICT   uint8 = 0x01
	TransformDWT53A uint8 = 0x01
	QuantScalar    uint8 = 0x01
)

// Entropy algorithm discriminants (MS-RDPRFX 2.2.2.1.5.1.1): one value per
// TileSet, applied to the Y, Cb and Cr data of every tile alike.
type Entropy uint8

const (
	EntropyRLGR1 Entropy = 0x01
	EntropyRLGR3 Entropy = 0x04
)

func (e Entropy) valid() bool { return e == EntropyRLGR1 || e == EntropyRLGR3 }

// syncMagic/syncVersion are the fixed fields of the Sync block
// (MS-RDPRFX 2.2.2.2.1).
const syncMagic uint32 = 0xCACCACCA
const syncVersion uint16 = 0x0100

// blockHeaderSize is the 2-byte blockType + 4-byte blockLen prefix common
// to every block.
const blockHeaderSize = 6

func writeBlockHeader(dst *cursor.Writer, blockType uint16, blockLen int) {
	dst.WriteU16LE(blockType)
	dst.WriteU32LE(uint32(blockLen))
}

// readBlockHeader reads and validates the common block header, returning
// the declared blockLen (including the 6-byte header itself).
func readBlockHeader(name string, src *cursor.Reader, want uint16) (int, error) {
	if err := pdu.EnsureFixedPartSize(name, src, blockHeaderSize); err != nil {
		return 0, err
	}
	got := src.PeekU16LE()
	if got != want {
		return 0, &pdu.UnexpectedMagicError{PDU: name, Field: "blockType", Got: uint64(got), Expected: uint64(want)}
	}
	src.Advance(2)
	blockLen := int(src.ReadU32LE())
	if blockLen < blockHeaderSize {
		return 0, &pdu.InvalidFieldError{PDU: name, Field: "blockLen", Reason: "shorter than block header"}
	}
	return blockLen, nil
}

// Sync is TS_RFX_SYNC (MS-RDPRFX 2.2.2.2.1), the first block of every
// RemoteFX stream.
type Sync struct{}

const syncName = "RfxSync"
const syncSize = blockHeaderSize + 4 + 2

func (s *Sync) Name() string { return syncName }
func (s *Sync) Size() int    { return syncSize }
func (s *Sync) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(syncName, dst, syncSize); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeSync, syncSize)
	dst.WriteU32LE(syncMagic)
	dst.WriteU16LE(syncVersion)
	return nil
}

func DecodeSync(src *cursor.Reader) (*Sync, error) {
	blockLen, err := readBlockHeader(syncName, src, BlockTypeSync)
	if err != nil {
		return nil, err
	}
	if blockLen != syncSize {
		return nil, &pdu.InvalidFieldError{PDU: syncName, Field: "blockLen", Reason: "must be 12"}
	}
	if err := pdu.EnsureFixedPartSize(syncName, src, 6); err != nil {
		return nil, err
	}
	magic := src.ReadU32LE()
	version := src.ReadU16LE()
	if magic != syncMagic {
		return nil, &pdu.UnexpectedMagicError{PDU: syncName, Field: "magic", Got: uint64(magic), Expected: uint64(syncMagic)}
	}
	if version != syncVersion {
		return nil, &pdu.InvalidFieldError{PDU: syncName, Field: "version", Reason: "unsupported RemoteFX version"}
	}
	return &Sync{}, nil
}

// Context is TS_RFX_CONTEXT (MS-RDPRFX 2.2.2.2.3): announces the fixed
// tile size, color conversion, transform, and entropy profile this
// encoder will use for every subsequent TileSet.
type Context struct {
	Entropy Entropy
}

const contextName = "RfxContext"
const contextSize = blockHeaderSize + 1 + 2 + 2 + 2 + 1 + 1 + 2

func (c *Context) Name() string { return contextName }
func (c *Context) Size() int    { return contextSize }
func (c *Context) Encode(dst *cursor.Writer) error {
	if !c.Entropy.valid() {
		return &pdu.InvalidFieldError{PDU: contextName, Field: "entropy", Reason: "must be RLGR1 or RLGR3"}
	}
	if err := pdu.EnsureSize(contextName, dst, contextSize); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeContext, contextSize)
	dst.WriteU8(0)                    // ctxId, always 0
	dst.WriteU16LE(uint16(TileSize))  // tileSize
	dst.WriteU16LE(0)                 // properties (reserved)
	dst.WriteU16LE(uint16(TileSize))
	dst.WriteU8(ColorConvICT<<4 | TransformDWT53A)
	dst.WriteU8(QuantScalar)
	dst.WriteU16LE(uint16(c.Entropy))
	return nil
}

func DecodeContext(src *cursor.Reader) (*Context, error) {
	blockLen, err := readBlockHeader(contextName, src, BlockTypeContext)
	if err != nil {
		return nil, err
	}
	if blockLen != contextSize {
		return nil, &pdu.InvalidFieldError{PDU: contextName, Field: "blockLen", Reason: "unexpected context block length"}
	}
	if err := pdu.EnsureFixedPartSize(contextName, src, contextSize-blockHeaderSize); err != nil {
		return nil, err
	}
	src.ReadU8()    // ctxId
	src.ReadU16LE() // tileSize
	src.ReadU16LE() // properties
	src.ReadU16LE() // (second tileSize field per teacher's parse; unused)
	src.ReadU8()    // colorConv | transform
	src.ReadU8()    // quant
	entropy := Entropy(src.ReadU16LE())
	if !entropy.valid() {
		return nil, &pdu.InvalidFieldError{PDU: contextName, Field: "entropy", Reason: "unsupported entropy algorithm"}
	}
	return &Context{Entropy: entropy}, nil
}

// FrameBegin is TS_RFX_FRAME_BEGIN (MS-RDPRFX 2.2.2.2.4); brackets the
// Region/TileSet pair(s) of one frame, paired with a matching FrameEnd.
type FrameBegin struct {
	FrameIdx uint32
}

const frameBeginName = "RfxFrameBegin"
const frameBeginSize = blockHeaderSize + 4 + 2

func (f *FrameBegin) Name() string { return frameBeginName }
func (f *FrameBegin) Size() int    { return frameBeginSize }
func (f *FrameBegin) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(frameBeginName, dst, frameBeginSize); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeFrameBegin, frameBeginSize)
	dst.WriteU32LE(f.FrameIdx)
	dst.WriteU16LE(1) // numRegions: this module always emits exactly one Region per frame
	return nil
}

func DecodeFrameBegin(src *cursor.Reader) (*FrameBegin, error) {
	blockLen, err := readBlockHeader(frameBeginName, src, BlockTypeFrameBegin)
	if err != nil {
		return nil, err
	}
	if blockLen != frameBeginSize {
		return nil, &pdu.InvalidFieldError{PDU: frameBeginName, Field: "blockLen", Reason: "unexpected frame-begin block length"}
	}
	if err := pdu.EnsureFixedPartSize(frameBeginName, src, 6); err != nil {
		return nil, err
	}
	idx := src.ReadU32LE()
	src.ReadU16LE() // numRegions
	return &FrameBegin{FrameIdx: idx}, nil
}

// FrameEnd is TS_RFX_FRAME_END (MS-RDPRFX 2.2.2.2.5): an empty block
// closing the frame opened by FrameBegin.
type FrameEnd struct{}

const frameEndName = "RfxFrameEnd"

func (f *FrameEnd) Name() string { return frameEndName }
func (f *FrameEnd) Size() int    { return blockHeaderSize }
func (f *FrameEnd) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(frameEndName, dst, blockHeaderSize); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeFrameEnd, blockHeaderSize)
	return nil
}

func DecodeFrameEnd(src *cursor.Reader) (*FrameEnd, error) {
	blockLen, err := readBlockHeader(frameEndName, src, BlockTypeFrameEnd)
	if err != nil {
		return nil, err
	}
	if blockLen != blockHeaderSize {
		return nil, &pdu.InvalidFieldError{PDU: frameEndName, Field: "blockLen", Reason: "frame-end block carries no body"}
	}
	return &FrameEnd{}, nil
}

// Rect is one TS_RFX_RECT (MS-RDPRFX 2.2.2.2.6.1).
type Rect struct {
	X, Y          uint16
	Width, Height uint16
}

// regionLRF (left-to-right, full-frame) flag is always set by this
// encoder, matching spec invariant that tileset count is fixed at 1 and
// the LRF flag is always on.
const regionLRF uint8 = 0x01

// Region is TS_RFX_REGION (MS-RDPRFX 2.2.2.2.6): the set of rectangles a
// TileSet's tiles update, always followed by exactly one TileSet.
type Region struct {
	Rects []Rect
}

const regionName = "RfxRegion"

func (r *Region) Name() string { return regionName }
func (r *Region) Size() int {
	return blockHeaderSize + 1 + 2 + 8*len(r.Rects) + 2 + 2
}

func (r *Region) Encode(dst *cursor.Writer) error {
	if err := pdu.EnsureSize(regionName, dst, r.Size()); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeRegion, r.Size())
	dst.WriteU8(regionLRF)
	dst.WriteU16LE(uint16(len(r.Rects)))
	for _, rect := range r.Rects {
		dst.WriteU16LE(rect.X)
		dst.WriteU16LE(rect.Y)
		dst.WriteU16LE(rect.Width)
		dst.WriteU16LE(rect.Height)
	}
	dst.WriteU16LE(1) // numTilesets: always 1, per this module's fixed contract
	dst.WriteU16LE(BlockTypeTileSet)
	return nil
}

func DecodeRegion(src *cursor.Reader) (*Region, error) {
	blockLen, err := readBlockHeader(regionName, src, BlockTypeRegion)
	if err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(regionName, src, 3); err != nil {
		return nil, err
	}
	src.ReadU8() // regionFlags
	numRects := int(src.ReadU16LE())
	out := &Region{}
	for i := 0; i < numRects; i++ {
		if err := pdu.EnsureFixedPartSize(regionName, src, 8); err != nil {
			return nil, err
		}
		out.Rects = append(out.Rects, Rect{
			X: src.ReadU16LE(), Y: src.ReadU16LE(),
			Width: src.ReadU16LE(), Height: src.ReadU16LE(),
		})
	}
	if err := pdu.EnsureFixedPartSize(regionName, src, 4); err != nil {
		return nil, err
	}
	numTilesets := src.ReadU16LE()
	if numTilesets != 1 {
		return nil, &pdu.InvalidFieldError{PDU: regionName, Field: "numTilesets", Reason: "must be 1"}
	}
	src.ReadU16LE() // tilesetBlockType, informational
	_ = blockLen
	return out, nil
}

// Quant is the packed 4-bit-nibble quantization factor set for one of the
// ten DWT subbands (MS-RDPRFX 2.2.2.2.7's TS_RFX_CODEC_QUANT), grounded on
// the teacher's SubbandQuant/ParseQuantValues nibble layout.
type Quant struct {
	LL3, LH3, HL3, HH3 uint8
	LH2, HL2, HH2      uint8
	LH1, HL1, HH1      uint8
}

// DefaultQuant mirrors the teacher's ~85%-quality default table.
func DefaultQuant() Quant {
	return Quant{LL3: 6, LH3: 6, HL3: 6, HH3: 6, LH2: 7, HL2: 7, HH2: 8, LH1: 8, HL1: 8, HH1: 9}
}

const quantSize = 5

func (q Quant) encode(dst *cursor.Writer) {
	dst.WriteU8(q.LL3&0x0F | (q.LH3&0x0F)<<4)
	dst.WriteU8(q.HL3&0x0F | (q.HH3&0x0F)<<4)
	dst.WriteU8(q.LH2&0x0F | (q.HL2&0x0F)<<4)
	dst.WriteU8(q.HH2&0x0F | (q.LH1&0x0F)<<4)
	dst.WriteU8(q.HL1&0x0F | (q.HH1&0x0F)<<4)
}

func decodeQuant(src *cursor.Reader) Quant {
	b0, b1, b2, b3, b4 := src.ReadU8(), src.ReadU8(), src.ReadU8(), src.ReadU8(), src.ReadU8()
	return Quant{
		LL3: b0 & 0x0F, LH3: (b0 >> 4) & 0x0F,
		HL3: b1 & 0x0F, HH3: (b1 >> 4) & 0x0F,
		LH2: b2 & 0x0F, HL2: (b2 >> 4) & 0x0F,
		HH2: b3 & 0x0F, LH1: (b3 >> 4) & 0x0F,
		HL1: b4 & 0x0F, HH1: (b4 >> 4) & 0x0F,
	}
}

// TileData is one TS_RFX_TILE (MS-RDPRFX 2.2.2.2.7.1.1): the compressed Y,
// Cb, Cr subband payloads for one 64x64 tile at (XIdx, YIdx) (multiply by
// TileSize for the pixel origin), indexing into the TileSet's Quant table.
type TileData struct {
	QuantIdxY, QuantIdxCb, QuantIdxCr uint8
	XIdx, YIdx                        uint16
	YData, CbData, CrData             []byte
}

const tileFixedSize = blockHeaderSize + 3 + 2 + 2 + 2 + 2 + 2

func (t *TileData) size() int {
	return tileFixedSize + len(t.YData) + len(t.CbData) + len(t.CrData)
}

func (t *TileData) encode(dst *cursor.Writer) error {
	n := t.size()
	if err := pdu.EnsureSize(BlockTypeTileName, dst, n); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeTile, n)
	dst.WriteU8(t.QuantIdxY)
	dst.WriteU8(t.QuantIdxCb)
	dst.WriteU8(t.QuantIdxCr)
	dst.WriteU16LE(t.XIdx)
	dst.WriteU16LE(t.YIdx)
	dst.WriteU16LE(uint16(len(t.YData)))
	dst.WriteU16LE(uint16(len(t.CbData)))
	dst.WriteU16LE(uint16(len(t.CrData)))
	dst.WriteSlice(t.YData)
	dst.WriteSlice(t.CbData)
	dst.WriteSlice(t.CrData)
	return nil
}

// BlockTypeTileName names the tile block for error reporting.
const BlockTypeTileName = "RfxTile"

func decodeTileData(src *cursor.Reader) (*TileData, error) {
	blockLen, err := readBlockHeader(BlockTypeTileName, src, BlockTypeTile)
	if err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(BlockTypeTileName, src, 13) ; err != nil {
		return nil, err
	}
	t := &TileData{
		QuantIdxY:  src.ReadU8(),
		QuantIdxCb: src.ReadU8(),
		QuantIdxCr: src.ReadU8(),
		XIdx:       src.ReadU16LE(),
		YIdx:       src.ReadU16LE(),
	}
	yLen := int(src.ReadU16LE())
	cbLen := int(src.ReadU16LE())
	crLen := int(src.ReadU16LE())
	consumed := blockHeaderSize + 13
	if consumed+yLen+cbLen+crLen != blockLen {
		return nil, &pdu.CrossFieldMismatchError{PDU: BlockTypeTileName, Fields: []string{"yLen", "cbLen", "crLen", "blockLen"}, Reason: "component lengths don't sum to block length"}
	}
	var derr error
	if t.YData, derr = src.TryReadSlice(yLen); derr != nil {
		return nil, derr
	}
	if t.CbData, derr = src.TryReadSlice(cbLen); derr != nil {
		return nil, derr
	}
	if t.CrData, derr = src.TryReadSlice(crLen); derr != nil {
		return nil, derr
	}
	return t, nil
}

// TileSet is TS_RFX_TILESET (MS-RDPRFX 2.2.2.2.7): the quantization table
// catalogue plus the compressed tiles it indexes. Entropy, transform, and
// color-conversion fields are fixed to this module's constants rather
// than re-negotiated per TileSet.
type TileSet struct {
	Entropy Entropy
	Quants  []Quant
	Tiles   []*TileData
}

const tileSetName = "RfxTileSet"
const tileSetFixedSize = blockHeaderSize + 2 + 2 + 2 + 1 + 1 + 2 + 4

func (t *TileSet) Name() string { return tileSetName }

func (t *TileSet) Size() int {
	n := tileSetFixedSize + quantSize*len(t.Quants)
	for _, tile := range t.Tiles {
		n += tile.size()
	}
	return n
}

func (t *TileSet) Encode(dst *cursor.Writer) error {
	if !t.Entropy.valid() {
		return &pdu.InvalidFieldError{PDU: tileSetName, Field: "entropy", Reason: "must be RLGR1 or RLGR3"}
	}
	if len(t.Quants) == 0 {
		return &pdu.InvalidFieldError{PDU: tileSetName, Field: "quants", Reason: "at least one quantization table is required"}
	}
	total := t.Size()
	if err := pdu.EnsureSize(tileSetName, dst, total); err != nil {
		return err
	}
	writeBlockHeader(dst, BlockTypeTileSet, total)
	dst.WriteU16LE(0x0001)            // subtype: TS_RFX_SUBTYPE_TILESET
	dst.WriteU16LE(0)                 // idx, reserved
	dst.WriteU16LE(uint16(ColorConvICT)<<8 | uint16(TransformDWT53A)<<4 | uint16(t.Entropy))
	dst.WriteU8(uint8(len(t.Quants)))
	dst.WriteU8(uint8(TileSize))
	dst.WriteU16LE(uint16(len(t.Tiles)))
	tileDataSize := total - tileSetFixedSize - quantSize*len(t.Quants)
	dst.WriteU32LE(uint32(tileDataSize))
	for _, q := range t.Quants {
		q.encode(dst)
	}
	for _, tile := range t.Tiles {
		if err := tile.encode(dst); err != nil {
			return err
		}
	}
	return nil
}

func DecodeTileSet(src *cursor.Reader) (*TileSet, error) {
	blockLen, err := readBlockHeader(tileSetName, src, BlockTypeTileSet)
	if err != nil {
		return nil, err
	}
	if err := pdu.EnsureFixedPartSize(tileSetName, src, tileSetFixedSize-blockHeaderSize); err != nil {
		return nil, err
	}
	src.ReadU16LE() // subtype
	src.ReadU16LE() // idx
	flags := src.ReadU16LE()
	numQuant := int(src.ReadU8())
	tileSize := src.ReadU8()
	if tileSize != TileSize {
		return nil, &pdu.InvalidFieldError{PDU: tileSetName, Field: "tileSize", Reason: "must be 64"}
	}
	numTiles := int(src.ReadU16LE())
	src.ReadU32LE() // tileDataSize, recomputed on encode

	out := &TileSet{Entropy: Entropy(flags & 0x0F)}
	if !out.Entropy.valid() {
		return nil, &pdu.InvalidFieldError{PDU: tileSetName, Field: "entropy", Reason: "unsupported entropy algorithm"}
	}
	for i := 0; i < numQuant; i++ {
		if err := pdu.EnsureFixedPartSize(tileSetName, src, quantSize); err != nil {
			return nil, err
		}
		out.Quants = append(out.Quants, decodeQuant(src))
	}
	for i := 0; i < numTiles && !src.Eof(); i++ {
		tile, err := decodeTileData(src)
		if err != nil {
			return nil, err
		}
		out.Tiles = append(out.Tiles, tile)
	}
	_ = blockLen
	return out, nil
}
