package rfxcodec

import (
	"github.com/rcarmo/go-rdp/core/pdu"
	"github.com/rcarmo/go-rdp/protocol/rfx"
)

// TileRGBASize is the byte length of one decoded tile's RGBA pixels
// (64x64x4).
const TileRGBASize = tilePixels * 4

const decodeTileName = "RfxTilePixels"

// DecodeTile reconstructs one tile's RGBA pixels from its compressed Y/Cb/Cr
// subband payloads, looking up the quantization table the tile's
// QuantIdx{Y,Cb,Cr} fields index into. The returned buffer is TileRGBASize
// bytes, row-major, top-left origin; the caller positions it at
// (tile.XIdx, tile.YIdx) * rfx.TileSize in the destination surface.
func DecodeTile(tile *rfx.TileData, quants []rfx.Quant, entropy rfx.Entropy) ([]byte, error) {
	quantY, err := lookupQuant(quants, tile.QuantIdxY)
	if err != nil {
		return nil, err
	}
	quantCb, err := lookupQuant(quants, tile.QuantIdxCb)
	if err != nil {
		return nil, err
	}
	quantCr, err := lookupQuant(quants, tile.QuantIdxCr)
	if err != nil {
		return nil, err
	}

	mode := rlgr3
	if entropy == rfx.EntropyRLGR1 {
		mode = rlgr1
	}

	var yCoeff, cbCoeff, crCoeff [tilePixels]int16
	if err := decodeRLGR(tile.YData, mode, yCoeff[:]); err != nil {
		return nil, err
	}
	if err := decodeRLGR(tile.CbData, mode, cbCoeff[:]); err != nil {
		return nil, err
	}
	if err := decodeRLGR(tile.CrData, mode, crCoeff[:]); err != nil {
		return nil, err
	}

	undifferentiateLL3(yCoeff[:])
	undifferentiateLL3(cbCoeff[:])
	undifferentiateLL3(crCoeff[:])

	dequantize(yCoeff[:], quantY)
	dequantize(cbCoeff[:], quantCb)
	dequantize(crCoeff[:], quantCr)

	inverseDWT(yCoeff[:])
	inverseDWT(cbCoeff[:])
	inverseDWT(crCoeff[:])

	rgba := make([]byte, TileRGBASize)
	ycbcrToRGBA(yCoeff[:], cbCoeff[:], crCoeff[:], rgba)
	return rgba, nil
}

func lookupQuant(quants []rfx.Quant, idx uint8) (rfx.Quant, error) {
	if int(idx) >= len(quants) {
		return rfx.Quant{}, &pdu.InvalidFieldError{PDU: decodeTileName, Field: "quantIdx", Reason: "index out of range of the TileSet's quantization table"}
	}
	return quants[idx], nil
}
