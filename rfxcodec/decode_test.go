package rfxcodec

import (
	"testing"

	"github.com/rcarmo/go-rdp/protocol/rfx"
)

func TestDecodeTileEmptyPayloadIsFlatBlack(t *testing.T) {
	tile := &rfx.TileData{
		QuantIdxY: 0, QuantIdxCb: 0, QuantIdxCr: 0,
		XIdx: 1, YIdx: 2,
	}
	quants := []rfx.Quant{rfx.DefaultQuant()}

	rgba, err := DecodeTile(tile, quants, rfx.EntropyRLGR3)
	if err != nil {
		t.Fatalf("DecodeTile: %v", err)
	}
	if len(rgba) != TileRGBASize {
		t.Fatalf("len(rgba) = %d, want %d", len(rgba), TileRGBASize)
	}
	for i := 0; i < TileRGBASize; i += 4 {
		if rgba[i] != 0 || rgba[i+1] != 0 || rgba[i+2] != 0 || rgba[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque black", i/4, rgba[i:i+4])
		}
	}
}

func TestDecodeTileRejectsOutOfRangeQuantIndex(t *testing.T) {
	tile := &rfx.TileData{QuantIdxY: 5, QuantIdxCb: 0, QuantIdxCr: 0}
	quants := []rfx.Quant{rfx.DefaultQuant()}

	if _, err := DecodeTile(tile, quants, rfx.EntropyRLGR1); err == nil {
		t.Fatal("expected an error for an out-of-range quant index")
	}
}

func TestDequantizeLeavesSubbandUnshiftedBelowThreshold(t *testing.T) {
	buf := make([]int16, tilePixels)
	buf[offLL3] = 7
	dequantize(buf, rfx.Quant{LL3: 1})
	if buf[offLL3] != 7 {
		t.Fatalf("quant=1 should not shift, got %d", buf[offLL3])
	}

	buf[offLL3] = 7
	dequantize(buf, rfx.Quant{LL3: 3})
	if buf[offLL3] != 7<<2 {
		t.Fatalf("quant=3 should shift left by 2, got %d", buf[offLL3])
	}
}

func TestUndifferentiateLL3AccumulatesRunningSum(t *testing.T) {
	var buf [tilePixels]int16
	buf[offLL3+0] = 2
	buf[offLL3+1] = 3
	buf[offLL3+2] = -1
	undifferentiateLL3(buf[:])
	if buf[offLL3+0] != 2 || buf[offLL3+1] != 5 || buf[offLL3+2] != 4 {
		t.Fatalf("got %v, want running sum [2 5 4]", buf[offLL3:offLL3+3])
	}
}
