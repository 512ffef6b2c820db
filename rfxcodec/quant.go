package rfxcodec

import "github.com/rcarmo/go-rdp/protocol/rfx"

const (
	sizeL1 = 32 * 32
	sizeL2 = 16 * 16
	sizeL3 = 8 * 8
)

// dequantize restores each subband's coefficient magnitude by shifting
// left (quant-1) bits (MS-RDPRFX 3.1.8.1.6); a quant value of 0 or 1
// leaves the subband unshifted.
func dequantize(buffer []int16, q rfx.Quant) {
	dequantBlock(buffer[offHL1:offHL1+sizeL1], q.HL1)
	dequantBlock(buffer[offLH1:offLH1+sizeL1], q.LH1)
	dequantBlock(buffer[offHH1:offHH1+sizeL1], q.HH1)
	dequantBlock(buffer[offHL2:offHL2+sizeL2], q.HL2)
	dequantBlock(buffer[offLH2:offLH2+sizeL2], q.LH2)
	dequantBlock(buffer[offHH2:offHH2+sizeL2], q.HH2)
	dequantBlock(buffer[offHL3:offHL3+sizeL3], q.HL3)
	dequantBlock(buffer[offLH3:offLH3+sizeL3], q.LH3)
	dequantBlock(buffer[offHH3:offHH3+sizeL3], q.HH3)
	dequantBlock(buffer[offLL3:offLL3+sizeL3], q.LL3)
}

func dequantBlock(data []int16, quant uint8) {
	if quant <= 1 {
		return
	}
	shift := quant - 1
	for i := range data {
		data[i] <<= shift
	}
}
