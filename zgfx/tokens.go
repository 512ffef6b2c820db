package zgfx

// tokenKind distinguishes the three shapes a ZGFX Huffman token can take.
type tokenKind int

const (
	kindNullLiteral tokenKind = iota
	kindLiteral
	kindMatch
)

type token struct {
	prefix string // '0'/'1' characters, MSB first
	kind   tokenKind
	value  byte   // for kindLiteral
	size   int    // for kindMatch: distance value bit-width
	base   uint32 // for kindMatch: distance base
}

func (t token) matches(r *bitReader) bool {
	n := len(t.prefix)
	if r.remaining() < n {
		return false
	}
	for i := 0; i < n; i++ {
		want := byte(0)
		if t.prefix[i] == '1' {
			want = 1
		}
		if r.peekBit(i) != want {
			return false
		}
	}
	return true
}

// tokenTable is the fixed 40-entry ZGFX Huffman prefix table (MS-RDPEGFX
// Annex; reproduced from the reference decompressor's token list). Prefix
// "0" is the null-literal escape; 5-to-8-bit prefixes under "11" cover 25
// common literal bytes; 5-to-9-bit prefixes under "10" with a trailing
// distance-value field select a match with a given base distance.
var tokenTable = []token{
	{prefix: "0", kind: kindNullLiteral},

	{prefix: "11000", kind: kindLiteral, value: 0x00},
	{prefix: "11001", kind: kindLiteral, value: 0x01},
	{prefix: "110100", kind: kindLiteral, value: 0x02},
	{prefix: "110101", kind: kindLiteral, value: 0x03},
	{prefix: "110110", kind: kindLiteral, value: 0xff},
	{prefix: "1101110", kind: kindLiteral, value: 0x04},
	{prefix: "1101111", kind: kindLiteral, value: 0x05},
	{prefix: "1110000", kind: kindLiteral, value: 0x06},
	{prefix: "1110001", kind: kindLiteral, value: 0x07},
	{prefix: "1110010", kind: kindLiteral, value: 0x08},
	{prefix: "1110011", kind: kindLiteral, value: 0x09},
	{prefix: "1110100", kind: kindLiteral, value: 0x0a},
	{prefix: "1110101", kind: kindLiteral, value: 0x0b},
	{prefix: "1110110", kind: kindLiteral, value: 0x3a},
	{prefix: "1110111", kind: kindLiteral, value: 0x3b},
	{prefix: "1111000", kind: kindLiteral, value: 0x3c},
	{prefix: "1111001", kind: kindLiteral, value: 0x3d},
	{prefix: "1111010", kind: kindLiteral, value: 0x3e},
	{prefix: "1111011", kind: kindLiteral, value: 0x3f},
	{prefix: "1111100", kind: kindLiteral, value: 0x40},
	{prefix: "1111101", kind: kindLiteral, value: 0x80},
	{prefix: "11111100", kind: kindLiteral, value: 0x0c},
	{prefix: "11111101", kind: kindLiteral, value: 0x38},
	{prefix: "11111110", kind: kindLiteral, value: 0x39},
	{prefix: "11111111", kind: kindLiteral, value: 0x66},

	{prefix: "10001", kind: kindMatch, size: 5, base: 0},
	{prefix: "10010", kind: kindMatch, size: 7, base: 32},
	{prefix: "10011", kind: kindMatch, size: 9, base: 160},
	{prefix: "10100", kind: kindMatch, size: 10, base: 672},
	{prefix: "10101", kind: kindMatch, size: 12, base: 1_696},
	{prefix: "101100", kind: kindMatch, size: 14, base: 5_792},
	{prefix: "101101", kind: kindMatch, size: 15, base: 22_176},
	{prefix: "1011100", kind: kindMatch, size: 18, base: 54_944},
	{prefix: "1011101", kind: kindMatch, size: 20, base: 317_088},
	{prefix: "10111100", kind: kindMatch, size: 20, base: 1_365_664},
	{prefix: "10111101", kind: kindMatch, size: 21, base: 2_414_240},
	{prefix: "101111100", kind: kindMatch, size: 22, base: 4_511_392},
	{prefix: "101111101", kind: kindMatch, size: 23, base: 8_705_696},
	{prefix: "101111110", kind: kindMatch, size: 24, base: 17_094_304},
}

func findToken(r *bitReader) (token, bool) {
	for _, t := range tokenTable {
		if t.matches(r) {
			return t, true
		}
	}
	return token{}, false
}
