package rfxcodec

// Inverse 2D DWT reconstruction using the 5/3 LeGall wavelet
// (MS-RDPRFX 3.1.8.1.5), three levels deep. Coefficients are stored in
// the packed subband layout FreeRDP uses:
// HL1/LH1/HH1 at 32x32, HL2/LH2/HH2 at 16x16, HL3/LH3/HH3/LL3 at 8x8,
// packed into one 4096-int16 buffer.
const (
	offHL1, offLH1, offHH1 = 0, 1024, 2048
	offHL2, offLH2, offHH2 = 3072, 3328, 3584
	offHL3, offLH3, offHH3, offLL3 = 3840, 3904, 3968, 4032
)

// inverseDWT reconstructs the spatial-domain 64x64 plane from its packed
// subband coefficients, in place.
func inverseDWT(buffer []int16) {
	var temp [tilePixels]int16
	idwtLevel(buffer, temp[:], offHL3, 8)
	idwtLevel(buffer, temp[:], offHL2, 16)
	idwtLevel(buffer, temp[:], offHL1, 32)
}

// idwtLevel reconstructs one DWT level: the HL/LH/HH/LL quadrant starting
// at offset (each size*size) becomes a (2*size)x(2*size) region written
// back at offset.
func idwtLevel(buffer, temp []int16, offset, size int) {
	size2 := size * size
	hl, lh, hh, ll := offset, offset+size2, offset+2*size2, offset+3*size2
	total := size * 2

	lDst, hDst := 0, total*size
	for y := 0; y < size; y++ {
		idwtRow(buffer[ll+y*size:], buffer[hl+y*size:], temp[lDst:], size)
		lDst += total
		idwtRow(buffer[lh+y*size:], buffer[hh+y*size:], temp[hDst:], size)
		hDst += total
	}

	lSrc, hSrc := 0, total*size
	for x := 0; x < total; x++ {
		idwtCol(temp, lSrc+x, hSrc+x, buffer, offset+x, total, size)
	}
}

// idwtRow applies the 5/3 LeGall inverse lifting step horizontally: low
// and high each hold halfSize coefficients, dst receives the 2*halfSize
// reconstructed row.
func idwtRow(low, high, dst []int16, halfSize int) {
	dst[0] = low[0] - ((high[0] + high[0] + 1) >> 1)
	for n := 1; n < halfSize; n++ {
		dst[n*2] = low[n] - ((high[n-1] + high[n] + 1) >> 1)
	}
	for n := 0; n < halfSize-1; n++ {
		dst[n*2+1] = (high[n] << 1) + ((dst[n*2] + dst[n*2+2]) >> 1)
	}
	last := halfSize - 1
	dst[last*2+1] = (high[last] << 1) + ((dst[last*2] + dst[last*2]) >> 1)
}

// idwtCol is idwtRow's vertical counterpart, operating on a column of
// stride-separated samples within a shared buffer.
func idwtCol(src []int16, lOff, hOff int, dst []int16, dstOff, stride, halfSize int) {
	l0, h0 := src[lOff], src[hOff]
	dst[dstOff] = l0 - ((h0 + h0 + 1) >> 1)
	for n := 1; n < halfSize; n++ {
		ln := src[lOff+n*stride]
		hPrev := src[hOff+(n-1)*stride]
		hn := src[hOff+n*stride]
		dst[dstOff+n*2*stride] = ln - ((hPrev + hn + 1) >> 1)
	}
	for n := 0; n < halfSize-1; n++ {
		hn := src[hOff+n*stride]
		en := dst[dstOff+n*2*stride]
		enNext := dst[dstOff+(n*2+2)*stride]
		dst[dstOff+(n*2+1)*stride] = (hn << 1) + ((en + enNext) >> 1)
	}
	last := halfSize - 1
	hn := src[hOff+last*stride]
	en := dst[dstOff+last*2*stride]
	dst[dstOff+(last*2+1)*stride] = (hn << 1) + ((en + en) >> 1)
}

// undifferentiateLL3 reverses the LL3 (DC) subband's running-difference
// encoding (MS-RDPRFX 3.1.8.1.4): each coefficient is coded as the delta
// from its predecessor.
func undifferentiateLL3(buffer []int16) {
	for i := offLL3 + 1; i < offLL3+64; i++ {
		buffer[i] += buffer[i-1]
	}
}
