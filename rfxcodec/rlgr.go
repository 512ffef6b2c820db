package rfxcodec

import "github.com/rcarmo/go-rdp/core/pdu"

// Entropy modes (MS-RDPRFX 3.1.8.1.7): RLGR1 codes one value at a time
// with an interleaved sign bit, RLGR3 codes values in pairs sharing one
// Golomb-Rice code; DecodeTile uses the TileSet's one mode for Y, Cb and Cr.
const (
	rlgr1 = 1
	rlgr3 = 3
)

// Adaptive Golomb-Rice parameter tuning constants (MS-RDPRFX 3.1.8.1.7.1).
const (
	kpMax = 80
	lsgr  = 3
	upGR  = 4
	dnGR  = 6
	uqGR  = 3
	dqGR  = 3
)

const tilePixels = 64 * 64

const decodeRLGRName = "RfxRLGR"

// decodeRLGR decodes one subband-ordered 4096-coefficient plane from an
// RLGR-coded byte stream; mode selects RLGR1 or RLGR3 coding.
func decodeRLGR(data []byte, mode int, output []int16) error {
	for i := range output {
		output[i] = 0
	}
	if len(data) == 0 {
		return nil
	}

	br := newBitReader(data)
	k := uint32(1)
	kp := uint32(8)
	kr := uint32(1)
	krp := uint32(8)

	idx := 0
	for idx < tilePixels && br.remainingBits() > 0 {
		if k != 0 {
			n := br.countLeadingZeros()
			if br.remainingBits() == 0 {
				return &pdu.InvalidFieldError{PDU: decodeRLGRName, Field: "run", Reason: "truncated run-length prefix"}
			}
			runLength := 0
			for i := 0; i < n; i++ {
				runLength += 1 << k
				kp = clampUp(kp+upGR, kpMax)
				k = kp >> lsgr
			}
			if k > 0 && br.remainingBits() >= int(k) {
				runLength += int(br.readBits(int(k)))
			}
			for i := 0; i < runLength && idx < tilePixels; i++ {
				output[idx] = 0
				idx++
			}
			if idx >= tilePixels {
				break
			}
			if br.remainingBits() == 0 {
				return &pdu.InvalidFieldError{PDU: decodeRLGRName, Field: "sign", Reason: "truncated sign bit"}
			}
			sign := br.readBit()
			ones := br.countLeadingOnes()
			mag := uint32(0)
			if kr > 0 && br.remainingBits() >= int(kr) {
				mag = br.readBits(int(kr))
			}
			mag |= uint32(ones) << kr
			kr, krp = updateKr(ones, kr, krp)
			kp = clampDown(kp, dnGR)
			k = kp >> lsgr

			value := int16(mag + 1)
			if sign != 0 {
				value = -value
			}
			output[idx] = value
			idx++
			continue
		}

		if mode == rlgr1 {
			ones := br.countLeadingOnes()
			if br.remainingBits() == 0 && ones == 0 {
				return &pdu.InvalidFieldError{PDU: decodeRLGRName, Field: "magnitude", Reason: "truncated RLGR1 code"}
			}
			mag := uint32(0)
			if kr > 0 && br.remainingBits() >= int(kr) {
				mag = br.readBits(int(kr))
			}
			mag |= uint32(ones) << kr
			kr, krp = updateKr(ones, kr, krp)

			var value int16
			if mag == 0 {
				kp = clampUp(kp+uqGR, kpMax)
			} else {
				if mag&1 != 0 {
					value = -int16((mag + 1) >> 1)
				} else {
					value = int16(mag >> 1)
				}
				kp = clampDown(kp, dqGR)
			}
			k = kp >> lsgr
			output[idx] = value
			idx++
			continue
		}

		// RLGR3: one Golomb-Rice code carries a pair of values.
		ones := br.countLeadingOnes()
		if br.remainingBits() == 0 && ones == 0 {
			return &pdu.InvalidFieldError{PDU: decodeRLGRName, Field: "pair", Reason: "truncated RLGR3 code"}
		}
		code := uint32(0)
		if kr > 0 && br.remainingBits() >= int(kr) {
			code = br.readBits(int(kr))
		}
		code |= uint32(ones) << kr
		kr, krp = updateKr(ones, kr, krp)

		bitsNeeded := 0
		for t := code; t > 0; t >>= 1 {
			bitsNeeded++
		}
		var v1, v2 uint32
		if bitsNeeded > 0 {
			if br.remainingBits() < bitsNeeded {
				return &pdu.InvalidFieldError{PDU: decodeRLGRName, Field: "pair", Reason: "truncated RLGR3 split"}
			}
			v1 = br.readBits(bitsNeeded)
		}
		v2 = code - v1

		switch {
		case v1 != 0 && v2 != 0:
			kp = clampDown(kp, 2*dqGR)
		case v1 == 0 && v2 == 0:
			kp = clampUp(kp+2*uqGR, kpMax)
		}
		k = kp >> lsgr

		output[idx] = signedFromPaired(v1)
		idx++
		if idx >= tilePixels {
			break
		}
		output[idx] = signedFromPaired(v2)
		idx++
	}
	return nil
}

func signedFromPaired(v uint32) int16 {
	if v == 0 {
		return 0
	}
	if v&1 != 0 {
		return -int16((v + 1) >> 1)
	}
	return int16(v >> 1)
}

func updateKr(ones int, kr, krp uint32) (uint32, uint32) {
	switch {
	case ones == 0:
		if krp >= 2 {
			krp -= 2
		} else {
			krp = 0
		}
	case ones > 1:
		krp = clampUp(krp+uint32(ones), kpMax)
	}
	return krp >> lsgr, krp
}

func clampUp(v, max uint32) uint32 {
	if v > max {
		return max
	}
	return v
}

func clampDown(v, dec uint32) uint32 {
	if v >= dec {
		return v - dec
	}
	return 0
}
