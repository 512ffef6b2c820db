package mcs

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// The MCS PDUs below are carried inside X.224 Data TPDUs ASN.1
// PER-encoded per ITU-T T.125 / MS-RDPBCGR 2.2.1.3-2.2.1.12. Only the
// subset of PER actually exercised by those PDUs is implemented here,
// mirroring the shape of the teacher's encoding helpers.

func perWriteLength(dst *cursor.Writer, length int) {
	if length <= 0x7F {
		dst.WriteU8(byte(length))
		return
	}
	dst.WriteU16BE(uint16(length) | 0x8000)
}

func perReadLength(name string, src *cursor.Reader) (int, error) {
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return 0, err
	}
	b0 := src.PeekU8()
	if b0&0x80 == 0 {
		return int(src.ReadU8()), nil
	}
	if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
		return 0, err
	}
	return int(src.ReadU16BE() & 0x7FFF), nil
}

// perWriteChoice writes a single choice-selector octet.
func perWriteChoice(dst *cursor.Writer, choice byte) { dst.WriteU8(choice) }

// perWriteSelection writes the optional-field bitmap octet used by
// Connect-Initial / Connect-Response (always zero in practice here).
func perWriteSelection(dst *cursor.Writer, bits byte) { dst.WriteU8(bits) }

// perWriteNumericString / object identifiers are not needed: this
// implementation encodes the domain parameters as fixed INTEGER fields
// per MS-RDPBCGR 2.2.1.3.2, which is all a real client/server ever sends.

func perWriteInt(dst *cursor.Writer, v uint32, minV, maxV uint32) {
	// constrained-whole-number encoding used for domain parameters: always
	// a 2-byte big-endian value; minV and maxV are not consulted.
	_ = minV
	_ = maxV
	dst.WriteU16BE(uint16(v))
}

func perReadInt(name string, src *cursor.Reader) (uint32, error) {
	if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
		return 0, err
	}
	return uint32(src.ReadU16BE()), nil
}
