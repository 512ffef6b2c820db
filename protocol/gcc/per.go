package gcc

import (
	"github.com/rcarmo/go-rdp/core/cursor"
	"github.com/rcarmo/go-rdp/core/pdu"
)

// t124_02_98_oid is the ITU-T T.124 (02/98) object identifier GCC requires
// in every Conference-Create-Request/Response.
var t124_02_98_oid = [6]byte{0, 0, 20, 124, 0, 1}

const (
	h221CSKey = "Duca"
	h221SCKey = "McDn"
)

func perWriteChoice(dst *cursor.Writer, v byte) { dst.WriteU8(v) }

func perReadChoice(name string, src *cursor.Reader) (byte, error) {
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return 0, err
	}
	return src.ReadU8(), nil
}

func perWriteLength(dst *cursor.Writer, length uint16) {
	if length > 0x7F {
		dst.WriteU16BE(length | 0x8000)
		return
	}
	dst.WriteU8(byte(length))
}

func perReadLength(name string, src *cursor.Reader) (uint16, error) {
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return 0, err
	}
	b0 := src.PeekU8()
	if b0&0x80 == 0 {
		return uint16(src.ReadU8()), nil
	}
	if err := pdu.EnsureFixedPartSize(name, src, 2); err != nil {
		return 0, err
	}
	return src.ReadU16BE() & 0x7FFF, nil
}

func perWriteSelection(dst *cursor.Writer, v byte) { dst.WriteU8(v) }

func perReadSelection(name string, src *cursor.Reader) (byte, error) {
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return 0, err
	}
	return src.ReadU8(), nil
}

// perWriteObjectIdentifier writes a 6-component GCC object identifier as
// 5 bytes: the first two components share one byte (high and low nibble),
// the remaining four take one byte each.
func perWriteObjectIdentifier(dst *cursor.Writer, oid [6]byte) {
	dst.WriteU8(oid[0]<<4 | oid[1])
	dst.WriteU8(oid[2])
	dst.WriteU8(oid[3])
	dst.WriteU8(oid[4])
	dst.WriteU8(oid[5])
}

func perReadObjectIdentifier(name string, src *cursor.Reader, expected [6]byte) error {
	if err := pdu.EnsureFixedPartSize(name, src, 5); err != nil {
		return err
	}
	b0 := src.ReadU8()
	_ = src.ReadU8()
	_ = src.ReadU8()
	_ = src.ReadU8()
	_ = src.ReadU8()
	if b0 != expected[0]<<4|expected[1] {
		return &pdu.InvalidFieldError{PDU: name, Field: "objectIdentifier", Reason: "does not match T.124 (02/98)"}
	}
	return nil
}

func perWriteNumericString(dst *cursor.Writer, s string, minLen int) {
	for len(s) < minLen {
		s += "0"
	}
	for i := 0; i < len(s); i += 2 {
		c1 := numericStringDigit(s[i])
		var c2 byte
		if i+1 < len(s) {
			c2 = numericStringDigit(s[i+1])
		}
		dst.WriteU8(c1<<4 | c2)
	}
}

func numericStringDigit(c byte) byte {
	if c >= '0' && c <= '9' {
		return c - '0' + 1
	}
	return 0
}

func perWritePadding(dst *cursor.Writer, n int) {
	for i := 0; i < n; i++ {
		dst.WriteU8(0)
	}
}

func perWriteNumberOfSet(dst *cursor.Writer, n byte) { dst.WriteU8(n) }

func perReadNumberOfSet(name string, src *cursor.Reader) (byte, error) {
	if err := pdu.EnsureFixedPartSize(name, src, 1); err != nil {
		return 0, err
	}
	return src.ReadU8(), nil
}

func perWriteOctetStream(dst *cursor.Writer, s string, minLen int) {
	dst.WriteSlice([]byte(s))
	for i := len(s); i < minLen; i++ {
		dst.WriteU8(0)
	}
}

func perReadOctetStream(name string, src *cursor.Reader, expected string, minLen int) error {
	n := minLen
	if len(expected) > n {
		n = len(expected)
	}
	got, err := src.TryReadSlice(n)
	if err != nil {
		return err
	}
	if string(got[:len(expected)]) != expected {
		return &pdu.InvalidFieldError{PDU: name, Field: "octetStream", Reason: "H.221 key mismatch"}
	}
	return nil
}
