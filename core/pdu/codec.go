package pdu

import "github.com/rcarmo/go-rdp/core/cursor"

// Codec is the contract every PDU value in the catalogue satisfies. Decode
// is deliberately not part of the interface: Go has no "construct Self"
// method on an interface without generics, so by convention each PDU type
// exposes a package-level Decode<Name> function instead (mirroring how the
// teacher pairs a Serialize method with a free New/parse function).
type Codec interface {
	// Name is the PDU's diagnostic name, used in error messages.
	Name() string
	// Size is the total encoded size in bytes, including variable tails.
	Size() int
	// Encode writes exactly Size() bytes to dst.
	Encode(dst *cursor.Writer) error
}

// EnsureFixedPartSize is the mandatory first call of every Decode function:
// it verifies the fixed-size prefix is present before any field is read.
func EnsureFixedPartSize(name string, src *cursor.Reader, fixed int) error {
	if err := src.Ensure(fixed); err != nil {
		var nb *cursor.NotEnoughBytesError
		if ok := asNotEnoughBytes(err, &nb); ok {
			return &ShortReadError{PDU: name, Received: nb.Received, Expected: nb.Expected}
		}
		return err
	}
	return nil
}

// EnsureSize is the mandatory first call of every Encode method: it
// verifies the destination has room for the whole structure.
func EnsureSize(name string, dst *cursor.Writer, size int) error {
	if err := dst.Ensure(size); err != nil {
		var nb *cursor.NotEnoughBytesError
		if ok := asNotEnoughBytes(err, &nb); ok {
			return &ShortReadError{PDU: name, Received: nb.Received, Expected: nb.Expected}
		}
		return err
	}
	return nil
}

func asNotEnoughBytes(err error, target **cursor.NotEnoughBytesError) bool {
	nb, ok := err.(*cursor.NotEnoughBytesError)
	if ok {
		*target = nb
	}
	return ok
}

// EncodedSize returns c.Size() for any Codec; a small helper used where a
// length prefix must be computed before recursing into Encode.
func EncodedSize(c Codec) int { return c.Size() }
