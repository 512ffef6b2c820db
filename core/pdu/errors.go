// Package pdu defines the uniform encode/decode contract every wire
// structure in this module obeys, plus its error taxonomy.
package pdu

import "fmt"

// ShortReadError mirrors cursor.NotEnoughBytesError but carries the name of
// the PDU that triggered it, for diagnostics.
type ShortReadError struct {
	PDU      string
	Received int
	Expected int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("%s: short read: received %d bytes, expected %d", e.PDU, e.Received, e.Expected)
}

// InvalidFieldError reports a field whose decoded value violates an
// enumerated set, a range constraint, or a cross-field invariant.
type InvalidFieldError struct {
	PDU    string
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.PDU, e.Field, e.Reason)
}

// UnexpectedMagicError reports a fixed signature/magic value that did not
// match what the wire format requires.
type UnexpectedMagicError struct {
	PDU      string
	Field    string
	Got      uint64
	Expected uint64
}

func (e *UnexpectedMagicError) Error() string {
	return fmt.Sprintf("%s.%s: unexpected magic 0x%X, expected 0x%X", e.PDU, e.Field, e.Got, e.Expected)
}

// InvalidMessageError reports a structural violation not tied to a single
// field, such as a strict-length sub-cursor left with residual bytes.
type InvalidMessageError struct {
	PDU     string
	Context string
	Reason  string
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.PDU, e.Context, e.Reason)
}

// CrossFieldMismatchError reports two fields whose values are individually
// valid but jointly inconsistent (e.g. a declared length that disagrees
// with the bytes actually present).
type CrossFieldMismatchError struct {
	PDU    string
	Fields []string
	Reason string
}

func (e *CrossFieldMismatchError) Error() string {
	return fmt.Sprintf("%s: cross-field mismatch between %v: %s", e.PDU, e.Fields, e.Reason)
}

// UnsupportedError reports a value that is well-formed but not handled by
// this implementation.
type UnsupportedError struct {
	PDU  string
	What string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s: unsupported: %s", e.PDU, e.What)
}

// CastOverflowError reports a numeric narrowing (e.g. usize -> u16) that
// would lose information.
type CastOverflowError struct {
	PDU   string
	Field string
	Value int64
}

func (e *CastOverflowError) Error() string {
	return fmt.Sprintf("%s.%s: value %d overflows target type", e.PDU, e.Field, e.Value)
}
