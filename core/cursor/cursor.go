// Package cursor provides bounded forward read/write access over borrowed
// byte buffers. It is the basis every PDU in this module uses to decode
// and encode its wire representation.
package cursor

import (
	"encoding/binary"
	"fmt"
)

// NotEnoughBytesError indicates that a read or write could not proceed
// because the underlying buffer did not have enough room.
type NotEnoughBytesError struct {
	Received int
	Expected int
}

func (e *NotEnoughBytesError) Error() string {
	return fmt.Sprintf("not enough bytes: received %d, expected %d", e.Received, e.Expected)
}

// Reader is a cursor over a borrowed, immutable byte slice. All fixed-width
// reads are infallible once the caller has checked availability with Ensure;
// the "Try" prefixed methods perform that check themselves.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a Reader over buf starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// Eof reports whether the cursor has no bytes left to read.
func (r *Reader) Eof() bool { return r.Len() == 0 }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Inner returns the full backing slice, including already-consumed bytes.
func (r *Reader) Inner() []byte { return r.buf }

// Remaining returns the unread suffix of the backing slice.
func (r *Reader) Remaining() []byte { return r.buf[r.pos:] }

// Ensure verifies that at least n bytes remain, returning a
// NotEnoughBytesError otherwise. Every decoder must call this before any
// read whose length depends on previously-decoded fields.
func (r *Reader) Ensure(n int) error {
	if r.Len() < n {
		return &NotEnoughBytesError{Received: r.Len(), Expected: n}
	}
	return nil
}

// Advance moves the read position forward by n bytes without reading them.
func (r *Reader) Advance(n int) { r.pos += n }

// Rewind moves the read position backward by n bytes.
func (r *Reader) Rewind(n int) { r.pos -= n }

// ReadSlice returns a borrowed slice of the next n bytes and advances by n.
// Caller must have called Ensure(n) first.
func (r *Reader) ReadSlice(n int) []byte {
	s := r.buf[r.pos : r.pos+n]
	r.pos += n
	return s
}

// TryReadSlice checks availability before slicing.
func (r *Reader) TryReadSlice(n int) ([]byte, error) {
	if err := r.Ensure(n); err != nil {
		return nil, err
	}
	return r.ReadSlice(n), nil
}

// PeekSlice returns the next n bytes without advancing the cursor.
func (r *Reader) PeekSlice(n int) []byte {
	return r.buf[r.pos : r.pos+n]
}

// ReadArray copies the next n bytes into a newly-allocated array-shaped
// slice; used where the destination type is a fixed-size Go array.
func (r *Reader) ReadArray(n int) []byte {
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out
}

// Split forks the cursor at the current position into two independent
// readers: the first spans the next n bytes, the second the remainder.
// The receiver's position is advanced past both.
func (r *Reader) Split(n int) (head *Reader, tail *Reader) {
	head = &Reader{buf: r.buf[r.pos : r.pos+n]}
	tail = &Reader{buf: r.buf[r.pos+n:]}
	r.pos = len(r.buf)
	return head, tail
}

// SplitPeek is Split without advancing the receiver.
func (r *Reader) SplitPeek(n int) (head *Reader, tail *Reader) {
	head = &Reader{buf: r.buf[r.pos : r.pos+n]}
	tail = &Reader{buf: r.buf[r.pos+n:]}
	return head, tail
}

func (r *Reader) ReadU8() uint8 {
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) ReadI8() int8 { return int8(r.ReadU8()) }

func (r *Reader) ReadU16BE() uint16 {
	v := binary.BigEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) ReadU16LE() uint16 {
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v
}

func (r *Reader) ReadI16BE() int16 { return int16(r.ReadU16BE()) }
func (r *Reader) ReadI16LE() int16 { return int16(r.ReadU16LE()) }

func (r *Reader) ReadU32BE() uint32 {
	v := binary.BigEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) ReadU32LE() uint32 {
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) ReadI32BE() int32 { return int32(r.ReadU32BE()) }
func (r *Reader) ReadI32LE() int32 { return int32(r.ReadU32LE()) }

func (r *Reader) ReadU64BE() uint64 {
	v := binary.BigEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *Reader) ReadU64LE() uint64 {
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v
}

func (r *Reader) ReadI64BE() int64 { return int64(r.ReadU64BE()) }
func (r *Reader) ReadI64LE() int64 { return int64(r.ReadU64LE()) }

// PeekU8 reads the next byte without advancing the cursor.
func (r *Reader) PeekU8() uint8 { return r.buf[r.pos] }

// PeekU16BE reads the next two bytes big-endian without advancing.
func (r *Reader) PeekU16BE() uint16 { return binary.BigEndian.Uint16(r.buf[r.pos:]) }

// PeekU16LE reads the next two bytes little-endian without advancing.
func (r *Reader) PeekU16LE() uint16 { return binary.LittleEndian.Uint16(r.buf[r.pos:]) }

// Writer is a cursor over a borrowed, mutable byte slice.
type Writer struct {
	buf []byte
	pos int
}

// NewWriter creates a Writer over buf starting at offset 0.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Len returns the number of bytes of room remaining.
func (w *Writer) Len() int { return len(w.buf) - w.pos }

// Pos returns the current write offset.
func (w *Writer) Pos() int { return w.pos }

// Filled returns the slice of bytes written so far.
func (w *Writer) Filled() []byte { return w.buf[:w.pos] }

// Ensure verifies that at least n bytes of room remain.
func (w *Writer) Ensure(n int) error {
	if w.Len() < n {
		return &NotEnoughBytesError{Received: w.Len(), Expected: n}
	}
	return nil
}

func (w *Writer) WriteSlice(b []byte) {
	n := copy(w.buf[w.pos:], b)
	w.pos += n
}

func (w *Writer) WriteU8(v uint8) {
	w.buf[w.pos] = v
	w.pos++
}

func (w *Writer) WriteI8(v int8) { w.WriteU8(uint8(v)) }

func (w *Writer) WriteU16BE(v uint16) {
	binary.BigEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *Writer) WriteU16LE(v uint16) {
	binary.LittleEndian.PutUint16(w.buf[w.pos:], v)
	w.pos += 2
}

func (w *Writer) WriteI16BE(v int16) { w.WriteU16BE(uint16(v)) }
func (w *Writer) WriteI16LE(v int16) { w.WriteU16LE(uint16(v)) }

func (w *Writer) WriteU32BE(v uint32) {
	binary.BigEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *Writer) WriteU32LE(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[w.pos:], v)
	w.pos += 4
}

func (w *Writer) WriteI32BE(v int32) { w.WriteU32BE(uint32(v)) }
func (w *Writer) WriteI32LE(v int32) { w.WriteU32LE(uint32(v)) }

func (w *Writer) WriteU64BE(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
}

func (w *Writer) WriteU64LE(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[w.pos:], v)
	w.pos += 8
}

func (w *Writer) WriteI64BE(v int64) { w.WriteU64BE(uint64(v)) }
func (w *Writer) WriteI64LE(v int64) { w.WriteU64LE(uint64(v)) }
