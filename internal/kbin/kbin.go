// Package kbin implements the primitive encodings of the Kafka wire
// protocol: fixed-width integers, length-prefixed strings and byte arrays,
// and count-prefixed arrays. It mirrors the Writer/Reader split used by the
// franz-go family's kbin package, trimmed to the primitives this client
// actually needs.
package kbin

import (
	"encoding/binary"
	"errors"

	"github.com/grafana/zkless-kafka/internal/int64x"
)

// ErrNotEnoughData is the sticky error a Reader accumulates once it tries
// to read past the end of its buffer.
var ErrNotEnoughData = errors.New("kbin: response did not contain enough data to be valid")

// Writer accumulates an encoded Kafka request body.
type Writer struct {
	buf []byte
}

// AppendTo grows dst with any bytes already accumulated and returns it.
// Most callers instead just call Bytes once they're done appending.
func (w *Writer) AppendTo(dst []byte) []byte { return append(dst, w.buf...) }

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Int8 appends a single signed byte.
func (w *Writer) Int8(v int8) { w.buf = append(w.buf, byte(v)) }

// Int16 appends a big-endian signed 16-bit integer.
func (w *Writer) Int16(v int16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], uint16(v))
	w.buf = append(w.buf, b[:]...)
}

// Int32 appends a big-endian signed 32-bit integer.
func (w *Writer) Int32(v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	w.buf = append(w.buf, b[:]...)
}

// Int64 appends a big-endian signed 64-bit integer.
func (w *Writer) Int64(v int64) {
	w.buf = int64x.Pack(w.buf, v)
}

// ArrayLen appends the int32 element count used to prefix Kafka arrays.
func (w *Writer) ArrayLen(n int) { w.Int32(int32(n)) }

// String appends a non-nullable string: an int16 byte length followed by
// the UTF-8 bytes.
func (w *Writer) String(s string) {
	w.Int16(int16(len(s)))
	w.buf = append(w.buf, s...)
}

// NullableString appends a string that may be absent, encoded as an int16
// length of -1 when s is nil.
func (w *Writer) NullableString(s *string) {
	if s == nil {
		w.Int16(-1)
		return
	}
	w.String(*s)
}

// Bytes appends a nullable byte array: an int32 byte length (-1 for nil)
// followed by the raw bytes.
func (w *Writer) Bytes(b []byte) {
	if b == nil {
		w.Int32(-1)
		return
	}
	w.Int32(int32(len(b)))
	w.buf = append(w.buf, b...)
}

// RawBytes appends b with no length prefix, for callers that have already
// written their own length (e.g. a MessageSet's enclosing byte-array).
func (w *Writer) RawBytes(b []byte) { w.buf = append(w.buf, b...) }

// Reader consumes a Kafka response body left to right, accumulating a
// sticky error: once any read fails, every subsequent read returns the
// zero value and Err keeps returning the first failure.
type Reader struct {
	buf []byte
	err error
}

// NewReader wraps buf for reading.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }

// Complete returns a non-nil error if the reader has leftover bytes after
// the caller believes it is done, or if a prior read already failed.
// Mirrors kbin.Reader's Complete method, used at the end of every response
// decode to catch both truncated and over-long bodies.
func (r *Reader) Complete() error {
	if r.err != nil {
		return r.err
	}
	if len(r.buf) > 0 {
		return errors.New("kbin: unexpected trailing bytes in response body")
	}
	return nil
}

func (r *Reader) fail() {
	if r.err == nil {
		r.err = ErrNotEnoughData
	}
}

// Int8 reads a single signed byte.
func (r *Reader) Int8() int8 {
	if r.err != nil || len(r.buf) < 1 {
		r.fail()
		return 0
	}
	v := int8(r.buf[0])
	r.buf = r.buf[1:]
	return v
}

// Int16 reads a big-endian signed 16-bit integer.
func (r *Reader) Int16() int16 {
	if r.err != nil || len(r.buf) < 2 {
		r.fail()
		return 0
	}
	v := int16(binary.BigEndian.Uint16(r.buf))
	r.buf = r.buf[2:]
	return v
}

// Int32 reads a big-endian signed 32-bit integer.
func (r *Reader) Int32() int32 {
	if r.err != nil || len(r.buf) < 4 {
		r.fail()
		return 0
	}
	v := int32(binary.BigEndian.Uint32(r.buf))
	r.buf = r.buf[4:]
	return v
}

// Int64 reads a big-endian signed 64-bit integer.
func (r *Reader) Int64() int64 {
	if r.err != nil || len(r.buf) < int64x.Size {
		r.fail()
		return 0
	}
	v := int64x.Unpack(r.buf)
	r.buf = r.buf[int64x.Size:]
	return v
}

// ArrayLen reads the int32 element count that prefixes a Kafka array. A
// negative count is treated as zero, matching brokers that send -1 for an
// absent array.
func (r *Reader) ArrayLen() int {
	n := r.Int32()
	if n < 0 {
		return 0
	}
	return int(n)
}

// String reads a non-nullable string.
func (r *Reader) String() string {
	n := r.Int16()
	if r.err != nil || n < 0 {
		r.fail()
		return ""
	}
	if len(r.buf) < int(n) {
		r.fail()
		return ""
	}
	s := string(r.buf[:n])
	r.buf = r.buf[n:]
	return s
}

// NullableString reads a string that may be absent (length -1).
func (r *Reader) NullableString() *string {
	n := r.Int16()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		return nil
	}
	if len(r.buf) < int(n) {
		r.fail()
		return nil
	}
	s := string(r.buf[:n])
	r.buf = r.buf[n:]
	return &s
}

// Bytes reads a nullable byte array, returning nil for a -1 length.
func (r *Reader) Bytes() []byte {
	n := r.Int32()
	if r.err != nil {
		return nil
	}
	if n < 0 {
		return nil
	}
	if len(r.buf) < int(n) {
		r.fail()
		return nil
	}
	b := r.buf[:n:n]
	r.buf = r.buf[n:]
	return b
}

// Span slices off and returns the next n raw bytes without interpretation,
// used by callers decoding a length-prefixed region (such as a
// MessageSet) that they will hand to a nested decoder.
func (r *Reader) Span(n int) []byte {
	if r.err != nil || n < 0 || len(r.buf) < n {
		r.fail()
		return nil
	}
	b := r.buf[:n:n]
	r.buf = r.buf[n:]
	return b
}

// Remaining returns the number of unread bytes left in the buffer.
func (r *Reader) Remaining() int { return len(r.buf) }
