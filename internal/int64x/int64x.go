// Package int64x packs and unpacks the signed 64-bit integers that appear
// throughout the Kafka wire protocol (offsets, timestamps, message sizes on
// some fields). Go's int64 is 64-bit on every platform the toolchain
// supports as a first-class port, so there is no big-integer fallback to
// carry the way a 32-bit-host language runtime would need.
package int64x

import "encoding/binary"

// Size is the wire width of a packed int64.
const Size = 8

// Pack appends the big-endian wire encoding of v to dst and returns the
// extended slice.
func Pack(dst []byte, v int64) []byte {
	var buf [Size]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return append(dst, buf[:]...)
}

// Unpack decodes a big-endian int64 from the first 8 bytes of src.
//
// It panics if src is shorter than Size; callers that read from
// attacker-controlled or possibly-truncated input should check len(src)
// first (internal/kbin's Reader does this via its sticky-error contract).
func Unpack(src []byte) int64 {
	return int64(binary.BigEndian.Uint64(src[:Size]))
}

// Add returns a+b. It exists so call sites that work with wire int64s read
// uniformly with Pack/Unpack rather than using raw Go operators inline;
// overflow wraps the same way native int64 arithmetic always has.
func Add(a, b int64) int64 {
	return a + b
}
