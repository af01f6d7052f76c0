// Package kproto implements the request and response bodies of the four
// Kafka API keys this client speaks (Produce, Fetch, Offsets, Metadata)
// and the Message/MessageSet wire format they carry, built on top of
// internal/kbin's primitive codec.
package kproto

import (
	"errors"
	"hash/crc32"

	"github.com/grafana/zkless-kafka/internal/kbin"
	"github.com/grafana/zkless-kafka/internal/kcompress"
)

// Magic byte values. This client only ever emits MagicNoTimestamp; MagicTimestamp
// is accepted on decode so it can read from newer brokers without choking on
// the extra field, but CreateTime-vs-LogAppendTime semantics are left to the
// caller.
const (
	MagicNoTimestamp int8 = 0
	MagicTimestamp   int8 = 1
)

// attrCompressionMask is the low 3 bits of the attributes byte that carry
// the compression codec.
const attrCompressionMask = 0x07

// Message is one record inside a MessageSet.
type Message struct {
	// Offset is the offset on the wire. For produce requests this is
	// ignored by the broker; for a decoded compressed wrapper message it
	// is the offset of the LAST message in the inner set, per the Kafka
	// 0.8-0.10 compressed-batch convention.
	Offset int64
	Magic  int8
	// Attributes' low 3 bits hold the compression codec; higher bits are
	// unused by brokers this client targets.
	Attributes int8
	// Timestamp is only meaningful when Magic >= MagicTimestamp.
	Timestamp int64
	Key       []byte
	Value     []byte
}

// Codec returns the compression codec carried in Attributes.
func (m Message) Codec() kcompress.Codec {
	return kcompress.Codec(m.Attributes & attrCompressionMask)
}

// NewMessage builds an uncompressed message with the given key/value.
func NewMessage(key, value []byte) Message {
	return Message{Magic: MagicNoTimestamp, Key: key, Value: value}
}

// crcBody returns the bytes the CRC32 is computed over: magic, attributes,
// key, and value, each with their length prefixes where the wire format
// calls for one. For magic 1 the timestamp sits between attributes and key
// and is covered too, since the CRC spans every byte after the crc field
// (decodeMessageBody checks it the same way).
func crcBody(m Message) []byte {
	var w kbin.Writer
	w.Int8(m.Magic)
	w.Int8(m.Attributes)
	if m.Magic >= MagicTimestamp {
		w.Int64(m.Timestamp)
	}
	w.Bytes(m.Key)
	w.Bytes(m.Value)
	return w.Bytes()
}

// crc32IEEE computes the Kafka message CRC: IEEE polynomial, reflected,
// initial and final values of the stdlib's default table, which already
// implements exactly that construction.
func crc32IEEE(body []byte) uint32 {
	return crc32.ChecksumIEEE(body)
}

// AppendMessage appends one wire Message (offset, size, crc, body) to dst.
func AppendMessage(dst []byte, m Message) []byte {
	body := crcBody(m)
	crc := crc32IEEE(body)

	var w kbin.Writer
	w.Int64(m.Offset)
	w.Int32(int32(len(body) + 4)) // +4 for the crc field itself
	w.Int32(int32(crc))
	w.RawBytes(body)
	return append(dst, w.Bytes()...)
}

// DecodedMessage is a Message plus the outcome of validating it against
// the wire CRC and decompressing any inner set.
type DecodedMessage struct {
	Message
	// Valid is true iff the CRC matched, the magic byte was recognized,
	// and (for a compressed message) the inner set decoded cleanly.
	Valid bool
	// Err describes every detected fault, concatenated, when Valid is
	// false. It is nil when Valid is true.
	Err error
}

// ReadMessageSet decodes as many complete messages as fit in buf, silently
// returning the successfully decoded prefix if the final message is
// truncated (a broker may cut a MessageSet off mid-record when honoring a
// fetch's max_bytes). Truncation is never reported as an error: it is
// detected by comparing each message's declared size against the bytes
// remaining in buf.
//
// Compressed wrapper messages are expanded into their inner messages, one
// level of recursion, per the 0.8-0.10 compressed-batch convention: the
// outer message's Offset becomes the offset of the last inner message, and
// inner offsets are synthesized relative to it.
func ReadMessageSet(buf []byte) []DecodedMessage {
	var out []DecodedMessage
	r := kbin.NewReader(buf)
	for r.Remaining() > 0 {
		if r.Remaining() < 8+4 {
			break // not enough left even for offset+size; truncated tail
		}
		offset := r.Int64()
		size := r.Int32()
		if r.Err() != nil {
			break
		}
		if size < 0 || r.Remaining() < int(size) {
			break // declared size exceeds what's left: truncated tail
		}
		body := r.Span(int(size))
		if r.Err() != nil {
			break
		}
		out = append(out, decodeMessageBody(offset, body)...)
	}
	return out
}

func decodeMessageBody(offset int64, body []byte) []DecodedMessage {
	br := kbin.NewReader(body)
	wantCRC := uint32(br.Int32())
	magic := br.Int8()
	attributes := br.Int8()
	var timestamp int64
	if magic >= MagicTimestamp {
		timestamp = br.Int64()
	}
	key := br.Bytes()
	value := br.Bytes()

	if err := br.Complete(); err != nil {
		return []DecodedMessage{{
			Message: Message{Offset: offset, Magic: magic, Attributes: attributes, Timestamp: timestamp, Key: key},
			Valid:   false,
			Err:     err,
		}}
	}

	gotCRC := crc32IEEE(body[4:])
	msg := Message{Offset: offset, Magic: magic, Attributes: attributes, Timestamp: timestamp, Key: key, Value: value}

	codec := msg.Codec()
	if codec == kcompress.None {
		// Collect every detected fault rather than stopping at the first:
		// a message can fail both the CRC check and the magic check at once.
		var faults []error
		if gotCRC != wantCRC {
			faults = append(faults, errCRCMismatch(wantCRC, gotCRC))
		}
		if magic != MagicNoTimestamp && magic != MagicTimestamp {
			faults = append(faults, errUnknownMagic(magic))
		}
		if len(faults) > 0 {
			return []DecodedMessage{{Message: msg, Valid: false, Err: errors.Join(faults...)}}
		}
		return []DecodedMessage{{Message: msg, Valid: true}}
	}

	if gotCRC != wantCRC {
		return []DecodedMessage{{Message: msg, Valid: false, Err: errCRCMismatch(wantCRC, gotCRC)}}
	}

	inner, err := kcompress.Decompress(codec, value)
	if err != nil {
		return []DecodedMessage{{Message: msg, Valid: false, Err: err}}
	}

	innerMessages := ReadMessageSet(inner)
	if len(innerMessages) == 0 {
		return []DecodedMessage{{Message: msg, Valid: false, Err: errEmptyInnerSet()}}
	}

	// The outer message's offset is the offset of the last inner message;
	// earlier inner messages are numbered backwards from it.
	base := offset - int64(len(innerMessages)-1)
	for i := range innerMessages {
		innerMessages[i].Offset = base + int64(i)
	}
	return innerMessages
}
