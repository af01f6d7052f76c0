// Package kcompress wraps and unwraps the compression codecs a Kafka
// Message's attributes byte can select: none, GZIP, Snappy, and LZ4.
package kcompress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	xerialsnappy "github.com/eapache/go-xerial-snappy"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies a Message attributes compression codec. The values match
// the low 3 bits of the wire attributes byte.
type Codec int8

const (
	None   Codec = 0
	Gzip   Codec = 1
	Snappy Codec = 2
	LZ4    Codec = 3
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int8(c))
	}
}

// MaxInflateSize bounds decompression output so a malicious or corrupt
// frame cannot exhaust memory via a compression bomb.
const MaxInflateSize = 256 << 20 // 256 MiB

// Compress encodes data with the given codec. None returns data unchanged.
//
// Snappy is always emitted in xerial framing (a 16-byte magic header
// followed by length-prefixed raw-Snappy chunks), matching real Kafka
// producers and brokers since 0.8.1; see Decompress for why a wider set of
// inputs must be accepted on the way back in.
func Compress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case None:
		return data, nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("kcompress: gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("kcompress: gzip close: %w", err)
		}
		return buf.Bytes(), nil
	case Snappy:
		return xerialsnappy.EncodeStream(nil, data), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("kcompress: lz4 write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("kcompress: lz4 close: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("kcompress: unsupported codec %s", codec)
	}
}

// Decompress decodes data that was compressed with the given codec. None
// returns data unchanged.
//
// Snappy accepts both xerial-framed input (what Compress emits, and what
// brokers relay from other clients) and raw-block Snappy (emitted by some
// older non-Java clients), since a consumer has no out-of-band way to know
// which a given producer used.
func Decompress(codec Codec, data []byte) ([]byte, error) {
	switch codec {
	case None:
		return data, nil
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("kcompress: gzip header: %w", err)
		}
		defer r.Close()
		return readCapped(r, "gzip")
	case Snappy:
		// xerialsnappy.Decode already falls back to raw-block decoding when
		// the xerial magic header is absent, so this one call covers both
		// framings a producer might have used.
		out, err := xerialsnappy.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("kcompress: snappy: %w", err)
		}
		return out, nil
	case LZ4:
		return readCapped(lz4.NewReader(bytes.NewReader(data)), "lz4")
	default:
		return nil, fmt.Errorf("kcompress: unsupported codec %s", codec)
	}
}

func readCapped(r io.Reader, name string) ([]byte, error) {
	limited := io.LimitReader(r, MaxInflateSize+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("kcompress: %s read: %w", name, err)
	}
	if len(out) > MaxInflateSize {
		return nil, fmt.Errorf("kcompress: %s frame exceeds %d byte inflate cap", name, MaxInflateSize)
	}
	return out, nil
}
