package kproto

import "github.com/grafana/zkless-kafka/internal/kbin"

// API keys this client speaks.
const (
	APIKeyProduce  int16 = 0
	APIKeyFetch    int16 = 1
	APIKeyOffsets  int16 = 2
	APIKeyMetadata int16 = 3
)

// RequestHeader is the common prefix of every request frame.
type RequestHeader struct {
	APIKey        int16
	APIVersion    int16
	CorrelationID int32
	ClientID      string
}

// AppendTo writes the request header followed by body onto dst, returning
// the full frame body (the 4-byte outer size prefix is added by the
// transport layer, not here).
func (h RequestHeader) AppendTo(dst []byte, body []byte) []byte {
	var w kbin.Writer
	w.Int16(h.APIKey)
	w.Int16(h.APIVersion)
	w.Int32(h.CorrelationID)
	clientID := h.ClientID
	w.NullableString(&clientID)
	dst = append(dst, w.Bytes()...)
	dst = append(dst, body...)
	return dst
}

// ResponseHeader is the common prefix of every response frame.
type ResponseHeader struct {
	CorrelationID int32
}

// ReadResponseHeader reads the correlation id prefix and returns a Reader
// positioned at the start of the response body.
func ReadResponseHeader(buf []byte) (ResponseHeader, *kbin.Reader) {
	r := kbin.NewReader(buf)
	return ResponseHeader{CorrelationID: r.Int32()}, r
}
