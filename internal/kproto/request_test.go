package kproto

import (
	"testing"

	"github.com/grafana/zkless-kafka/internal/kbin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestHeaderAppendTo(t *testing.T) {
	h := RequestHeader{APIKey: APIKeyProduce, APIVersion: 0, CorrelationID: 7, ClientID: "zkless-kafka"}
	frame := h.AppendTo(nil, []byte{0xDE, 0xAD})

	r := kbin.NewReader(frame)
	assert.Equal(t, APIKeyProduce, r.Int16())
	assert.Equal(t, int16(0), r.Int16())
	assert.Equal(t, int32(7), r.Int32())
	assert.Equal(t, "zkless-kafka", *r.NullableString())
	assert.Equal(t, []byte{0xDE, 0xAD}, r.Span(2))
	require.NoError(t, r.Complete())
}

func TestProduceRequestResponseRoundTrip(t *testing.T) {
	ms := AppendMessage(nil, NewMessage([]byte("k"), []byte("v")))
	req := ProduceRequest{RequiredAcks: -1, TimeoutMs: 1000, Topic: "orders", Partition: 2, MessageSet: ms}
	body := req.AppendBody(nil)
	assert.NotEmpty(t, body)

	var w kbin.Writer
	w.Int32(99) // correlation id
	w.ArrayLen(1)
	w.String("orders")
	w.ArrayLen(1)
	w.Int32(2)
	w.Int16(0)
	w.Int64(12345)

	_, r := ReadResponseHeader(w.Bytes())
	resp, err := DecodeProduceResponse(r)
	require.NoError(t, err)

	part, ok := resp.Partition("orders", 2)
	require.True(t, ok)
	assert.Equal(t, int16(0), part.ErrorCode)
	assert.Equal(t, int64(12345), part.Offset)

	_, ok = resp.Partition("orders", 99)
	assert.False(t, ok)
}

func TestFetchRequestResponseRoundTrip(t *testing.T) {
	req := FetchRequest{ReplicaID: -1, MaxWaitMs: 100, MinBytes: 1, Topic: "orders", Partition: 0, FetchOffset: 10, MaxBytes: 1 << 20}
	body := req.AppendBody(nil)
	assert.NotEmpty(t, body)

	ms := AppendMessage(nil, NewMessage(nil, []byte("payload")))
	var w kbin.Writer
	w.Int32(1) // correlation id
	w.ArrayLen(1)
	w.String("orders")
	w.ArrayLen(1)
	w.Int32(0)
	w.Int16(0)
	w.Int64(55)
	w.Int32(int32(len(ms)))
	w.RawBytes(ms)

	_, r := ReadResponseHeader(w.Bytes())
	resp, err := DecodeFetchResponse(r)
	require.NoError(t, err)

	part, ok := resp.Partition("orders", 0)
	require.True(t, ok)
	assert.Equal(t, int64(55), part.HighwaterMarkOffset)
	decoded := ReadMessageSet(part.MessageSet)
	require.Len(t, decoded, 1)
	assert.Equal(t, []byte("payload"), decoded[0].Value)
}

func TestOffsetRequestResponseRoundTrip(t *testing.T) {
	req := OffsetRequest{ReplicaID: -1, Topic: "orders", Partition: 0, Time: TimeLatest, MaxNumberOfOffsets: 1}
	body := req.AppendBody(nil)
	assert.NotEmpty(t, body)

	var w kbin.Writer
	w.Int32(1)
	w.ArrayLen(1)
	w.String("orders")
	w.ArrayLen(1)
	w.Int32(0)
	w.Int16(0)
	w.ArrayLen(2)
	w.Int64(100)
	w.Int64(50)

	_, r := ReadResponseHeader(w.Bytes())
	resp, err := DecodeOffsetResponse(r)
	require.NoError(t, err)

	part, ok := resp.Partition("orders", 0)
	require.True(t, ok)
	assert.Equal(t, []int64{100, 50}, part.Offsets)
}

func TestMetadataRequestResponseRoundTrip(t *testing.T) {
	req := MetadataRequest{Topics: []string{"orders"}}
	body := req.AppendBody(nil)
	assert.NotEmpty(t, body)

	var w kbin.Writer
	w.Int32(1)
	w.ArrayLen(1)
	w.Int32(1) // node id
	w.String("broker1")
	w.Int32(9092)
	w.ArrayLen(1)
	w.Int16(0)
	w.String("orders")
	w.ArrayLen(1)
	w.Int16(0)
	w.Int32(0) // partition
	w.Int32(1) // leader
	w.ArrayLen(1)
	w.Int32(1)
	w.ArrayLen(1)
	w.Int32(1)

	_, r := ReadResponseHeader(w.Bytes())
	resp, err := DecodeMetadataResponse(r)
	require.NoError(t, err)

	require.Len(t, resp.Brokers, 1)
	assert.Equal(t, "broker1", resp.Brokers[0].Host)

	part, ok := resp.Partition("orders", 0)
	require.True(t, ok)
	assert.Equal(t, int32(1), part.Leader)
}

func TestMetadataEmptyTopicsMeansAllTopics(t *testing.T) {
	req := MetadataRequest{}
	body := req.AppendBody(nil)
	r := kbin.NewReader(body)
	assert.Equal(t, 0, r.ArrayLen())
}
