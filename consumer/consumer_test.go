package consumer

import (
	"testing"

	"github.com/grafana/zkless-kafka/cluster"
	"github.com/grafana/zkless-kafka/internal/kbin"
	"github.com/grafana/zkless-kafka/internal/kproto"
	"github.com/grafana/zkless-kafka/transport/faketransport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCluster(t *testing.T, handler faketransport.Handler) *cluster.Cluster {
	t.Helper()
	cfg := cluster.Config{
		SeedBrokers:            []cluster.SeedBroker{{Host: "seed", Port: 9092}},
		ClientID:               "test",
		SendMaxAttempts:        2,
		AutoCreateTopicsEnable: true,
	}
	c := cluster.New(cfg, nil, nil).WithDialer(faketransport.NewDialer(handler))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func metadataBody(corrID int32, topic string, leader int32) []byte {
	var w kbin.Writer
	w.Int32(corrID)
	w.ArrayLen(1)
	w.Int32(leader)
	w.String("broker1")
	w.Int32(9092)
	w.ArrayLen(1)
	w.Int16(0)
	w.String(topic)
	w.ArrayLen(1)
	w.Int16(0)
	w.Int32(0)
	w.Int32(leader)
	w.ArrayLen(1)
	w.Int32(leader)
	w.ArrayLen(1)
	w.Int32(leader)
	return w.Bytes()
}

func fetchHandler(topic string, messageSet []byte, hwm int64) faketransport.Handler {
	return func(req []byte) ([]byte, bool) {
		r := kbin.NewReader(req)
		apiKey := r.Int16()
		_ = r.Int16()
		corrID := r.Int32()
		_ = r.NullableString()

		switch apiKey {
		case kproto.APIKeyMetadata:
			return metadataBody(corrID, topic, 1), true
		case kproto.APIKeyFetch:
			var w kbin.Writer
			w.Int32(corrID)
			w.ArrayLen(1)
			w.String(topic)
			w.ArrayLen(1)
			w.Int32(0)
			w.Int16(0)
			w.Int64(hwm)
			w.Int32(int32(len(messageSet)))
			w.RawBytes(messageSet)
			return w.Bytes(), true
		default:
			return nil, false
		}
	}
}

func TestFetchDecodesValidRecords(t *testing.T) {
	var ms []byte
	ms = kproto.AppendMessage(ms, kproto.NewMessage([]byte("k1"), []byte("v1")))
	ms = kproto.AppendMessage(ms, kproto.NewMessage([]byte("k2"), []byte("v2")))

	c := testCluster(t, fetchHandler("orders", ms, 99))
	cons := New(c, DefaultConfig())

	res, err := cons.Fetch("orders", 0, 0, 1<<20)
	require.NoError(t, err)
	assert.Equal(t, int64(99), res.HighwaterMarkOffset)
	require.Len(t, res.Records, 2)
	assert.True(t, res.Records[0].Valid)
	assert.Nil(t, res.Records[0].Err)
	assert.Equal(t, []byte("v1"), res.Records[0].Payload)
	assert.Equal(t, []byte("k2"), res.Records[1].Key)
	assert.Equal(t, res.Records[0].Offset+1, res.Records[0].NextOffset)
}

func TestFetchMarksCorruptRecordInvalidWithoutTopLevelError(t *testing.T) {
	ms := kproto.AppendMessage(nil, kproto.NewMessage([]byte("k"), []byte("v")))
	corrupted := append([]byte(nil), ms...)
	corrupted[len(corrupted)-1] ^= 0xFF // flip the last byte of the value

	c := testCluster(t, fetchHandler("orders", corrupted, 10))
	cons := New(c, DefaultConfig())

	res, err := cons.Fetch("orders", 0, 0, 1<<20)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.False(t, res.Records[0].Valid)
	assert.Error(t, res.Records[0].Err)
}

func TestFetchTolerantOfTruncatedTail(t *testing.T) {
	var ms []byte
	ms = kproto.AppendMessage(ms, kproto.NewMessage(nil, []byte("complete")))
	ms = append(ms, kproto.AppendMessage(nil, kproto.NewMessage(nil, []byte("cut-off")))[:5]...)

	c := testCluster(t, fetchHandler("orders", ms, 5))
	cons := New(c, DefaultConfig())

	res, err := cons.Fetch("orders", 0, 0, 1<<20)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, []byte("complete"), res.Records[0].Payload)
}

func TestOffsetsReturnsOffsetList(t *testing.T) {
	handler := func(req []byte) ([]byte, bool) {
		r := kbin.NewReader(req)
		apiKey := r.Int16()
		_ = r.Int16()
		corrID := r.Int32()
		_ = r.NullableString()

		switch apiKey {
		case kproto.APIKeyMetadata:
			return metadataBody(corrID, "orders", 1), true
		case kproto.APIKeyOffsets:
			var w kbin.Writer
			w.Int32(corrID)
			w.ArrayLen(1)
			w.String("orders")
			w.ArrayLen(1)
			w.Int32(0)
			w.Int16(0)
			w.ArrayLen(2)
			w.Int64(100)
			w.Int64(0)
			return w.Bytes(), true
		default:
			return nil, false
		}
	}

	c := testCluster(t, handler)
	cons := New(c, DefaultConfig())

	offsets, err := cons.Offsets("orders", 0, kproto.TimeEarliest, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 0}, offsets)
}

func TestOffsetsEmptyIsNotAnError(t *testing.T) {
	handler := func(req []byte) ([]byte, bool) {
		r := kbin.NewReader(req)
		apiKey := r.Int16()
		_ = r.Int16()
		corrID := r.Int32()
		_ = r.NullableString()

		switch apiKey {
		case kproto.APIKeyMetadata:
			return metadataBody(corrID, "orders", 1), true
		case kproto.APIKeyOffsets:
			var w kbin.Writer
			w.Int32(corrID)
			w.ArrayLen(1)
			w.String("orders")
			w.ArrayLen(1)
			w.Int32(0)
			w.Int16(0)
			w.ArrayLen(0)
			return w.Bytes(), true
		default:
			return nil, false
		}
	}

	c := testCluster(t, handler)
	cons := New(c, DefaultConfig())

	offsets, err := cons.Offsets("orders", 0, kproto.TimeLatest, 5)
	require.NoError(t, err)
	assert.Empty(t, offsets)
}
