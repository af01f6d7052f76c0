package producer

import (
	"testing"

	"github.com/grafana/zkless-kafka/cluster"
	"github.com/grafana/zkless-kafka/internal/kbin"
	"github.com/grafana/zkless-kafka/internal/kcompress"
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

func readReqHeader(r *kbin.Reader) (apiKey int16, corrID int32) {
	apiKey = r.Int16()
	_ = r.Int16()
	corrID = r.Int32()
	_ = r.NullableString()
	return
}

func TestSendBuildsMessageSetAndReturnsOffset(t *testing.T) {
	var gotMessageSet []byte
	c := testCluster(t, func(req []byte) ([]byte, bool) {
		r := kbin.NewReader(req)
		apiKey, corrID := readReqHeader(r)
		switch apiKey {
		case kproto.APIKeyMetadata:
			return metadataBody(corrID, "orders", 1), true
		case kproto.APIKeyProduce:
			_ = r.Int16()    // required acks
			_ = r.Int32()    // timeout
			_ = r.ArrayLen() // topics
			_ = r.String()   // topic
			_ = r.ArrayLen() // partitions
			_ = r.Int32()    // partition
			size := r.Int32()
			gotMessageSet = r.Span(int(size))

			var w kbin.Writer
			w.Int32(corrID)
			w.ArrayLen(1)
			w.String("orders")
			w.ArrayLen(1)
			w.Int32(0)
			w.Int16(0)
			w.Int64(55)
			return w.Bytes(), true
		default:
			return nil, false
		}
	})

	p := New(c, DefaultConfig())
	res, err := p.Send("orders", 0, []byte("k"), [][]byte{[]byte("v1"), []byte("v2")}, kcompress.None)
	require.NoError(t, err)
	assert.Equal(t, int64(55), res.Offset)

	decoded := kproto.ReadMessageSet(gotMessageSet)
	require.Len(t, decoded, 2)
	assert.Equal(t, []byte("v1"), decoded[0].Value)
	assert.Equal(t, []byte("v2"), decoded[1].Value)
	assert.True(t, decoded[0].Valid)
}

func TestSendCompressesIntoSingleOuterMessage(t *testing.T) {
	var gotMessageSet []byte
	c := testCluster(t, func(req []byte) ([]byte, bool) {
		r := kbin.NewReader(req)
		apiKey, corrID := readReqHeader(r)
		switch apiKey {
		case kproto.APIKeyMetadata:
			return metadataBody(corrID, "orders", 1), true
		case kproto.APIKeyProduce:
			_ = r.Int16()
			_ = r.Int32()
			_ = r.ArrayLen()
			_ = r.String()
			_ = r.ArrayLen()
			_ = r.Int32()
			size := r.Int32()
			gotMessageSet = r.Span(int(size))

			var w kbin.Writer
			w.Int32(corrID)
			w.ArrayLen(1)
			w.String("orders")
			w.ArrayLen(1)
			w.Int32(0)
			w.Int16(0)
			w.Int64(7)
			return w.Bytes(), true
		default:
			return nil, false
		}
	})

	p := New(c, DefaultConfig())
	_, err := p.Send("orders", 0, nil, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, kcompress.Gzip)
	require.NoError(t, err)

	outer := kproto.ReadMessageSet(gotMessageSet)
	require.Len(t, outer, 3) // the outer wrapper is expanded transparently
	assert.True(t, outer[0].Valid)
	assert.Equal(t, []byte("a"), outer[0].Value)
	assert.Equal(t, []byte("c"), outer[2].Value)
}

func TestSendRejectsEmptyTopic(t *testing.T) {
	c := testCluster(t, func(req []byte) ([]byte, bool) { return nil, false })
	p := New(c, DefaultConfig())
	_, err := p.Send("", 0, nil, [][]byte{[]byte("v")}, kcompress.None)
	assert.Error(t, err)
}

func TestSendRejectsNegativePartition(t *testing.T) {
	c := testCluster(t, func(req []byte) ([]byte, bool) { return nil, false })
	p := New(c, DefaultConfig())
	_, err := p.Send("orders", -1, nil, [][]byte{[]byte("v")}, kcompress.None)
	assert.Error(t, err)
}

func TestSendRejectsOversizedMessage(t *testing.T) {
	c := testCluster(t, func(req []byte) ([]byte, bool) { return nil, false })
	cfg := DefaultConfig()
	cfg.MaxMessageSize = 4
	p := New(c, cfg)
	_, err := p.Send("orders", 0, nil, [][]byte{[]byte("toolong")}, kcompress.None)
	assert.Error(t, err)
}

func TestSendRequiresAtLeastOneMessage(t *testing.T) {
	c := testCluster(t, func(req []byte) ([]byte, bool) { return nil, false })
	p := New(c, DefaultConfig())
	_, err := p.Send("orders", 0, nil, nil, kcompress.None)
	assert.Error(t, err)
}
