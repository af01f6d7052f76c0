package kproto

import "github.com/grafana/zkless-kafka/internal/kbin"

// ProduceRequest is always built for exactly one topic-partition; the wire
// format supports a full topics/partitions array, but this client never
// batches more than one partition into a single request.
type ProduceRequest struct {
	RequiredAcks int16
	TimeoutMs    int32
	Topic        string
	Partition    int32
	MessageSet   []byte
}

// AppendBody appends the encoded ProduceRequest body to dst.
func (req ProduceRequest) AppendBody(dst []byte) []byte {
	var w kbin.Writer
	w.Int16(req.RequiredAcks)
	w.Int32(req.TimeoutMs)
	w.ArrayLen(1) // topics
	w.String(req.Topic)
	w.ArrayLen(1) // partitions
	w.Int32(req.Partition)
	w.Int32(int32(len(req.MessageSet)))
	w.RawBytes(req.MessageSet)
	return append(dst, w.Bytes()...)
}

// ProducePartitionResponse is one partition's result within a
// ProduceResponse topic entry.
type ProducePartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offset    int64
}

// ProduceTopicResponse is one topic entry within a ProduceResponse.
type ProduceTopicResponse struct {
	Topic      string
	Partitions []ProducePartitionResponse
}

// ProduceResponse is decoded generically (arbitrary topic/partition
// counts) even though this client only ever sends single-partition
// requests, so a caller can detect and report a broker returning something
// unexpected rather than silently indexing the wrong slot.
type ProduceResponse struct {
	Topics []ProduceTopicResponse
}

// DecodeProduceResponse decodes a ProduceResponse body (the bytes after the
// correlation id header).
func DecodeProduceResponse(r *kbin.Reader) (ProduceResponse, error) {
	var resp ProduceResponse
	n := r.ArrayLen()
	resp.Topics = make([]ProduceTopicResponse, 0, n)
	for i := 0; i < n; i++ {
		var t ProduceTopicResponse
		t.Topic = r.String()
		pn := r.ArrayLen()
		t.Partitions = make([]ProducePartitionResponse, 0, pn)
		for j := 0; j < pn; j++ {
			t.Partitions = append(t.Partitions, ProducePartitionResponse{
				Partition: r.Int32(),
				ErrorCode: r.Int16(),
				Offset:    r.Int64(),
			})
		}
		resp.Topics = append(resp.Topics, t)
	}
	return resp, r.Complete()
}

// Partition looks up the single partition entry this client expects for
// topic/partition, returning ok=false if the broker's response doesn't
// contain it.
func (resp ProduceResponse) Partition(topic string, partition int32) (ProducePartitionResponse, bool) {
	for _, t := range resp.Topics {
		if t.Topic != topic {
			continue
		}
		for _, p := range t.Partitions {
			if p.Partition == partition {
				return p, true
			}
		}
	}
	return ProducePartitionResponse{}, false
}
