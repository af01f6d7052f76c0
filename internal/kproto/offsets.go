package kproto

import "github.com/grafana/zkless-kafka/internal/kbin"

// Offset request time sentinels.
const (
	TimeLatest   int64 = -1
	TimeEarliest int64 = -2
)

// OffsetRequest is always built for exactly one topic-partition.
type OffsetRequest struct {
	// ReplicaID is always -1 for a regular client.
	ReplicaID           int32
	Topic               string
	Partition           int32
	Time                int64
	MaxNumberOfOffsets  int32
}

// AppendBody appends the encoded OffsetRequest body to dst.
func (req OffsetRequest) AppendBody(dst []byte) []byte {
	var w kbin.Writer
	w.Int32(req.ReplicaID)
	w.ArrayLen(1)
	w.String(req.Topic)
	w.ArrayLen(1)
	w.Int32(req.Partition)
	w.Int64(req.Time)
	w.Int32(req.MaxNumberOfOffsets)
	return append(dst, w.Bytes()...)
}

// OffsetPartitionResponse is one partition's result within an
// OffsetResponse topic entry.
type OffsetPartitionResponse struct {
	Partition int32
	ErrorCode int16
	Offsets   []int64
}

// OffsetTopicResponse is one topic entry within an OffsetResponse.
type OffsetTopicResponse struct {
	Topic      string
	Partitions []OffsetPartitionResponse
}

// OffsetResponse is decoded generically, same rationale as ProduceResponse.
type OffsetResponse struct {
	Topics []OffsetTopicResponse
}

// DecodeOffsetResponse decodes an OffsetResponse body.
func DecodeOffsetResponse(r *kbin.Reader) (OffsetResponse, error) {
	var resp OffsetResponse
	n := r.ArrayLen()
	resp.Topics = make([]OffsetTopicResponse, 0, n)
	for i := 0; i < n; i++ {
		var t OffsetTopicResponse
		t.Topic = r.String()
		pn := r.ArrayLen()
		t.Partitions = make([]OffsetPartitionResponse, 0, pn)
		for j := 0; j < pn; j++ {
			p := OffsetPartitionResponse{
				Partition: r.Int32(),
				ErrorCode: r.Int16(),
			}
			on := r.ArrayLen()
			p.Offsets = make([]int64, 0, on)
			for k := 0; k < on; k++ {
				p.Offsets = append(p.Offsets, r.Int64())
			}
			t.Partitions = append(t.Partitions, p)
		}
		resp.Topics = append(resp.Topics, t)
	}
	return resp, r.Complete()
}

// Partition looks up the single partition entry this client expects.
func (resp OffsetResponse) Partition(topic string, partition int32) (OffsetPartitionResponse, bool) {
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
	return OffsetPartitionResponse{}, false
}
