package kproto

import "github.com/grafana/zkless-kafka/internal/kbin"

// FetchRequest is always built for exactly one topic-partition, matching
// ProduceRequest's single-partition restriction.
type FetchRequest struct {
	// ReplicaID must be -1 for a consumer (non-broker) client.
	ReplicaID  int32
	MaxWaitMs  int32
	MinBytes   int32
	Topic      string
	Partition  int32
	FetchOffset int64
	MaxBytes   int32
}

// AppendBody appends the encoded FetchRequest body to dst.
func (req FetchRequest) AppendBody(dst []byte) []byte {
	var w kbin.Writer
	w.Int32(req.ReplicaID)
	w.Int32(req.MaxWaitMs)
	w.Int32(req.MinBytes)
	w.ArrayLen(1)
	w.String(req.Topic)
	w.ArrayLen(1)
	w.Int32(req.Partition)
	w.Int64(req.FetchOffset)
	w.Int32(req.MaxBytes)
	return append(dst, w.Bytes()...)
}

// FetchPartitionResponse is one partition's result within a FetchResponse
// topic entry. MessageSet is the raw, still-encoded bytes; callers decode
// it with ReadMessageSet once they know which partition they asked about.
type FetchPartitionResponse struct {
	Partition           int32
	ErrorCode           int16
	HighwaterMarkOffset int64
	MessageSet          []byte
}

// FetchTopicResponse is one topic entry within a FetchResponse.
type FetchTopicResponse struct {
	Topic      string
	Partitions []FetchPartitionResponse
}

// FetchResponse is decoded generically, same rationale as ProduceResponse.
type FetchResponse struct {
	Topics []FetchTopicResponse
}

// DecodeFetchResponse decodes a FetchResponse body.
func DecodeFetchResponse(r *kbin.Reader) (FetchResponse, error) {
	var resp FetchResponse
	n := r.ArrayLen()
	resp.Topics = make([]FetchTopicResponse, 0, n)
	for i := 0; i < n; i++ {
		var t FetchTopicResponse
		t.Topic = r.String()
		pn := r.ArrayLen()
		t.Partitions = make([]FetchPartitionResponse, 0, pn)
		for j := 0; j < pn; j++ {
			p := FetchPartitionResponse{
				Partition:           r.Int32(),
				ErrorCode:           r.Int16(),
				HighwaterMarkOffset: r.Int64(),
			}
			size := r.Int32()
			if r.Err() == nil {
				if size < 0 {
					size = 0
				}
				p.MessageSet = r.Span(int(size))
			}
			t.Partitions = append(t.Partitions, p)
		}
		resp.Topics = append(resp.Topics, t)
	}
	return resp, r.Complete()
}

// Partition looks up the single partition entry this client expects.
func (resp FetchResponse) Partition(topic string, partition int32) (FetchPartitionResponse, bool) {
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
	return FetchPartitionResponse{}, false
}
