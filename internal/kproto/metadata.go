package kproto

import "github.com/grafana/zkless-kafka/internal/kbin"

// MetadataRequest asks for metadata about the given topics; an empty slice
// requests metadata for all topics the broker knows about.
type MetadataRequest struct {
	Topics []string
}

// AppendBody appends the encoded MetadataRequest body to dst.
func (req MetadataRequest) AppendBody(dst []byte) []byte {
	var w kbin.Writer
	w.ArrayLen(len(req.Topics))
	for _, t := range req.Topics {
		w.String(t)
	}
	return append(dst, w.Bytes()...)
}

// Broker describes one cluster member as reported by a MetadataResponse.
type Broker struct {
	NodeID int32
	Host   string
	Port   int32
}

// PartitionMetadata describes one partition's leader and replica set.
type PartitionMetadata struct {
	ErrorCode int16
	Partition int32
	// Leader is -1 when there is currently no leader for this partition.
	Leader   int32
	Replicas []int32
	ISR      []int32
}

// TopicMetadata describes one topic's partitions.
type TopicMetadata struct {
	ErrorCode  int16
	Topic      string
	Partitions []PartitionMetadata
}

// MetadataResponse is the full cluster snapshot a MetadataRequest returns.
type MetadataResponse struct {
	Brokers []Broker
	Topics  []TopicMetadata
}

// DecodeMetadataResponse decodes a MetadataResponse body.
func DecodeMetadataResponse(r *kbin.Reader) (MetadataResponse, error) {
	var resp MetadataResponse

	bn := r.ArrayLen()
	resp.Brokers = make([]Broker, 0, bn)
	for i := 0; i < bn; i++ {
		resp.Brokers = append(resp.Brokers, Broker{
			NodeID: r.Int32(),
			Host:   r.String(),
			Port:   r.Int32(),
		})
	}

	tn := r.ArrayLen()
	resp.Topics = make([]TopicMetadata, 0, tn)
	for i := 0; i < tn; i++ {
		t := TopicMetadata{ErrorCode: r.Int16(), Topic: r.String()}
		pn := r.ArrayLen()
		t.Partitions = make([]PartitionMetadata, 0, pn)
		for j := 0; j < pn; j++ {
			p := PartitionMetadata{
				ErrorCode: r.Int16(),
				Partition: r.Int32(),
				Leader:    r.Int32(),
			}
			rn := r.ArrayLen()
			p.Replicas = make([]int32, 0, rn)
			for k := 0; k < rn; k++ {
				p.Replicas = append(p.Replicas, r.Int32())
			}
			isrn := r.ArrayLen()
			p.ISR = make([]int32, 0, isrn)
			for k := 0; k < isrn; k++ {
				p.ISR = append(p.ISR, r.Int32())
			}
			t.Partitions = append(t.Partitions, p)
		}
		resp.Topics = append(resp.Topics, t)
	}

	return resp, r.Complete()
}

// Partition looks up one topic-partition's metadata.
func (resp MetadataResponse) Partition(topic string, partition int32) (PartitionMetadata, bool) {
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
	return PartitionMetadata{}, false
}

// TopicError returns the topic-level error code for topic, if present.
func (resp MetadataResponse) TopicError(topic string) (int16, bool) {
	for _, t := range resp.Topics {
		if t.Topic == topic {
			return t.ErrorCode, true
		}
	}
	return 0, false
}
