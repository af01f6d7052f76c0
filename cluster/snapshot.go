package cluster

import "github.com/grafana/zkless-kafka/internal/kproto"

// Snapshot is an immutable view of cluster metadata: which brokers exist
// and which broker leads each known topic-partition. Once published, a
// Snapshot is never mutated; Cluster swaps in a new one atomically
// (see Cluster.snapshot) so readers never observe a torn view.
type Snapshot struct {
	brokers map[int32]kproto.Broker
	leaders map[topicPartition]int32 // -1 means "no leader"
	errors  map[topicPartition]int16
}

type topicPartition struct {
	topic     string
	partition int32
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		brokers: map[int32]kproto.Broker{},
		leaders: map[topicPartition]int32{},
		errors:  map[topicPartition]int16{},
	}
}

// snapshotFromMetadata builds a Snapshot from a decoded MetadataResponse.
func snapshotFromMetadata(md kproto.MetadataResponse) *Snapshot {
	s := newSnapshot()
	for _, b := range md.Brokers {
		s.brokers[b.NodeID] = b
	}
	for _, t := range md.Topics {
		for _, p := range t.Partitions {
			tp := topicPartition{t.Topic, p.Partition}
			s.leaders[tp] = p.Leader
			s.errors[tp] = p.ErrorCode
		}
		if len(t.Partitions) == 0 && t.ErrorCode != 0 {
			// Topic-level error with no partitions (e.g. unknown topic):
			// record it under a partition-less key so callers asking about
			// any partition of this topic see the error.
			s.errors[topicPartition{t.Topic, -1}] = t.ErrorCode
		}
	}
	return s
}

// LeaderOf returns the node id leading topic/partition, and whether this
// snapshot has an opinion about it at all.
func (s *Snapshot) LeaderOf(topic string, partition int32) (nodeID int32, known bool) {
	if s == nil {
		return 0, false
	}
	nodeID, known = s.leaders[topicPartition{topic, partition}]
	return nodeID, known
}

// Broker returns the broker address for a node id.
func (s *Snapshot) Broker(nodeID int32) (kproto.Broker, bool) {
	if s == nil {
		return kproto.Broker{}, false
	}
	b, ok := s.brokers[nodeID]
	return b, ok
}

// ErrorFor returns the last-seen metadata error code for topic/partition,
// falling back to a topic-level error if the partition itself wasn't
// listed (e.g. UnknownTopicOrPartition on the whole topic).
func (s *Snapshot) ErrorFor(topic string, partition int32) int16 {
	if s == nil {
		return 0
	}
	if code, ok := s.errors[topicPartition{topic, partition}]; ok {
		return code
	}
	return s.errors[topicPartition{topic, -1}]
}

// Brokers returns every broker this snapshot knows about, in no particular
// order, for metadata-refresh target selection.
func (s *Snapshot) Brokers() []kproto.Broker {
	if s == nil {
		return nil
	}
	out := make([]kproto.Broker, 0, len(s.brokers))
	for _, b := range s.brokers {
		out = append(out, b)
	}
	return out
}
